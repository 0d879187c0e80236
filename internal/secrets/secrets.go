// Package secrets loads the two provider credentials once at startup.
//
// A credential comes from its token file when one is configured, otherwise
// from an environment variable. Environment variables may be supplied through
// a .env file. Anything missing or malformed is a *CredentialError, which is
// fatal: the board never polls with a bad token.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
)

// CredentialError reports a credential that could not be loaded.
type CredentialError struct {
	Name   string
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	msg := fmt.Sprintf("credential %s: %s", e.Name, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// Source says where one credential lives.
type Source struct {
	Name   string
	File   string
	EnvVar string
}

// Credentials are the loaded provider tokens.
type Credentials struct {
	Transit string
	Weather string
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadAll resolves both credentials.
func LoadAll(transit, weather Source) (Credentials, error) {
	var creds Credentials
	var err error
	if creds.Transit, err = Load(transit); err != nil {
		return Credentials{}, err
	}
	if creds.Weather, err = Load(weather); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Load resolves a single credential from src.
func Load(src Source) (string, error) {
	name := src.Name
	if name == "" {
		name = "token"
	}

	var raw string
	switch {
	case strings.TrimSpace(src.File) != "":
		data, err := os.ReadFile(src.File)
		if err != nil {
			return "", &CredentialError{Name: name, Reason: "read " + src.File, Err: err}
		}
		raw = string(data)
	case src.EnvVar != "":
		value, ok := os.LookupEnv(src.EnvVar)
		if !ok {
			return "", &CredentialError{Name: name, Reason: src.EnvVar + " is not set"}
		}
		raw = value
	default:
		return "", &CredentialError{Name: name, Reason: "no token file or environment variable configured"}
	}

	token := strings.TrimSpace(raw)
	if err := validate(token); err != nil {
		return "", &CredentialError{Name: name, Reason: "malformed", Err: err}
	}
	return token, nil
}

func validate(token string) error {
	if token == "" {
		return errors.New("empty")
	}
	for _, r := range token {
		if unicode.IsSpace(r) {
			return errors.New("contains whitespace")
		}
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return errors.New("contains non-printable characters")
		}
	}
	return nil
}
