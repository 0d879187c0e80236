package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/stationboard/internal/secrets"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRun_MissingCredentialFailsStartup(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
log_path = %q
dotenv = %q

[transit]
token_env = "STATIONBOARD_TEST_UNSET_TOKEN"
`, filepath.Join(dir, "board.log"), filepath.Join(dir, "missing.env")))

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Plain: true, Output: &lockedBuffer{}})

	var credErr *secrets.CredentialError
	require.True(t, errors.As(err, &credErr), "Run error = %v, want CredentialError", err)
	require.Equal(t, "transit token", credErr.Name)
}

func TestRun_PlainBoardShowsBothProviders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/departures/VIC/8", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("accessToken") != "transit-token" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"locationName":"London Victoria","crs":"VIC","trainServices":[
			{"serviceID":"s1","std":"10:07","etd":"On time","platform":"12","destination":[{"locationName":"Brighton"}]}
		]}`))
	})
	mux.HandleFunc("/data/2.5/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "weather-key" {
			http.Error(w, "bad key", http.StatusUnauthorized)
			return
		}
		dt := time.Now().Add(3 * time.Hour).Unix()
		fmt.Fprintf(w, `{"list":[{"dt":%d,"main":{"temp":7.4},"weather":[{"main":"Rain","description":"light rain"}]}],"city":{"id":2646557,"name":"Reading"}}`, dt)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "transit.token")
	keyFile := filepath.Join(dir, "weather.key")
	require.NoError(t, os.WriteFile(tokenFile, []byte("transit-token\n"), 0o600))
	require.NoError(t, os.WriteFile(keyFile, []byte("weather-key"), 0o600))

	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
title = "Test Board"
log_path = %q
dotenv = %q

[transit]
base_url = %q
token_file = %q

[weather]
base_url = %q
key_file = %q

[display]
refresh = "20ms"
`, filepath.Join(dir, "board.log"), filepath.Join(dir, "missing.env"), srv.URL, tokenFile, srv.URL, keyFile))

	out := &lockedBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{ConfigPath: cfgPath, Plain: true, Output: out})
	}()

	require.Eventually(t, func() bool {
		page := out.String()
		return strings.Contains(page, "Brighton") && strings.Contains(page, "light rain")
	}, 5*time.Second, 10*time.Millisecond, "board never showed both providers:\n%s", out.String())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	page := out.String()
	require.Contains(t, page, "Test Board")
	require.Contains(t, page, "7°C")
}

func writeTokens(t *testing.T, dir string) (string, string) {
	t.Helper()
	tokenFile := filepath.Join(dir, "transit.token")
	keyFile := filepath.Join(dir, "weather.key")
	require.NoError(t, os.WriteFile(tokenFile, []byte("transit-token"), 0o600))
	require.NoError(t, os.WriteFile(keyFile, []byte("weather-key"), 0o600))
	return tokenFile, keyFile
}

func TestRun_OccupiedListenAddressFailsStartup(t *testing.T) {
	held, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer held.Close()

	dir := t.TempDir()
	tokenFile, keyFile := writeTokens(t, dir)
	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
log_path = %q
dotenv = %q
listen = %q

[transit]
base_url = "http://127.0.0.1:1"
token_file = %q

[weather]
base_url = "http://127.0.0.1:1"
key_file = %q
`, filepath.Join(dir, "board.log"), filepath.Join(dir, "missing.env"), held.Addr().String(), tokenFile, keyFile))

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), Options{ConfigPath: cfgPath, Plain: true, Output: &lockedBuffer{}})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		require.Contains(t, err.Error(), "status server")
		require.Contains(t, err.Error(), held.Addr().String())
	case <-time.After(5 * time.Second):
		t.Fatal("Run kept running with an unusable listen address")
	}

	logged, err := os.ReadFile(filepath.Join(dir, "board.log"))
	require.NoError(t, err)
	require.NotContains(t, string(logged), "stationboard starting")
}

func TestRun_LogFlagExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
dotenv = %q

[transit]
token_env = "STATIONBOARD_TEST_UNSET_TOKEN"
`, filepath.Join(dir, "missing.env")))

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Plain: true, LogPath: "~/logs/board.log", Output: &lockedBuffer{}})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(home, "logs", "board.log"))
	require.NoError(t, statErr, "log file not created under HOME")
}
