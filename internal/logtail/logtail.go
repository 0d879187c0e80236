package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	// DefaultLines is used when the caller asks for zero or fewer lines.
	DefaultLines = 200
	// MaxLines caps a single read.
	MaxLines = 2000
)

// Read returns at most maxLines from the end of the file at path, oldest
// first.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		maxLines = DefaultLines
	}
	maxLines = min(maxLines, MaxLines)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	total := 0
	for scanner.Scan() {
		ring[total%maxLines] = scanner.Text()
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if total <= maxLines {
		return ring[:total], nil
	}
	start := total % maxLines
	return append(ring[start:], ring[:start]...), nil
}

// Level extracts the slog level from a text-handler line. Lines without a
// level field report ok=false.
func Level(line string) (slog.Level, bool) {
	for _, field := range strings.Fields(line) {
		value, found := strings.CutPrefix(field, "level=")
		if !found {
			continue
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err != nil {
			return 0, false
		}
		return level, true
	}
	return 0, false
}

// Filter returns the lines whose level is at least threshold. Lines without a
// level are continuation output and are kept only when threshold is Debug or
// lower.
func Filter(lines []string, threshold slog.Level) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		level, ok := Level(line)
		if !ok {
			if threshold <= slog.LevelDebug {
				out = append(out, line)
			}
			continue
		}
		if level >= threshold {
			out = append(out, line)
		}
	}
	return out
}
