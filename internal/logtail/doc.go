// Package logtail reads the end of the board's own log file.
//
// The status server uses it to show recent poll failures without shell
// access to the kiosk. Read keeps only the last N lines in a ring buffer,
// so the whole file is scanned once but never held in memory. Filter keeps
// lines at or above a slog level, parsed from the text handler's
// "level=" field.
//
// A log file that does not exist yet reads as empty.
package logtail
