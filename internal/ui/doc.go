// Package ui renders the departure board in the terminal with Bubble Tea.
//
// The program never fetches anything. A display.Scheduler pushes a fresh
// view into it on every tick, and the model keeps only the latest one.
package ui
