package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stationboard/internal/display"
)

// Renderer forwards scheduler views into a running program.
type Renderer struct {
	program *tea.Program
}

// Render implements display.Renderer. Send returns without blocking
// once the program has exited.
func (r *Renderer) Render(view display.View) {
	r.program.Send(viewMsg(view))
}

// Run starts the board program and a scheduler feeding it views from source
// every refresh period. It returns when the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options, source display.Source, refresh time.Duration) error {
	program := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := runProgram(ctx, program, source, refresh)
	return err
}

func runProgram(ctx context.Context, program *tea.Program, source display.Source, refresh time.Duration) (tea.Model, error) {
	schedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go display.NewScheduler(source, &Renderer{program: program}, refresh).Run(schedCtx)

	final, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return final, nil
	}
	return final, err
}
