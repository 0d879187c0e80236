package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TextRenderer writes the combined board to w as plain text, one page per
// tick. It is meant for headless displays and log capture.
type TextRenderer struct {
	w        io.Writer
	title    string
	units    string
	renderer *lipgloss.Renderer
}

// NewTextRenderer returns a TextRenderer writing to w.
func NewTextRenderer(w io.Writer, title, units string) *TextRenderer {
	return &TextRenderer{
		w:        w,
		title:    title,
		units:    units,
		renderer: lipgloss.NewRenderer(w),
	}
}

// Render writes one page. Write errors are ignored; the next tick tries again.
func (r *TextRenderer) Render(view View) {
	_, _ = io.WriteString(r.w, r.Page(view))
}

// Page formats view without writing it.
func (r *TextRenderer) Page(view View) string {
	var b strings.Builder

	heading := r.renderer.NewStyle().Bold(true)
	b.WriteString(heading.Render(fmt.Sprintf("%s  %s", r.title, view.Now.Format("15:04"))))
	b.WriteString("\n")

	if view.HasServices && len(view.Services) > 0 {
		rows := make([][]string, 0, len(view.Services))
		for _, svc := range view.Services {
			rows = append(rows, []string{svc.Scheduled, svc.Destination, svc.Estimated, Platform(svc)})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(r.renderer.NewStyle()).
			Headers("Dept", "Destination", "Est", "Plat").
			Rows(rows...)
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if len(view.Forecast) > 0 {
		parts := make([]string, 0, len(view.Forecast))
		for _, p := range view.Forecast {
			parts = append(parts, fmt.Sprintf("%s %s %s",
				ForecastTime(p.Time, view.Now), p.Description, Temperature(p.Temperature, r.units)))
		}
		b.WriteString(strings.Join(parts, "  |  "))
		b.WriteString("\n")
	}

	b.WriteString("updated ")
	b.WriteString(Freshness(view.LastUpdated, view.Now))
	b.WriteString("\n\n")
	return b.String()
}
