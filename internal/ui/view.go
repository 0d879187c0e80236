package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/stationboard/internal/board"
	"github.com/five82/stationboard/internal/display"
)

const (
	colDept = 7
	colEst  = 11
	colPlat = 6
	// borders and padding around four columns
	tableChrome = 5 + 4*2
)

// View renders the combined page.
func (m Model) View() string {
	now := m.view.Now
	if !m.hasView {
		now = time.Now()
	}

	sections := []string{m.renderHeader(now)}
	if departures := m.renderDepartures(); departures != "" {
		sections = append(sections, departures)
	}
	if strip := m.renderForecast(now); strip != "" {
		sections = append(sections, strip)
	}
	sections = append(sections, m.renderFooter(now))

	page := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Text)).
		MaxWidth(m.width).
		Render(page)
}

func (m Model) renderHeader(now time.Time) string {
	title := m.styles.Title.Render(m.opts.Title)
	if m.opts.Station != "" {
		title += m.styles.Clock.Render("  " + m.opts.Station)
	}
	clock := m.styles.Clock.Render(now.Format("15:04:05"))

	gap := m.width - 2 - lipgloss.Width(title) - lipgloss.Width(clock)
	if gap < 1 {
		gap = 1
	}
	filler := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Surface)).Render(strings.Repeat(" ", gap))
	return m.styles.Header.Width(m.width).Render(title + filler + clock)
}

// renderDepartures draws the table, or nothing while no departures have
// arrived yet.
func (m Model) renderDepartures() string {
	if !m.hasView || !m.view.HasServices || len(m.view.Services) == 0 {
		return ""
	}
	services := m.view.Services

	destWidth := m.width - colDept - colEst - colPlat - tableChrome
	if destWidth < 8 {
		destWidth = 8
	}

	rows := make([][]string, 0, len(services))
	for _, svc := range services {
		rows = append(rows, []string{
			svc.Scheduled,
			display.Truncate(svc.Destination, destWidth),
			svc.Estimated,
			display.Platform(svc),
		})
	}

	styles := m.styles
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Border).
		BorderRow(false).
		Headers("Dept", "Destination", "Est", "Plat").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader
			}
			if col == 2 && row >= 0 && row < len(services) {
				return estimateStyle(styles, services[row])
			}
			return styles.Text.Padding(0, 1)
		})
	return t.Render()
}

func estimateStyle(styles Styles, svc board.ServiceEntry) lipgloss.Style {
	switch {
	case svc.Cancelled():
		return styles.Cancelled
	case svc.OnTime():
		return styles.OnTime
	default:
		return styles.Late
	}
}

// renderForecast draws one box per forecast point, side by side.
func (m Model) renderForecast(now time.Time) string {
	if !m.hasView || len(m.view.Forecast) == 0 {
		return ""
	}
	boxes := make([]string, 0, len(m.view.Forecast))
	for _, p := range m.view.Forecast {
		body := lipgloss.JoinVertical(lipgloss.Center,
			m.styles.MutedText.Render(display.ForecastTime(p.Time, now)),
			display.Truncate(p.Description, 16),
			m.styles.Title.UnsetBackground().Render(display.Temperature(p.Temperature, m.opts.Units)),
		)
		boxes = append(boxes, m.styles.Forecast.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m Model) renderFooter(now time.Time) string {
	var status string
	if !m.hasView || m.view.LastUpdated.IsZero() {
		status = m.spinner.View() + " " + m.styles.MutedText.Render(display.Freshness(time.Time{}, now))
	} else {
		label := "updated " + display.Freshness(m.view.LastUpdated, now)
		if display.Stale(m.view.LastUpdated, now, m.opts.StaleAfter) {
			status = m.styles.Stale.Render(label)
		} else {
			status = m.styles.MutedText.Render(label)
		}
	}
	return m.styles.Footer.Render(fmt.Sprintf("%s   %s", status, m.help.View(m.keys)))
}
