// Package progress shows sweep progress as a Bubble Tea bar or as log lines.
package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/qecsim/internal/stats"
	"github.com/verte-zerg/qecsim/internal/sweep"
)

const (
	maxBarWidth  = 60
	recentPoints = 5
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	pointStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// PointMsg reports a completed point to the model.
type PointMsg sweep.Progress

// DoneMsg ends the program.
type DoneMsg struct {
	Err error
}

// Model implements the Bubble Tea progress view.
type Model struct {
	title  string
	total  int
	done   int
	bar    progress.Model
	recent []string
	cancel context.CancelFunc

	finished    bool
	interrupted bool
	err         error
}

// NewModel constructs a progress model for total points. cancel is invoked when
// the user interrupts.
func NewModel(title string, total int, cancel context.CancelFunc) *Model {
	return &Model{
		title:  title,
		total:  total,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel: cancel,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil
	case PointMsg:
		m.done = msg.Done
		if msg.Total > 0 {
			m.total = msg.Total
		}
		m.recent = append(m.recent, describePoint(sweep.Progress(msg)))
		if len(m.recent) > recentPoints {
			m.recent = m.recent[len(m.recent)-recentPoints:]
		}
		return m, nil
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(fmt.Sprintf("  %d/%d points\n", m.done, m.total))
	for _, line := range m.recent {
		b.WriteString(line)
		b.WriteString("\n")
	}
	switch {
	case m.interrupted:
		b.WriteString(badStyle.Render("interrupted"))
		b.WriteString("\n")
	case m.finished && m.err != nil:
		b.WriteString(badStyle.Render("finished with errors"))
		b.WriteString("\n")
	case !m.finished:
		b.WriteString(footerStyle.Render("ctrl+c to stop"))
		b.WriteString("\n")
	}
	return b.String()
}

// Percent returns the completed fraction.
func (m *Model) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return min(float64(m.done)/float64(m.total), 1)
}

func describePoint(p sweep.Progress) string {
	pt := p.Point
	line := fmt.Sprintf("d=%d p=%g p_meas=%g  coded %s  unprotected %s",
		pt.Distance, pt.PhysicalProb, pt.MeasurementProb,
		stats.FormatRate(pt.LogicalRate), stats.FormatRate(pt.UnprotectedRate))
	marker := badStyle.Render("✗")
	if pt.Improved() {
		marker = goodStyle.Render("✓")
	}
	return marker + " " + pointStyle.Render(line)
}
