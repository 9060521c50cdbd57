package progress

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/sweep"
)

func progressFor(done, total int, coded, unprotected float64) sweep.Progress {
	return sweep.Progress{
		Done:  done,
		Total: total,
		Point: model.SweepPoint{
			Distance:        3,
			PhysicalProb:    0.1,
			Shots:           1000,
			LogicalRate:     coded,
			UnprotectedRate: unprotected,
		},
	}
}

func TestModelTracksPoints(t *testing.T) {
	m := NewModel("Sweep", 4, nil)
	assert.Zero(t, m.Percent())

	m.Update(PointMsg(progressFor(1, 4, 0.02, 0.1)))
	m.Update(PointMsg(progressFor(2, 4, 0.2, 0.1)))
	assert.InDelta(t, 0.5, m.Percent(), 1e-12)

	view := m.View()
	assert.Contains(t, view, "Sweep")
	assert.Contains(t, view, "2/4 points")
	assert.Contains(t, view, "coded 0.0200")
	assert.Contains(t, view, "ctrl+c to stop")
}

func TestModelKeepsRecentPoints(t *testing.T) {
	m := NewModel("Sweep", 10, nil)
	for i := 1; i <= 8; i++ {
		m.Update(PointMsg(progressFor(i, 10, float64(i)/1000, 0.1)))
	}
	assert.Len(t, m.recent, recentPoints)
	assert.Contains(t, m.recent[len(m.recent)-1], "coded 0.0080")
}

func TestModelQuitsWhenDone(t *testing.T) {
	m := NewModel("Sweep", 1, nil)
	_, cmd := m.Update(DoneMsg{Err: errors.New("boom")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "finished with errors")
}

func TestModelCancelsOnInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewModel("Sweep", 3, cancel)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Contains(t, m.View(), "interrupted")
}

func TestModelResizesBar(t *testing.T) {
	m := NewModel("Sweep", 1, nil)
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, maxBarWidth, m.bar.Width)
	m.Update(tea.WindowSizeMsg{Width: 30, Height: 40})
	assert.Equal(t, 26, m.bar.Width)
}

func TestRunFallsBackToLogLines(t *testing.T) {
	var logs bytes.Buffer
	var out bytes.Buffer
	err := Run(context.Background(), "analyzing", 2, Options{
		Interactive: true,
		Out:         &out,
		Log:         zerolog.New(&logs),
	}, func(ctx context.Context, onPoint func(sweep.Progress)) error {
		onPoint(progressFor(1, 2, 0.01, 0.1))
		onPoint(progressFor(2, 2, 0.02, 0.1))
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"message":"analyzing"`)
	assert.Contains(t, lines[2], `"done":2`)
	assert.Contains(t, lines[2], `"improved":true`)
}

func TestRunReturnsWorkError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), "analyzing", 1, Options{Log: zerolog.Nop()},
		func(ctx context.Context, onPoint func(sweep.Progress)) error { return boom })
	assert.ErrorIs(t, err, boom)
}
