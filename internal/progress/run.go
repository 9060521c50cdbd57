package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/verte-zerg/qecsim/internal/sweep"
)

// Work runs a sweep, calling onPoint after every completed point.
type Work func(ctx context.Context, onPoint func(sweep.Progress)) error

// Options selects how progress is shown.
type Options struct {
	// Interactive requests the progress bar; it is ignored when Out is not a terminal.
	Interactive bool
	Out         io.Writer
	Log         zerolog.Logger
}

// Run executes work while showing progress.
func Run(ctx context.Context, title string, total int, opts Options, work Work) error {
	if !opts.Interactive || !isTerminal(opts.Out) {
		return runPlain(ctx, title, total, opts.Log, work)
	}
	return runInteractive(ctx, title, total, opts.Out, work)
}

func runPlain(ctx context.Context, title string, total int, log zerolog.Logger, work Work) error {
	log.Info().Int("points", total).Msg(title)
	return work(ctx, func(p sweep.Progress) {
		log.Info().
			Int("done", p.Done).
			Int("total", p.Total).
			Int("distance", p.Point.Distance).
			Float64("p", p.Point.PhysicalProb).
			Float64("p_meas", p.Point.MeasurementProb).
			Float64("logical_rate", p.Point.LogicalRate).
			Float64("unprotected_rate", p.Point.UnprotectedRate).
			Bool("improved", p.Point.Improved()).
			Msg("point complete")
	})
}

func runInteractive(ctx context.Context, title string, total int, out io.Writer, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(title, total, cancel)
	program := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))

	result := make(chan error, 1)
	go func() {
		err := work(ctx, func(p sweep.Progress) {
			program.Send(PointMsg(p))
		})
		program.Send(DoneMsg{Err: err})
		result <- err
	}()

	_, runErr := program.Run()
	cancel()
	workErr := <-result
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) && !errors.Is(runErr, context.Canceled) {
		return errors.Join(workErr, fmt.Errorf("failed to run progress view: %w", runErr))
	}
	return workErr
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
