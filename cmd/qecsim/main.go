package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/qecsim/internal/code"
	"github.com/verte-zerg/qecsim/internal/config"
	"github.com/verte-zerg/qecsim/internal/decoder"
	"github.com/verte-zerg/qecsim/internal/logging"
	"github.com/verte-zerg/qecsim/internal/model"
	"github.com/verte-zerg/qecsim/internal/noise"
	"github.com/verte-zerg/qecsim/internal/output"
	"github.com/verte-zerg/qecsim/internal/progress"
	"github.com/verte-zerg/qecsim/internal/stabilizer"
	"github.com/verte-zerg/qecsim/internal/stats"
	"github.com/verte-zerg/qecsim/internal/sweep"
)

const (
	defaultDistance     = 5
	defaultDemoProb     = 0.1
	defaultReadoutProb  = 0.05
	defaultShots        = 10000
	defaultBasis        = string(model.BasisBitFlip)
	defaultDecoder      = string(model.DecoderMajority)
	defaultOutDir       = "results"
	defaultConfidence   = 0.95
	defaultPoints       = 8
	defaultSpacing      = string(sweep.SpacingLog)
	defaultLogLevel     = "info"
	defaultLogFormat    = string(logging.FormatConsole)
	syndromeSampleShots = 1000
)

var defaultDistances = []int{3, 5, 7}

var (
	logLevel   string
	logFormat  string
	showBar    bool
	configPath string

	demoDistance    int
	demoProb        float64
	demoMeasProb    float64
	demoShots       int
	demoBasis       string
	demoDecoder     string
	demoSeed        uint64
	demoShowCircuit bool

	analyzeDistances  []int
	analyzeProbs      []float64
	analyzePMin       float64
	analyzePMax       float64
	analyzePoints     int
	analyzeSpacing    string
	analyzeShots      int
	analyzeBasis      string
	analyzeMeasProb   float64
	analyzeDecoder    string
	analyzeOut        string
	analyzeNoPNG      bool
	analyzeWorkers    int
	analyzeSeed       uint64
	analyzeConfidence float64

	readoutDistance  int
	readoutProb      float64
	readoutMeasProbs []float64
	readoutShots     int
	readoutBasis     string
	readoutDecoder   string
	readoutOut       string
	readoutNoPNG     bool
	readoutWorkers   int
	readoutSeed      uint64

	circuitDistance    int
	circuitBasis       string
	circuitProb        float64
	circuitMeasProb    float64
	circuitUnprotected bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "qecsim",
		Short:         "Repetition-code error correction simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", defaultLogFormat, "log format (console or json)")
	cmd.PersistentFlags().BoolVar(&showBar, "progress", true, "show a progress bar when stdout is a terminal")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/qecsim/config.toml)")

	cmd.AddCommand(newDemoCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newReadoutCmd())
	cmd.AddCommand(newCircuitCmd())
	cmd.AddCommand(newConfigCmd())
	return cmd
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Compare one protected qubit with an unprotected one",
		Args:  cobra.NoArgs,
		RunE:  runDemoCmd,
	}
	cmd.Flags().IntVar(&demoDistance, "distance", defaultDistance, "code distance (odd, >= 3)")
	cmd.Flags().Float64Var(&demoProb, "p", defaultDemoProb, "physical error probability")
	cmd.Flags().Float64Var(&demoMeasProb, "p-meas", 0, "measurement error probability")
	cmd.Flags().IntVar(&demoShots, "shots", defaultShots, "Monte Carlo shots")
	cmd.Flags().StringVar(&demoBasis, "basis", defaultBasis, "bit-flip or phase-flip")
	cmd.Flags().StringVar(&demoDecoder, "decoder", defaultDecoder, "majority or syndrome")
	cmd.Flags().Uint64Var(&demoSeed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().BoolVar(&demoShowCircuit, "show-circuit", false, "print the noisy circuit")
	return cmd
}

func runDemoCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "distance", &demoDistance, cfg.Demo.Distance)
	applyFloatConfig(cmd, "p", &demoProb, cfg.Demo.PhysicalProb)
	applyFloatConfig(cmd, "p-meas", &demoMeasProb, cfg.Simulation.MeasurementProb)
	applyIntConfig(cmd, "shots", &demoShots, cfg.Simulation.Shots)
	applyStringConfig(cmd, "basis", &demoBasis, cfg.Simulation.Basis)
	applyStringConfig(cmd, "decoder", &demoDecoder, cfg.Simulation.Decoder)
	seedSet := applyUint64Config(cmd, "seed", &demoSeed, cfg.Simulation.Seed)

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	basis, kind, err := parseKinds(demoBasis, demoDecoder)
	if err != nil {
		return err
	}
	demo := model.DemoConfig{
		Distance:        demoDistance,
		Basis:           basis,
		PhysicalProb:    demoProb,
		MeasurementProb: demoMeasProb,
		Shots:           demoShots,
		Decoder:         kind,
		Seed:            resolveSeed(log, demoSeed, seedSet),
	}
	if err := sweep.ValidateDemo(demo); err != nil {
		return err
	}

	ctx := cmd.Context()
	sampler := stabilizer.NewSimulator()
	runner := sweep.NewRunner(sampler, log)
	point, err := runner.Demo(ctx, demo)
	if err != nil {
		return fmt.Errorf("failed to run demo: %w", err)
	}

	rep, err := code.New(demo.Distance, demo.Basis)
	if err != nil {
		return err
	}
	circuit, err := rep.Circuit(noise.Params{Physical: demo.PhysicalProb, Measurement: demo.MeasurementProb})
	if err != nil {
		return err
	}
	samples, err := sampler.Sample(ctx, circuit, min(demo.Shots, syndromeSampleShots), demo.Seed)
	if err != nil {
		return fmt.Errorf("failed to sample syndromes: %w", err)
	}
	syndromes, err := decoder.AnalyzeSyndromes(samples, rep.Layout())
	if err != nil {
		return fmt.Errorf("failed to analyze syndromes: %w", err)
	}

	out := cmd.OutOrStdout()
	if demoShowCircuit {
		if _, err := fmt.Fprintf(out, "Circuit:\n%s\n", circuit.String()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return stats.RenderDemo(out, point, &syndromes)
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Sweep code distances and physical error rates",
		Args:  cobra.NoArgs,
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().IntSliceVar(&analyzeDistances, "distances", defaultDistances, "code distances")
	cmd.Flags().Float64SliceVar(&analyzeProbs, "probs", nil, "physical error probabilities (default: built-in list)")
	cmd.Flags().Float64Var(&analyzePMin, "p-min", 0, "lowest probability of a generated range")
	cmd.Flags().Float64Var(&analyzePMax, "p-max", 0, "highest probability of a generated range")
	cmd.Flags().IntVar(&analyzePoints, "points", defaultPoints, "number of probabilities in a generated range")
	cmd.Flags().StringVar(&analyzeSpacing, "spacing", defaultSpacing, "range spacing (log or linear)")
	cmd.Flags().IntVar(&analyzeShots, "shots", defaultShots, "Monte Carlo shots per point")
	cmd.Flags().StringVar(&analyzeBasis, "basis", defaultBasis, "bit-flip or phase-flip")
	cmd.Flags().Float64Var(&analyzeMeasProb, "p-meas", 0, "measurement error probability")
	cmd.Flags().StringVar(&analyzeDecoder, "decoder", defaultDecoder, "majority or syndrome")
	cmd.Flags().StringVar(&analyzeOut, "out", defaultOutDir, "results directory")
	cmd.Flags().BoolVar(&analyzeNoPNG, "no-png", false, "skip PNG charts")
	cmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "concurrent sampling workers (default: CPU count)")
	cmd.Flags().Uint64Var(&analyzeSeed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().Float64Var(&analyzeConfidence, "confidence", defaultConfidence, "confidence level of the error bars")
	cmd.MarkFlagsMutuallyExclusive("probs", "p-min")
	cmd.MarkFlagsMutuallyExclusive("probs", "p-max")
	cmd.MarkFlagsRequiredTogether("p-min", "p-max")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applySliceConfig(cmd, "distances", &analyzeDistances, cfg.Analyze.Distances)
	applySliceConfig(cmd, "probs", &analyzeProbs, cfg.Analyze.Probs)
	applyFloatConfig(cmd, "p-min", &analyzePMin, cfg.Analyze.PMin)
	applyFloatConfig(cmd, "p-max", &analyzePMax, cfg.Analyze.PMax)
	applyIntConfig(cmd, "points", &analyzePoints, cfg.Analyze.Points)
	applyStringConfig(cmd, "spacing", &analyzeSpacing, cfg.Analyze.Spacing)
	applyIntConfig(cmd, "shots", &analyzeShots, cfg.Simulation.Shots)
	applyStringConfig(cmd, "basis", &analyzeBasis, cfg.Simulation.Basis)
	applyFloatConfig(cmd, "p-meas", &analyzeMeasProb, cfg.Simulation.MeasurementProb)
	applyStringConfig(cmd, "decoder", &analyzeDecoder, cfg.Simulation.Decoder)
	applyStringConfig(cmd, "out", &analyzeOut, cfg.Output.Dir)
	applyBoolConfig(cmd, "no-png", &analyzeNoPNG, cfg.Output.NoPNG)
	applyIntConfig(cmd, "workers", &analyzeWorkers, cfg.Simulation.Workers)
	applyFloatConfig(cmd, "confidence", &analyzeConfidence, cfg.Simulation.Confidence)
	seedSet := applyUint64Config(cmd, "seed", &analyzeSeed, cfg.Simulation.Seed)

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	basis, kind, err := parseKinds(analyzeBasis, analyzeDecoder)
	if err != nil {
		return err
	}
	probs, err := resolveProbs(cmd)
	if err != nil {
		return err
	}
	sweepCfg := model.SweepConfig{
		Distances:       analyzeDistances,
		Probs:           probs,
		MeasurementProb: analyzeMeasProb,
		Basis:           basis,
		Shots:           analyzeShots,
		Decoder:         kind,
		Seed:            resolveSeed(log, analyzeSeed, seedSet),
		Workers:         analyzeWorkers,
		Confidence:      analyzeConfidence,
	}
	if err := sweep.ValidateSweep(sweepCfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderSweepConfig(out, sweepCfg); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	var result *sweep.Result
	total := len(sweepCfg.Distances) * len(sweepCfg.Probs)
	sweepErr := progress.Run(cmd.Context(), "Analyzing repetition codes", total, progressOptions(cmd, log),
		func(ctx context.Context, onPoint func(sweep.Progress)) error {
			runner := sweep.NewRunner(stabilizer.NewSimulator(), log,
				sweep.WithWorkers(sweepCfg.Workers), sweep.WithProgress(onPoint))
			var err error
			result, err = runner.Sweep(ctx, sweepCfg)
			return err
		})
	if result == nil {
		return sweepErr
	}
	if sweepErr != nil {
		log.Warn().Err(sweepErr).Int("completed", result.Len()).Int("total", total).Msg("sweep incomplete")
	}

	report := stats.BuildReport(result)
	if err := stats.RenderReport(out, report, stats.RenderOptions{}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if result.Len() == 0 {
		return sweepErr
	}
	files, err := output.WriteSweep(report, output.Options{Dir: analyzeOut, NoPNG: analyzeNoPNG, Log: log})
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := listFiles(cmd, files); err != nil {
		return err
	}
	return sweepErr
}

func newReadoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readout",
		Short: "Sweep the measurement error probability",
		Args:  cobra.NoArgs,
		RunE:  runReadoutCmd,
	}
	cmd.Flags().IntVar(&readoutDistance, "distance", defaultDistance, "code distance (odd, >= 3)")
	cmd.Flags().Float64Var(&readoutProb, "p", defaultReadoutProb, "physical error probability")
	cmd.Flags().Float64SliceVar(&readoutMeasProbs, "p-meas-list", sweep.DefaultMeasurementProbs, "measurement error probabilities")
	cmd.Flags().IntVar(&readoutShots, "shots", defaultShots, "Monte Carlo shots per point")
	cmd.Flags().StringVar(&readoutBasis, "basis", defaultBasis, "bit-flip or phase-flip")
	cmd.Flags().StringVar(&readoutDecoder, "decoder", defaultDecoder, "majority or syndrome")
	cmd.Flags().StringVar(&readoutOut, "out", defaultOutDir, "results directory")
	cmd.Flags().BoolVar(&readoutNoPNG, "no-png", false, "skip PNG charts")
	cmd.Flags().IntVar(&readoutWorkers, "workers", 0, "concurrent sampling workers (default: CPU count)")
	cmd.Flags().Uint64Var(&readoutSeed, "seed", 0, "random seed (default: time based)")
	return cmd
}

func runReadoutCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "distance", &readoutDistance, cfg.Readout.Distance)
	applyFloatConfig(cmd, "p", &readoutProb, cfg.Readout.PhysicalProb)
	applySliceConfig(cmd, "p-meas-list", &readoutMeasProbs, cfg.Readout.MeasurementProbs)
	applyIntConfig(cmd, "shots", &readoutShots, cfg.Simulation.Shots)
	applyStringConfig(cmd, "basis", &readoutBasis, cfg.Simulation.Basis)
	applyStringConfig(cmd, "decoder", &readoutDecoder, cfg.Simulation.Decoder)
	applyStringConfig(cmd, "out", &readoutOut, cfg.Output.Dir)
	applyBoolConfig(cmd, "no-png", &readoutNoPNG, cfg.Output.NoPNG)
	applyIntConfig(cmd, "workers", &readoutWorkers, cfg.Simulation.Workers)
	seedSet := applyUint64Config(cmd, "seed", &readoutSeed, cfg.Simulation.Seed)

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	basis, kind, err := parseKinds(readoutBasis, readoutDecoder)
	if err != nil {
		return err
	}
	readoutCfg := model.ReadoutConfig{
		Distance:         readoutDistance,
		PhysicalProb:     readoutProb,
		MeasurementProbs: readoutMeasProbs,
		Basis:            basis,
		Shots:            readoutShots,
		Decoder:          kind,
		Seed:             resolveSeed(log, readoutSeed, seedSet),
		Workers:          readoutWorkers,
	}
	if cfg.Simulation.Confidence != nil {
		readoutCfg.Confidence = *cfg.Simulation.Confidence
	}
	if err := sweep.ValidateReadout(readoutCfg); err != nil {
		return err
	}

	var points []model.SweepPoint
	runErr := progress.Run(cmd.Context(), "Measuring readout impact", len(readoutCfg.MeasurementProbs), progressOptions(cmd, log),
		func(ctx context.Context, onPoint func(sweep.Progress)) error {
			runner := sweep.NewRunner(stabilizer.NewSimulator(), log,
				sweep.WithWorkers(readoutCfg.Workers), sweep.WithProgress(onPoint))
			var err error
			points, err = runner.Readout(ctx, readoutCfg)
			return err
		})
	if runErr != nil && len(points) == 0 {
		return runErr
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderReadout(out, points, stats.RenderOptions{}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	files, err := output.WriteReadout(points, output.Options{Dir: readoutOut, NoPNG: readoutNoPNG, Log: log})
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := listFiles(cmd, files); err != nil {
		return err
	}
	return runErr
}

func newCircuitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circuit",
		Short: "Print the noisy circuit in text form",
		Args:  cobra.NoArgs,
		RunE:  runCircuitCmd,
	}
	cmd.Flags().IntVar(&circuitDistance, "distance", defaultDistance, "code distance (odd, >= 3)")
	cmd.Flags().StringVar(&circuitBasis, "basis", defaultBasis, "bit-flip or phase-flip")
	cmd.Flags().Float64Var(&circuitProb, "p", defaultDemoProb, "physical error probability")
	cmd.Flags().Float64Var(&circuitMeasProb, "p-meas", 0, "measurement error probability")
	cmd.Flags().BoolVar(&circuitUnprotected, "unprotected", false, "print the single-qubit baseline instead")
	return cmd
}

func runCircuitCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "distance", &circuitDistance, cfg.Demo.Distance)
	applyStringConfig(cmd, "basis", &circuitBasis, cfg.Simulation.Basis)
	applyFloatConfig(cmd, "p", &circuitProb, cfg.Demo.PhysicalProb)
	applyFloatConfig(cmd, "p-meas", &circuitMeasProb, cfg.Simulation.MeasurementProb)

	basis, err := model.ParseBasis(circuitBasis)
	if err != nil {
		return err
	}
	params := noise.Params{Physical: circuitProb, Measurement: circuitMeasProb}
	var circuit *stabilizer.Circuit
	if circuitUnprotected {
		circuit, err = code.Unprotected(basis, params)
	} else {
		var rep code.RepetitionCode
		rep, err = code.New(circuitDistance, basis)
		if err == nil {
			circuit, err = rep.Circuit(params)
		}
	}
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), circuit.String()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func parseKinds(basis, dec string) (model.Basis, model.DecoderKind, error) {
	b, err := model.ParseBasis(basis)
	if err != nil {
		return "", "", err
	}
	k, err := model.ParseDecoderKind(dec)
	if err != nil {
		return "", "", err
	}
	return b, k, nil
}

// resolveProbs picks the explicit list, then a generated range, then the defaults.
func resolveProbs(cmd *cobra.Command) ([]float64, error) {
	if len(analyzeProbs) > 0 && !cmd.Flags().Changed("p-min") {
		return analyzeProbs, nil
	}
	if analyzePMin > 0 || analyzePMax > 0 {
		probs, err := sweep.ProbRange(analyzePMin, analyzePMax, analyzePoints, sweep.Spacing(analyzeSpacing))
		if err != nil {
			return nil, fmt.Errorf("invalid probability range: %w", err)
		}
		return probs, nil
	}
	return sweep.DefaultProbs, nil
}

// resolveSeed draws a time based seed when none was configured and logs it so the
// run can be repeated.
func resolveSeed(log zerolog.Logger, seed uint64, set bool) uint64 {
	if set {
		return seed
	}
	seed = uint64(time.Now().UnixNano())
	log.Info().Uint64("seed", seed).Msg("using random seed")
	return seed
}

func newLogger(cmd *cobra.Command, cfg config.FileConfig) (zerolog.Logger, error) {
	applyStringConfig(cmd, "log-level", &logLevel, cfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, cfg.Log.Format)
	applyBoolConfig(cmd, "progress", &showBar, cfg.Log.Progress)
	log, err := logging.New(logging.Config{
		Level:  logLevel,
		Format: logging.Format(logFormat),
		Out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid logging config: %w", err)
	}
	return log, nil
}

func progressOptions(cmd *cobra.Command, log zerolog.Logger) progress.Options {
	return progress.Options{
		Interactive: showBar,
		Out:         cmd.OutOrStdout(),
		Log:         log,
	}
}

func listFiles(cmd *cobra.Command, files []string) error {
	if len(files) == 0 {
		return nil
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, "\nWrote:"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, f := range files {
		if _, err := fmt.Fprintf(out, "  %s\n", f); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
