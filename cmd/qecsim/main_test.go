package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/qecsim/internal/config"
	"github.com/verte-zerg/qecsim/internal/output"
	"github.com/verte-zerg/qecsim/internal/sweep"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCircuitCommandPrintsText(t *testing.T) {
	out, _, err := execute(t, "circuit", "--distance", "3", "--p", "0.1")
	require.NoError(t, err)
	assert.Contains(t, out, "CX 0 1")
	assert.Contains(t, out, "X_ERROR(0.1) 0 1 2")
	assert.Contains(t, out, "M 0 1 2")

	out, _, err = execute(t, "circuit", "--unprotected", "--basis", "phase-flip", "--p", "0.1", "--p-meas", "0.02")
	require.NoError(t, err)
	assert.Equal(t, "H 0\nZ_ERROR(0.1) 0\nH 0\nX_ERROR(0.02) 0\nM 0\n", out)
}

func TestCircuitCommandRejectsEvenDistance(t *testing.T) {
	_, _, err := execute(t, "circuit", "--distance", "4")
	require.Error(t, err)
}

func TestDemoCommand(t *testing.T) {
	out, _, err := execute(t, "demo", "--distance", "3", "--p", "0.05", "--shots", "2000",
		"--seed", "11", "--show-circuit", "--progress=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Circuit:")
	assert.Contains(t, out, "Bit-Flip Repetition Code, d=3")
	assert.Contains(t, out, "Shots: 2000")
	assert.Contains(t, out, "Syndromes:")
}

func TestDemoCommandValidatesBeforeSimulating(t *testing.T) {
	_, _, err := execute(t, "demo", "--distance", "2", "--seed", "1")
	require.ErrorIs(t, err, sweep.ErrInvalidConfig)

	_, _, err = execute(t, "demo", "--p", "1.5", "--seed", "1")
	require.ErrorIs(t, err, sweep.ErrInvalidConfig)

	_, _, err = execute(t, "demo", "--basis", "y", "--seed", "1")
	require.Error(t, err)
}

func TestConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
[simulation]
shots = 200
seed = 7

[demo]
distance = 3
p = 0.02
`)
	out, _, err := execute(t, "demo", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "d=3")
	assert.Contains(t, out, "Shots: 200")
	assert.Contains(t, out, "Physical error probability: 0.02")

	t.Setenv("QECSIM_SHOTS", "300")
	out, _, err = execute(t, "demo", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Shots: 300")

	out, _, err = execute(t, "demo", "--config", path, "--shots", "400", "--distance", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Shots: 400")
	assert.Contains(t, out, "d=5")
}

func TestConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[simulation]\nshotz = 5\n")
	_, _, err := execute(t, "demo", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestAnalyzeCommandWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	out, logs, err := execute(t, "analyze",
		"--distances", "3,5",
		"--probs", "0.01,0.1",
		"--shots", "1000",
		"--seed", "3",
		"--workers", "2",
		"--out", dir,
		"--no-png",
		"--progress=false",
		"--log-format", "json",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Bit-Flip Repetition Code Analysis")
	assert.Contains(t, out, "Key Findings")
	assert.Contains(t, out, "sweep.csv")
	assert.Equal(t, 4, strings.Count(logs, `"message":"point complete"`))

	for _, name := range []string{output.SweepCSVName, output.SummaryName} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
	f, err := os.Open(filepath.Join(dir, output.SummaryName))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	summary, err := output.ReadSummary(f)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), summary.Config.Seed)
	assert.Len(t, summary.Points, 4)
}

func TestAnalyzeCommandGeneratesRange(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "analyze",
		"--distances", "3",
		"--p-min", "0.01", "--p-max", "0.1", "--points", "3",
		"--shots", "500", "--seed", "1",
		"--out", dir, "--no-png", "--progress=false",
	)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, output.SummaryName))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	summary, err := output.ReadSummary(f)
	require.NoError(t, err)
	require.Len(t, summary.Config.Probs, 3)
	assert.InDelta(t, 0.01, summary.Config.Probs[0], 1e-12)
	assert.InDelta(t, 0.1, summary.Config.Probs[2], 1e-12)
}

func TestAnalyzeCommandRejectsConflictingProbs(t *testing.T) {
	_, _, err := execute(t, "analyze", "--probs", "0.1", "--p-min", "0.01", "--p-max", "0.1")
	require.Error(t, err)
}

func TestReadoutCommand(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "readout",
		"--distance", "3", "--p", "0.05",
		"--p-meas-list", "0,0.05",
		"--shots", "1000", "--seed", "9",
		"--out", dir, "--no-png", "--progress=false",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Measurement Error Impact (d=3, p=0.05)")
	_, err = os.Stat(filepath.Join(dir, output.ReadoutCSVName))
	require.NoError(t, err)
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	path := writeConfig(t, strings.Join(lines, "\n"))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Simulation.Shots)
	assert.Equal(t, defaultShots, *cfg.Simulation.Shots)
	require.NotNil(t, cfg.Simulation.Seed)
	assert.Equal(t, uint64(42), *cfg.Simulation.Seed)
	assert.Equal(t, []int{3, 5, 7}, cfg.Analyze.Distances)
	assert.Len(t, cfg.Readout.MeasurementProbs, 4)
	require.NotNil(t, cfg.Log.Format)
	assert.Equal(t, defaultLogFormat, *cfg.Log.Format)
}

func TestEnsureConfigFileKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qecsim", "config.toml")
	require.NoError(t, ensureConfigFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[simulation]")

	require.NoError(t, os.WriteFile(path, []byte("[demo]\n"), 0o644))
	require.NoError(t, ensureConfigFile(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[demo]\n", string(data))
}
