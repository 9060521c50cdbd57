package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/qecsim/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	edit := exec.CommandContext(cmd.Context(), parts[0], append(parts[1:], path)...)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the commented template unless a file already exists.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	env, err := config.ParseEnv()
	if err != nil {
		return "", err
	}
	return configPathFor(cmd, env), nil
}

// configPathFor prefers --config, then QECSIM_CONFIG, then the XDG default.
func configPathFor(cmd *cobra.Command, env config.EnvConfig) string {
	if cmd.Flags().Changed("config") && configPath != "" {
		return configPath
	}
	if env.ConfigPath != nil && *env.ConfigPath != "" {
		return *env.ConfigPath
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file and overlays QECSIM_* variables on it.
func loadConfig(cmd *cobra.Command) (config.FileConfig, error) {
	env, err := config.ParseEnv()
	if err != nil {
		return config.FileConfig{}, err
	}
	fileCfg, err := config.LoadConfig(configPathFor(cmd, env))
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg.Merge(env), nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// applyUint64Config reports whether target ends up explicitly set.
func applyUint64Config(cmd *cobra.Command, name string, target, value *uint64) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	if value == nil {
		return false
	}
	*target = *value
	return true
}

func applySliceConfig[T any](cmd *cobra.Command, name string, target *[]T, value []T) {
	if len(value) == 0 {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# qecsim configuration
# Uncomment a value to enable it. QECSIM_* variables override the file,
# CLI flags override both.

[simulation]
# shots = %d           # Monte Carlo shots per point
# basis = %q     # bit-flip or phase-flip
# decoder = %q   # majority or syndrome
# seed = 42               # Fixed seed for reproducible runs (default: time based)
# workers = 4             # Concurrent sampling workers (default: CPU count)
# confidence = %.2f       # Confidence level of error bars
# p-meas = 0.0            # Measurement error probability

[demo]
# distance = %d
# p = %g

[analyze]
# distances = [3, 5, 7]
# probs = [0.001, 0.01, 0.05, 0.1, 0.2]
# p-min = 0.001           # Generated range, used when probs is unset
# p-max = 0.2
# points = %d
# spacing = %q         # log or linear

[readout]
# distance = %d
# p = %g
# p-meas-list = [0.0, 0.01, 0.02, 0.05]

[output]
# dir = %q
# no-png = false

[log]
# level = %q
# format = %q     # console or json
# progress = true
`,
		defaultShots,
		defaultBasis,
		defaultDecoder,
		defaultConfidence,
		defaultDistance,
		defaultDemoProb,
		defaultPoints,
		defaultSpacing,
		defaultDistance,
		defaultReadoutProb,
		defaultOutDir,
		defaultLogLevel,
		defaultLogFormat,
	)
}
