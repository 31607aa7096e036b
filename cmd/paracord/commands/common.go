// Package commands implements the paracord CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/paracord/pkg/config"
	"github.com/Sumatoshi-tech/paracord/pkg/observability"
	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
	"github.com/Sumatoshi-tech/paracord/pkg/snapshot"
	"github.com/Sumatoshi-tech/paracord/pkg/version"
)

// Persistent flags defined on the root command.
const (
	FlagConfig  = "config"
	FlagVerbose = "verbose"
)

// runtimeEnv is what every subcommand needs: configuration, telemetry and a
// way to build interners from both.
type runtimeEnv struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
}

func setup(cmd *cobra.Command, mode observability.AppMode) (*runtimeEnv, error) {
	// Missing flags only happen when a subcommand runs without the root.
	path, _ := cmd.Flags().GetString(FlagConfig)
	verbose, _ := cmd.Flags().GetBool(FlagVerbose)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	obsCfg := cfg.Observability(mode, version.Version)
	if verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &runtimeEnv{cfg: cfg, providers: providers, logger: providers.Logger}, nil
}

func (e *runtimeEnv) close(ctx context.Context) {
	if err := e.providers.Shutdown(ctx); err != nil {
		e.logger.WarnContext(ctx, "observability shutdown failed", "error", err)
	}
}

// newInterner returns a configured interner, restored from the snapshot at
// from when from is non-empty.
func (e *runtimeEnv) newInterner(from string) (*paracord.Strings, error) {
	opts := e.cfg.InternerOptions(e.logger)

	if from == "" {
		return paracord.NewStrings(opts...), nil
	}

	strs, err := loadSnapshot(from, opts)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("snapshot restored", "path", from, "entries", strs.Len())

	return strs, nil
}

func loadSnapshot(path string, opts []paracord.Option) (*paracord.Strings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}

	defer f.Close()

	strs, err := snapshot.Read(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	return strs, nil
}

// saveSnapshot writes strs to path through a temporary file in the same
// directory, so a crash never leaves a partial snapshot behind.
func saveSnapshot(path string, strs *paracord.Strings) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".paracord-snapshot-*")
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}

	n, writeErr := snapshot.Write(tmp, strs)
	closeErr := tmp.Close()

	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())

		return 0, fmt.Errorf("write snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())

		return 0, fmt.Errorf("rename snapshot: %w", err)
	}

	return n, nil
}
