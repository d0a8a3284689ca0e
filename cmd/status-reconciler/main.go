package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Apurer/go-gin-procurement-api/internal/app/api"
	consistencymapper "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/http/mapper"
	consistencydomain "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	consistencyports "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	platformobservability "github.com/Apurer/go-gin-procurement-api/internal/platform/observability"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var timeout time.Duration
	root := &cobra.Command{
		Use:          "status-reconciler",
		Short:        "detect and repair requisitions whose status lags behind their line items",
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "maximum time for one run")
	root.AddCommand(
		scanCommand(&timeout),
		fixCommand(&timeout),
		correctionsCommand(&timeout),
	)
	return root
}

func scanCommand(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "report inconsistent requisitions without changing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMonitor(cmd.Context(), *timeout, func(ctx context.Context, monitor consistencyports.Monitor) error {
				report, err := monitor.Scan(ctx, consistencyports.ScanOptions{DryRun: true, Source: consistencydomain.SourceCLI})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), consistencymapper.FromReport(report))
			})
		},
	}
}

func fixCommand(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "repair inconsistent requisitions and record a correction for each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMonitor(cmd.Context(), *timeout, func(ctx context.Context, monitor consistencyports.Monitor) error {
				report, err := monitor.Scan(ctx, consistencyports.ScanOptions{Source: consistencydomain.SourceCLI})
				if err != nil {
					return err
				}
				if err := writeJSON(cmd.OutOrStdout(), consistencymapper.FromReport(report)); err != nil {
					return err
				}
				if len(report.Failures) > 0 {
					return fmt.Errorf("%d requisitions could not be repaired", len(report.Failures))
				}
				return nil
			})
		},
	}
}

func correctionsCommand(timeout *time.Duration) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "corrections",
		Short: "list the most recent automatic corrections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMonitor(cmd.Context(), *timeout, func(ctx context.Context, monitor consistencyports.Monitor) error {
				list, err := monitor.Corrections(ctx, limit)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), consistencymapper.FromCorrections(list))
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "number of corrections to list")
	return cmd
}

// withMonitor wires the monitor against Postgres. Reconciling an in-memory
// store from a one-shot process would be meaningless, so a missing database fails.
func withMonitor(parent context.Context, timeout time.Duration, run func(context.Context, consistencyports.Monitor) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN not set; cannot reconcile statuses")
	}
	instruments := &platformobservability.Instruments{Logger: slog.New(slog.NewTextHandler(os.Stderr, nil))}
	components, cleanup, err := api.BuildComponents(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer cleanup()
	if !components.Durable {
		return errors.New("postgres connection failed; cannot reconcile statuses")
	}
	return run(ctx, components.Monitor)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
