package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vwapscan/internal/app"
	"vwapscan/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vwapscan",
		Short:        "Scan tickers for VWAP / anchored VWAP crossings, breakouts and reversals",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "YAML config file")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(scanCmd(), dailyCmd())
	return root
}

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the tickers that pass",
		Example: "  vwapscan scan --tickers AAPL,MSFT --screen avwap --anchor 2024-01-02\n" +
			"  vwapscan scan --tickers-file tickers.txt --screen breakout --lookback 20 --sort volume_increase --desc",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := initialize(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			_, err = app.RunOnce(cmd.Context(), a, cmd.OutOrStdout())
			return err
		},
	}
	app.RegisterFlags(cmd.Flags())
	return cmd
}

func dailyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Scan now, then again every day at --run-hour:--run-minute UTC until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := initialize(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			slog.Info("daily mode", "workers", a.Config.WorkerCount(), "run_hour", a.Config.RunHour, "run_minute", a.Config.RunMinute)
			return app.RunFlow(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
	app.RegisterFlags(cmd.Flags())
	d := app.DefaultConfig()
	cmd.Flags().Int("run-hour", d.RunHour, "UTC hour of the daily run")
	cmd.Flags().Int("run-minute", d.RunMinute, "UTC minute of the daily run")
	return cmd
}

func initialize(cmd *cobra.Command) (*app.App, func(), error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, nil, err
	}
	a, cleanup, err := InitializeApp(cmd.Context(), app.LoadOptions{ConfigPath: configPath, EnvFile: envFile}, cmd.Flags())
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return nil, nil, err
	}
	return a, cleanup, nil
}
