package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/trace"
	"nifty-pulse/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "pulse",
		Short:         "NIFTY market pulse: price, option chain, news sentiment and a trend call",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(snapshotCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := initializeSystem(os.Stdout); err != nil {
				return err
			}
			defer shutdownTracer()

			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			dash, err := initializeDashboard(ctx, cfg)
			if err != nil {
				return err
			}

			srv, err := web.NewServer(web.Config{
				Addr:             cfg.Server.Addr,
				ChainPreviewRows: cfg.Server.ChainPreviewRows,
			}, dash)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func snapshotCmd(configPath *string) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render one snapshot and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// stdout carries the snapshot
			if err := initializeSystem(os.Stderr); err != nil {
				return err
			}
			defer shutdownTracer()

			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}

			dash, err := initializeDashboard(ctx, cfg)
			if err != nil {
				return err
			}

			snap, err := dash.Snapshot(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(snap)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func shutdownTracer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := trace.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "Failed to flush traces", "error", err)
	}
}
