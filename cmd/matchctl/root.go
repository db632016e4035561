package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	fxmodules "github.com/fortuna/matchday/internal/fx"
	"github.com/fortuna/matchday/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var (
	output  string
	timeout time.Duration

	app  *fx.App
	orch *pipeline.Orchestrator
)

var rootCmd = &cobra.Command{
	Use:           "matchctl",
	Short:         "Resolve fixture dates and team logos from the command line",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		app = fx.New(
			fxmodules.Module,
			fx.NopLogger,
			fx.Populate(&orch),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.Start(ctx); err != nil {
			return fmt.Errorf("startup failed: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Stop(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: json, table")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout per command")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(logoCmd)
	rootCmd.AddCommand(upcomingCmd)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
