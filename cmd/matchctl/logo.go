package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var logoHint string

var logoCmd = &cobra.Command{
	Use:   "logo <team>",
	Short: "Find or synthesize a team logo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res := orch.ResolveLogo(ctx, args[0], logoHint)
		if output == "json" {
			return printJSON(res)
		}
		fmt.Printf("%s (%s)\n", res.Path, res.Source)
		return nil
	},
}

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List upcoming fixtures in the configured leagues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		fixtures, err := orch.Upcoming(ctx)
		if err != nil {
			return fmt.Errorf("upcoming fixtures: %w", err)
		}
		if output == "json" {
			return printJSON(fixtures)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "LEAGUE\tHOME\tAWAY\tDATE\tTIME\n")
		for _, f := range fixtures {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.League, f.HomeName, f.AwayName, dash(f.Date), dash(f.Time))
		}
		w.Flush()
		fmt.Printf("\nTotal: %d fixtures\n", len(fixtures))
		return nil
	},
}

func init() {
	logoCmd.Flags().StringVar(&logoHint, "hint", "", "badge URL to try first")
}
