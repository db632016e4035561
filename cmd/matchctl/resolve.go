package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	night     bool
	manual    string
	withLogos bool
	batchFile string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <home> <away>",
	Short: "Resolve the date and time of one match",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		req := domain.MatchRequest{Home: args[0], Away: args[1], NightRollback: night, Manual: manual}
		if !withLogos {
			return printFixtures([]domain.ResolvedFixture{orch.Resolve(ctx, req)})
		}

		fx, logos := orch.ResolveWithLogos(ctx, req)
		if output == "json" {
			return printJSON(map[string]interface{}{
				"fixture":   fx,
				"home_logo": logos[0],
				"away_logo": logos[1],
			})
		}
		if err := printFixtures([]domain.ResolvedFixture{fx}); err != nil {
			return err
		}
		fmt.Printf("\nhome logo: %s (%s)\naway logo: %s (%s)\n", logos[0].Path, logos[0].Source, logos[1].Path, logos[1].Source)
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve \"Home vs Away [odds]\" lines from a file or stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := io.Reader(os.Stdin)
		if batchFile != "" && batchFile != "-" {
			f, err := os.Open(batchFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		reqs, err := readMatchLines(in, night)
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			return fmt.Errorf("no matches to resolve")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		return printFixtures(orch.ResolveBatch(ctx, reqs))
	},
}

func init() {
	resolveCmd.Flags().BoolVarP(&night, "night", "n", false, "roll post-midnight kickoffs back to the previous day")
	resolveCmd.Flags().StringVarP(&manual, "manual", "m", "", "manual date and time, e.g. \"21:45 20 MART\"")
	resolveCmd.Flags().BoolVar(&withLogos, "logos", false, "also resolve both team logos")

	batchCmd.Flags().BoolVarP(&night, "night", "n", false, "roll post-midnight kickoffs back to the previous day")
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "-", "file with one match per line")
}

// readMatchLines parses one match per non-blank line. Lines starting with # are skipped.
func readMatchLines(r io.Reader, night bool) ([]domain.MatchRequest, error) {
	var reqs []domain.MatchRequest
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		home, away, err := pipeline.ParseMatchLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		reqs = append(reqs, domain.MatchRequest{Home: home, Away: away, NightRollback: night})
	}
	return reqs, sc.Err()
}

func printFixtures(fixtures []domain.ResolvedFixture) error {
	if output == "json" {
		return printJSON(fixtures)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "HOME\tAWAY\tDATE\tTIME\tSOURCE\n")
	for _, f := range fixtures {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.HomeName, f.AwayName, dash(f.Date), dash(f.Time), f.Source)
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
