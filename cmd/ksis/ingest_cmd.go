package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	service "github.com/matteohorvath/ksis/internal/app"
	"github.com/matteohorvath/ksis/internal/domain/ingest"
	"github.com/spf13/cobra"
)

func newIngestCmd(o *options) *cobra.Command {
	var (
		resultsDir string
		dataDir    string
		db         string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest every raw competition file once",
		Long: "Scans the results and data directories, ingests all results before any marks, " +
			"and prints one line per competition. Per-row problems are warnings; the exit code " +
			"is non-zero only when the run itself fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(&o.cfg.ResultsDir, resultsDir)
			override(&o.cfg.DataDir, dataDir)
			override(&o.cfg.DatabasePath, db)

			ctx := cmd.Context()
			svc, err := service.New(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer svc.Stop(ctx)

			report, err := svc.Ingest(ctx)
			if report != nil {
				var werr error
				if asJSON {
					werr = writeJSON(o.out, report)
				} else {
					werr = printReport(o.out, report)
				}
				if err == nil {
					err = werr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&resultsDir, "results-dir", "", "Directory of results files (overrides results_dir)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory of marks files (overrides data_dir)")
	cmd.Flags().StringVar(&db, "db", "", "SQLite database path (overrides database_path)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full run report as JSON")
	return cmd
}

// printReport writes one row per competition followed by the run totals.
func printReport(w io.Writer, r *ingest.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s\n", r.RunID)
	fmt.Fprintln(tw, "ID\tSTAGE\tPROCESSED\tSKIPPED\tWARNINGS\tSOURCE")
	for _, c := range r.Competitions {
		stage := c.Stage.String()
		switch {
		case c.Deferred:
			stage = "deferred"
		case c.FailedAt != nil:
			stage = "failed at " + c.FailedAt.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
			c.CompetitionID, stage, sum(c.Processed), sum(c.Skipped), len(c.Warnings), c.Source)
	}
	t := r.Totals
	fmt.Fprintf(tw, "\ncompetitions %d\tdone %d\tfailed %d\tdeferred %d\twarnings %d\n",
		t.Competitions, t.Done, t.Failed, t.Deferred, t.Warnings)
	for _, k := range sortedKinds(t.Processed, t.Skipped) {
		fmt.Fprintf(tw, "  %s\tprocessed %d\tskipped %d\n", k, t.Processed[k], t.Skipped[k])
	}
	return tw.Flush()
}

func sum(m map[repository.Kind]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func sortedKinds(maps ...map[repository.Kind]int) []repository.Kind {
	seen := make(map[repository.Kind]bool)
	var out []repository.Kind
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
