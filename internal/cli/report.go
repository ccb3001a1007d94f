package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/okian/crewrate/internal/report"
)

func newReportCmd(o *rootOptions) *cobra.Command {
	var in, from, file string
	var categories bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize ratings per worker and category with DuckDB",
		Long: `Aggregate an NDJSON rating export per worker and per worker and category.
Without --in the profiles are exported to a temporary file first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			path := in
			if path == "" {
				profiles, err := loadProfiles(ctx, o, from, file)
				if err != nil {
					return err
				}
				lines := exportLines(profiles)
				if len(lines) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no ratings")
					return nil
				}
				dir, err := os.MkdirTemp("", "crewrate-report-")
				if err != nil {
					return errors.Wrap(err, "creating temp dir")
				}
				defer os.RemoveAll(dir)

				path = filepath.Join(dir, "ratings.ndjson")
				f, err := os.Create(path)
				if err != nil {
					return errors.Wrap(err, "creating export file")
				}
				err = report.WriteNDJSON(f, lines)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return errors.Wrap(err, "writing export file")
				}
			}

			db, err := report.Open(ctx)
			if err != nil {
				return errors.Wrap(err, "starting duckdb")
			}
			defer db.Close()

			sum, err := db.Summarize(ctx, path, o.cfg.Rules().Thresholds)
			if errors.Is(err, report.ErrNoRatings) {
				fmt.Fprintln(cmd.OutOrStdout(), "no ratings")
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "summarizing ratings")
			}
			return printSummary(cmd.OutOrStdout(), sum, categories)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in, "in", "i", "", "NDJSON export to read (default: export from --from)")
	f.StringVar(&from, "from", sourceDB, "Profile source when --in is not set: db or snapshot")
	f.StringVarP(&file, "file", "f", "", "Snapshot file when --from=snapshot")
	f.BoolVar(&categories, "categories", false, "Also print the per-category breakdown")
	return cmd
}

func printSummary(out io.Writer, sum report.Summary, categories bool) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKER\tRATINGS\tMEAN\tSTATUS\tFIRST\tLAST")
	for _, w := range sum.Workers {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\t%s\t%s\n", w.Worker, w.Ratings, w.Mean, w.Status, w.First, w.Last)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !categories {
		return nil
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKER\tCATEGORY\tRATINGS\tMEAN\tMIN\tMAX")
	for _, c := range sum.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%g\t%g\n", c.Worker, c.Category, c.Ratings, c.Mean, c.Min, c.Max)
	}
	return tw.Flush()
}
