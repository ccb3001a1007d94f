package cli

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/okian/crewrate/internal/seed"
)

func newSeedCmd(_ *rootOptions) *cobra.Command {
	var cfg seed.Config

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load generated demo ratings into a running server",
		Long: `Generate ratings for a roster of demo workers using the server's live
categories and score scale, and submit them through POST /api/profiles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := seed.Run(cmd.Context(), cfg)
			if err != nil {
				return errors.Wrap(err, "seeding ratings")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %d ratings (%d new workers, %d failed) in %s\n",
				st.Submitted, st.Created, st.Failed, st.Duration.Round(time.Millisecond))
			if st.Failed > 0 {
				return errors.Errorf("%d of %d ratings failed", st.Failed, st.Submitted)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", seed.DefaultBaseURL, "Base URL of the crewrate server")
	f.IntVar(&cfg.Workers, "workers", seed.DefaultWorkers, "Number of distinct workers")
	f.IntVarP(&cfg.Ratings, "ratings", "n", seed.DefaultRatings, "Number of ratings to submit")
	f.IntVar(&cfg.Days, "days", seed.DefaultDays, "Spread ratings over this many past days")
	f.IntVar(&cfg.Concurrency, "concurrency", 0, "Concurrent submitters (default: 2x CPUs)")
	f.DurationVar(&cfg.Timeout, "timeout", seed.DefaultTimeout, "HTTP request timeout")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Random seed (0 picks one)")
	f.StringVarP(&cfg.OutputFile, "out", "o", "", "Also write the generated ratings to this JSON file")
	return cmd
}
