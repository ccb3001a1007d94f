package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/okian/crewrate/internal/adapters/snapshot"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/internal/domain/scoring"
)

var localTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", time.DateOnly}

type localOptions struct {
	*rootOptions
	file string
}

func (o *localOptions) store() *snapshot.FileStore {
	path := o.file
	if path == "" {
		path = o.cfg.SnapshotPath
	}
	return snapshot.New(path,
		snapshot.WithKey(o.cfg.SnapshotKey),
		snapshot.WithRules(o.cfg.Rules),
	)
}

func newLocalCmd(root *rootOptions) *cobra.Command {
	o := &localOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Work with profiles in the local snapshot file",
		Long: `Rate, inspect and reset worker profiles kept in a single JSON snapshot
file, without a server or database.`,
	}
	cmd.PersistentFlags().StringVarP(&o.file, "file", "f", "", "Snapshot file (overrides config snapshot_path)")

	cmd.AddCommand(newLocalRateCmd(o), newLocalShowCmd(o), newLocalResetCmd(o))
	return cmd
}

func newLocalRateCmd(o *localOptions) *cobra.Command {
	var reviewer, note, at string

	cmd := &cobra.Command{
		Use:   "rate NAME CATEGORY SCORE",
		Short: "Record a rating in the snapshot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errors.Errorf("score %q is not a number", args[2])
			}
			ratedAt := time.Now().UTC()
			if at != "" {
				if ratedAt, err = parseLocalTime(at); err != nil {
					return err
				}
			}

			r := model.Rating{
				WorkerName: args[0],
				Category:   args[1],
				Score:      score,
				Reviewer:   reviewer,
				Note:       note,
				RatedAt:    ratedAt,
			}
			p, created, err := profile.Submit(cmd.Context(), o.store(), r, o.cfg.Rules())
			if err != nil {
				return errors.Wrap(err, "recording rating")
			}

			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s profile %s: overall %.2f (%s)\n",
				verb, p.Name, p.OverallScore, p.OverallStatus)
			return nil
		},
	}
	cmd.Flags().StringVarP(&reviewer, "reviewer", "r", "", "Reviewer name")
	cmd.Flags().StringVarP(&note, "note", "m", "", "Free-text note")
	cmd.Flags().StringVar(&at, "at", "", "Rating time, YYYY-MM-DD or RFC3339 (default: now)")
	return cmd
}

func newLocalShowCmd(o *localOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [NAME]",
		Short: "List profiles, or show one in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := o.store().Load(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "loading snapshot")
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				profile.SortByName(profiles)
				return printProfiles(out, profiles)
			}
			p, ok := profile.Find(profiles, args[0])
			if !ok {
				return errors.Errorf("no profile named %q", args[0])
			}
			return printProfile(out, p, o.cfg.Rules().Thresholds)
		},
	}
}

func newLocalResetCmd(o *localOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every profile in the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := o.store()
			if err := s.Reset(cmd.Context()); err != nil {
				return errors.Wrap(err, "resetting snapshot")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", s.Path())
			return nil
		},
	}
}

func parseLocalTime(raw string) (time.Time, error) {
	for _, layout := range localTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("time %q must be YYYY-MM-DD or RFC3339", raw)
}

func printProfiles(out io.Writer, profiles []model.WorkerProfile) error {
	if len(profiles) == 0 {
		_, err := fmt.Fprintln(out, "no profiles")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOVERALL\tSTATUS\tRATINGS\tCATEGORIES")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%d\t%s\n",
			p.Name, p.OverallScore, p.OverallStatus, len(p.Ratings), strings.Join(p.JobCategories, ", "))
	}
	return tw.Flush()
}

func printProfile(out io.Writer, p model.WorkerProfile, th scoring.Thresholds) error {
	a := scoring.Analyze(p.Ratings, th)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Overall:\t%.2f (%s)\n", p.OverallScore, p.OverallStatus)
	fmt.Fprintf(tw, "Strengths:\t%s\n", orNone(p.Strengths))
	fmt.Fprintf(tw, "Weaknesses:\t%s\n", orNone(p.Weaknesses))
	fmt.Fprintf(tw, "Consistency:\t%.0f\n", a.ConsistencyScore)
	fmt.Fprintf(tw, "Positive streak:\t%d (best %d)\n", a.CurrentPositiveStreak, a.BestPositiveStreak)
	fmt.Fprintf(tw, "Punctuality:\t%s\n", a.PunctualityTrend)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(p.JobCategories) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tRATINGS\tLATEST\tTREND")
	for _, cat := range p.JobCategories {
		h := p.CategoryHistory[cat]
		latest := "-"
		if len(h) > 0 {
			latest = strconv.FormatFloat(h[len(h)-1].Score, 'f', -1, 64)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", cat, len(h), latest, scoring.Trend(h))
	}
	return tw.Flush()
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
