package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/internal/report"
)

// Export formats.
const (
	formatJSON   = "json"
	formatYAML   = "yaml"
	formatNDJSON = "ndjson"
)

// Profile sources.
const (
	sourceDB       = "db"
	sourceSnapshot = "snapshot"
)

type exportProfile struct {
	Name          string        `json:"name" yaml:"name"`
	OverallScore  float64       `json:"overallScore" yaml:"overallScore"`
	OverallStatus model.Status  `json:"overallStatus" yaml:"overallStatus"`
	JobCategories []string      `json:"jobCategories" yaml:"jobCategories"`
	Strengths     []string      `json:"strengths" yaml:"strengths"`
	Weaknesses    []string      `json:"weaknesses" yaml:"weaknesses"`
	Ratings       []report.Line `json:"ratings" yaml:"ratings"`
}

func newExportCmd(o *rootOptions) *cobra.Command {
	var format, out, from, file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export profiles as JSON, YAML or NDJSON",
		Long: `Export every worker profile from the database or the local snapshot.
json and yaml write one document of profiles; ndjson writes one rating per
line, the input format of "crewrate report".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case formatJSON, formatYAML, formatNDJSON:
			default:
				return errors.Errorf("unknown format %q: want json, yaml or ndjson", format)
			}

			profiles, err := loadProfiles(cmd.Context(), o, from, file)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, "creating output file")
				}
				defer f.Close()
				w = f
			}
			return errors.Wrap(writeExport(w, format, profiles), "writing export")
		},
	}

	f := cmd.Flags()
	f.StringVar(&format, "format", formatJSON, "Output format: json, yaml or ndjson")
	f.StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	f.StringVar(&from, "from", sourceDB, "Profile source: db or snapshot")
	f.StringVarP(&file, "file", "f", "", "Snapshot file when --from=snapshot (overrides config snapshot_path)")
	return cmd
}

// loadProfiles reads every profile from the database or the snapshot file,
// sorted by name.
func loadProfiles(ctx context.Context, o *rootOptions, from, file string) ([]model.WorkerProfile, error) {
	switch from {
	case sourceDB:
		svc, err := o.newService(ctx)
		if err != nil {
			return nil, err
		}
		defer svc.Stop()
		profiles, err := svc.ListProfiles(ctx)
		return profiles, errors.Wrap(err, "listing profiles")

	case sourceSnapshot:
		lo := &localOptions{rootOptions: o, file: file}
		profiles, err := lo.store().Load(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "loading snapshot")
		}
		profile.SortByName(profiles)
		return profiles, nil

	default:
		return nil, errors.Errorf("unknown source %q: want db or snapshot", from)
	}
}

func exportLines(profiles []model.WorkerProfile) []report.Line {
	var lines []report.Line
	for _, p := range profiles {
		for _, r := range p.Ratings {
			lines = append(lines, report.LineFrom(p.Name, r))
		}
	}
	return lines
}

func writeExport(w io.Writer, format string, profiles []model.WorkerProfile) error {
	if format == formatNDJSON {
		return report.WriteNDJSON(w, exportLines(profiles))
	}

	docs := make([]exportProfile, 0, len(profiles))
	for _, p := range profiles {
		lines := make([]report.Line, 0, len(p.Ratings))
		for _, r := range p.Ratings {
			lines = append(lines, report.LineFrom(p.Name, r))
		}
		docs = append(docs, exportProfile{
			Name:          p.Name,
			OverallScore:  p.OverallScore,
			OverallStatus: p.OverallStatus,
			JobCategories: p.JobCategories,
			Strengths:     p.Strengths,
			Weaknesses:    p.Weaknesses,
			Ratings:       lines,
		})
	}

	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
