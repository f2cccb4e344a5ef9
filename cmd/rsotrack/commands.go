package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/rso-tracker/core"
	"github.com/signalsfoundry/rso-tracker/model"
)

func newTrackCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track <object-type>",
		Short: "List objects whose type contains the given text.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authorize("track", model.RoleScientist); err != nil {
				return err
			}
			records, err := a.sess.TrackObjectType(a.ctx, args[0])
			if err != nil {
				return err
			}
			writeProjection(a.stdout, core.TrackProjection(records))
			fmt.Fprintf(a.stdout, "%d %s objects\n", len(records), args[0])
			return nil
		},
	}
}

func newLEOCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "leo",
		Short: "List objects in low Earth orbit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authorize("leo", model.RoleScientist); err != nil {
				return err
			}
			records, err := a.sess.TrackLEO(a.ctx)
			if err != nil {
				return err
			}
			writeProjection(a.stdout, core.TrackProjection(records))
			fmt.Fprintf(a.stdout, "%d LEO objects\n", len(records))
			return nil
		},
	}
}

func newAssessCommand(a *app) *cobra.Command {
	var risk, orbit bool
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Recompute risk levels and orbit status, then write the dataset.",
		Long: `Recompute derived fields for every loaded object and write the enriched
dataset to --output. Without --risk or --orbit both passes run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authorize("assess", model.RoleScientist); err != nil {
				return err
			}
			if !risk && !orbit {
				risk, orbit = true, true
			}
			if risk {
				changed, err := a.sess.AssessRisk(a.ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "risk levels assessed: %d changed\n", changed)
			}
			if orbit {
				changed, err := a.sess.AssessOrbitStatus(a.ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "orbit status assessed: %d changed\n", changed)
			}
			wrote, err := a.sess.PersistIfChanged(a.ctx, a.cfg.Output)
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintf(a.stdout, "wrote %d records to %s\n", a.sess.Catalog().Len(), a.cfg.Output)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&risk, "risk", false, "Recompute risk levels.")
	cmd.Flags().BoolVar(&orbit, "orbit", false, "Recompute still-in-orbit status.")
	return cmd
}

func newImpactCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "List LEO objects with long-term impact.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authorize("impact", model.RoleSpaceAgencyRep); err != nil {
				return err
			}
			flagged, err := a.sess.LongTermImpact(a.ctx, out)
			if err != nil {
				return err
			}
			writeProjection(a.stdout, core.ImpactProjection(flagged))
			fmt.Fprintf(a.stdout, "%d objects with long-term impact\n", len(flagged))
			if out != "" {
				fmt.Fprintf(a.stdout, "wrote %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Also write the list to this file, e.g. long_term_impact.csv.")
	return cmd
}

func newDensityCommand(a *app) *cobra.Command {
	var (
		lower, upper float64
		suffix, dir  string
	)
	cmd := &cobra.Command{
		Use:   "density",
		Short: "Write a density report for a longitude band.",
		Long: `Write density_report_<suffix>.csv listing every object whose longitude
lies strictly between --lower and --upper. A random suffix is used when none
is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authorize("density", model.RoleSpaceAgencyRep); err != nil {
				return err
			}
			path, rows, err := a.sess.DensityReport(a.ctx, lower, upper, suffix, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "wrote %d objects to %s\n", rows, path)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lower, "lower", 0, "Lower longitude bound in degrees (exclusive).")
	cmd.Flags().Float64Var(&upper, "upper", 0, "Upper longitude bound in degrees (exclusive).")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Report file name suffix.")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory the report is written to.")
	_ = cmd.MarkFlagRequired("lower")
	_ = cmd.MarkFlagRequired("upper")
	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print risk level and orbit status counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.sess.Summary(a.ctx)
			if err != nil {
				return err
			}
			t := newTable(a.stdout)
			t.AppendHeader(table.Row{"measure", "objects"})
			t.AppendRow(table.Row{"total", s.Total})
			for _, level := range []model.RiskLevel{model.RiskLow, model.RiskModerate, model.RiskHigh} {
				t.AppendRow(table.Row{"risk " + level.Label(), s.ByRisk[level]})
			}
			t.AppendRow(table.Row{"in orbit", s.InOrbit})
			t.AppendRow(table.Row{"out of orbit", s.OutOfOrbit})
			t.Render()
			fmt.Fprintf(a.stdout, "source %s, %d rows skipped\n", a.sess.Source(), len(a.sess.Rejected()))
			return nil
		},
	}
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id>",
		Short: "Print every column of one object.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := a.sess.Object(a.ctx, args[0])
			if err != nil {
				return err
			}
			t := newTable(a.stdout)
			t.AppendHeader(table.Row{"column", "value"})
			for i, v := range core.Fields(obj) {
				t.AppendRow(table.Row{core.Header[i], v})
			}
			t.Render()
			return nil
		},
	}
}

func newExportSQLiteCommand(a *app) *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "export-sqlite",
		Short: "Copy the loaded dataset into a SQLite database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.sess.ExportSQLite(a.ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "exported %d objects to %s\n", n, db)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "rso_tracker.db", "SQLite database file.")
	return cmd
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault
	return t
}

func writeProjection(w io.Writer, p core.Projection) {
	t := newTable(w)
	header := make(table.Row, len(p.Columns))
	for i, c := range p.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range p.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}
	t.Render()
}
