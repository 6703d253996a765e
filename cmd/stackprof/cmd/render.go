package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/danpilch/stackprof/pkg/calltree"
	"github.com/danpilch/stackprof/pkg/crosscheck"
	"github.com/danpilch/stackprof/pkg/output"
	"github.com/danpilch/stackprof/pkg/session"
	"github.com/danpilch/stackprof/pkg/store"
)

var (
	renderFormat     string
	renderMode       string
	renderLimit      int
	renderMinPercent float64
	renderCheck      bool
	renderCheckJSON  bool
)

var renderCmd = &cobra.Command{
	Use:   "render <name>",
	Short: "Renders a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("format") {
			cfg.Format = renderFormat
		}
		if flags.Changed("mode") {
			cfg.Mode = renderMode
		}
		if flags.Changed("limit") {
			cfg.Limit = renderLimit
		}
		if flags.Changed("min-percent") {
			cfg.MinPercent = renderMinPercent
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		s, err := store.Load(args[0], cfg.SessionDir)
		if err != nil {
			return err
		}
		if err := renderSession(cmd.OutOrStdout(), s); err != nil {
			return err
		}
		return checkSession(cmd.ErrOrStderr(), s, renderCheck, renderCheckJSON)
	},
}

// renderSession writes s in the configured format.
func renderSession(w io.Writer, s *session.Session) error {
	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	mode, err := calltree.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	f := output.NewFormatter(format, w)
	f.SetLimit(cfg.Limit)
	f.SetMode(mode)
	f.SetMinPercent(cfg.MinPercent)
	return f.Render(s)
}

// checkSession prints the session check report, as JSON when asJSON is set.
func checkSession(w io.Writer, s *session.Session, styled, asJSON bool) error {
	if !styled && !asJSON {
		return nil
	}
	validations, sanity := crosscheck.RunCrossChecks(s)
	if asJSON {
		return crosscheck.ReportJSON(w, validations, sanity)
	}
	crosscheck.Report(w, validations, sanity)
	return nil
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "table", "Output format: table, tree, json, tsv, folded, svg, pprof")
	renderCmd.Flags().StringVar(&renderMode, "mode", "root", "Tree starting point: root or first-branch")
	renderCmd.Flags().BoolVar(&renderCheck, "check", false, "Cross-check the session's recorded time")
	renderCmd.Flags().BoolVar(&renderCheckJSON, "check-json", false, "Print the session check report as JSON")
	renderCmd.Flags().Float64Var(&renderMinPercent, "min-percent", 0, "Hide tree nodes below this share of the total time")
	renderCmd.Flags().IntVar(&renderLimit, "limit", output.DefaultLimit, "Number of functions shown by the table format")
}
