package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/stackprof/pkg/capture"
	"github.com/danpilch/stackprof/pkg/config"
	"github.com/danpilch/stackprof/pkg/debug"
	"github.com/danpilch/stackprof/pkg/profiler"
	"github.com/danpilch/stackprof/pkg/session"
	"github.com/danpilch/stackprof/pkg/store"
	"github.com/danpilch/stackprof/pkg/workload"
)

var (
	recordName       string
	recordFormat     string
	recordSource     string
	recordInterval   time.Duration
	recordMinPercent float64
	recordPprofAddr  string
	recordTiming     bool
	recordDump       bool
	recordTrace      bool
	recordCheck      bool
	recordCheckJSON  bool
)

var recordWorkload = workload.DefaultOptions()

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Profiles the demo workload and renders the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("format") {
			cfg.Format = recordFormat
		}
		if flags.Changed("source") {
			cfg.Source = recordSource
		}
		if flags.Changed("interval") {
			cfg.Interval = recordInterval
		}
		if flags.Changed("min-percent") {
			cfg.MinPercent = recordMinPercent
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		sw := debug.NewStopwatch()
		if recordPprofAddr != "" {
			stop, err := debug.StartPprofServer(recordPprofAddr, logger)
			if err != nil {
				return err
			}
			defer stop()
		}

		s, err := recordWorkloadSession(cmd.Context(), sw)
		if err != nil {
			return err
		}

		if recordName != "" {
			done := sw.Phase("save")
			err := store.Save(s, recordName, cfg.SessionDir)
			done()
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"name": recordName,
				"dir":  cfg.SessionDir,
			}).Info("Session saved")
		}

		if err := sw.Time("render", func() error {
			return renderSession(cmd.OutOrStdout(), s)
		}); err != nil {
			return err
		}
		if err := checkSession(cmd.ErrOrStderr(), s, recordCheck, recordCheckJSON); err != nil {
			return err
		}
		if recordDump {
			debug.DumpSamples(cmd.ErrOrStderr(), s)
		}
		if recordTiming {
			debug.TimingReport(cmd.ErrOrStderr(), sw.Timings())
		}
		return nil
	},
}

// recordWorkloadSession runs the demo workload under the configured source.
func recordWorkloadSession(ctx context.Context, sw *debug.Stopwatch) (*session.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		source    capture.Source
		marker    workload.Marker
		goroutine *capture.GoroutineSource
	)
	switch cfg.Source {
	case config.SourceGoroutine:
		goroutine = capture.NewGoroutineSource("record", logger)
		source = goroutine
	default:
		probe, err := capture.NewProbe(capture.DefaultSiteCacheSize)
		if err != nil {
			return nil, err
		}
		source, marker = probe, probe
	}
	if recordTrace {
		source = debug.NewTraceSource(source, logger)
	}

	p, err := profiler.New(source, cfg.ProfilerOptions(logger))
	if err != nil {
		return nil, err
	}

	wl := workload.New(recordWorkload, marker, logger)
	done := sw.Phase("record")
	defer done()
	return p.Run(func() error {
		if goroutine == nil {
			_, err := wl.Run(ctx)
			return err
		}
		var runErr error
		goroutine.Track(ctx, func(ctx context.Context) {
			_, runErr = wl.Run(ctx)
		})
		return runErr
	})
}

func init() {
	recordCmd.Flags().StringVar(&recordName, "name", "", "Save the session under this name")
	recordCmd.Flags().StringVarP(&recordFormat, "format", "f", "table", "Output format: table, tree, json, tsv, folded, svg, pprof")
	recordCmd.Flags().StringVar(&recordSource, "source", config.SourceProbe, "Capture source: probe or goroutine")
	recordCmd.Flags().DurationVar(&recordInterval, "interval", profiler.DefaultInterval, "Minimum time between samples")
	recordCmd.Flags().StringVar(&recordPprofAddr, "pprof-addr", "", "Serve the profiler's own pprof endpoints at this address")
	recordCmd.Flags().BoolVar(&recordTiming, "timing", false, "Print phase timings")
	recordCmd.Flags().BoolVar(&recordDump, "dump", false, "Dump every recorded sample")
	recordCmd.Flags().BoolVar(&recordCheck, "check", false, "Cross-check the session's recorded time")
	recordCmd.Flags().BoolVar(&recordCheckJSON, "check-json", false, "Print the session check report as JSON")
	recordCmd.Flags().Float64Var(&recordMinPercent, "min-percent", 0, "Hide tree nodes below this share of the total time")
	recordCmd.Flags().BoolVar(&recordTrace, "trace", false, "Log every capture event at trace level")
	recordCmd.Flags().IntVar(&recordWorkload.Fib, "fib", recordWorkload.Fib, "Argument of the recursive workload phase")
	recordCmd.Flags().IntVar(&recordWorkload.SortRounds, "sort-rounds", recordWorkload.SortRounds, "Number of slices sorted by the workload")
	recordCmd.Flags().DurationVar(&recordWorkload.Sleep, "sleep", recordWorkload.Sleep, "Time spent in the sleep phase")
}
