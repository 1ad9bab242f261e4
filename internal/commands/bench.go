package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitwalk/internal/config"
	"gitwalk/internal/gchint"
	"gitwalk/internal/graph"
	"gitwalk/internal/metrics"
	"gitwalk/internal/report"
	"gitwalk/internal/scheduler"
	"gitwalk/internal/walker"
)

var benchFlags = map[string]string{
	"rounds":        "rounds",
	"concurrency":   "concurrency",
	"period":        "period",
	"overlap":       "overlap",
	"report.format": "format",
	"report.output": "output",
	"metrics_file":  "metrics-file",
}

var longBenchCmdDescription = `Run timed rounds of concurrent walkers from one starting commit.

Every period a round launches --concurrency walkers from the starting commit;
each walker fans out over every parent edge until it reaches a root commit. A
round ends when all of its walkers have reported. After --rounds rounds a
per-round report is written.`

var exampleForBench = `
  # the classic run: 100 rounds of 100 walkers every 50ms from HEAD
  gitwalk bench --repo .

  # a synthetic merge-heavy history with a slow store
  gitwalk bench --backend memory --depth 5000 --merge-every 3 --latency 100us --format yaml
`

func newBenchCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bench",
		Short:   "Run the concurrent ancestor walk benchmark",
		Long:    longBenchCmdDescription,
		Example: exampleForBench,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, storeFlags, benchFlags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBench(ctx, cfg, cmd.OutOrStdout())
		},
	}
	addStoreFlags(cmd)

	f := cmd.Flags()
	f.Int("rounds", 100, "number of rounds")
	f.Int("concurrency", 100, "walkers per round")
	f.Duration("period", 50*time.Millisecond, "time between round triggers")
	f.Bool("overlap", false, "start rounds on every tick even if the previous round is still running")
	f.String("format", report.FormatText, "report format: text, json or yaml")
	f.StringP("output", "o", "", "write the report to a file instead of stdout")
	f.String("metrics-file", "", "write prometheus metrics to this file when done")
	return cmd
}

func runBench(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log := logrus.WithField("component", "bench")

	store, closeStore, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	startID, err := store.ResolveRevision(cfg.Commit)
	if err != nil {
		return err
	}
	start, err := store.Lookup(ctx, startID)
	if err != nil {
		return errors.Wrapf(err, "failed to load starting commit %s", startID)
	}

	recorder := metrics.NewRecorder()
	resolver, err := graph.NewResolver(store, resolverOptions(cfg, graph.WithObserver(recorder))...)
	if err != nil {
		return err
	}
	hint := gchint.New(cfg.GCEvery)
	w := walker.New(resolver, walker.Options{SkipVisited: cfg.SkipVisited, Hook: hint.Visit})

	sched, err := scheduler.New(cfg.Scheduler(), w, scheduler.WithObserver(recorder), scheduler.WithObserver(roundLogger{log}))
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"backend":     cfg.Backend,
		"start":       start.ID,
		"rounds":      cfg.Rounds,
		"concurrency": cfg.Concurrency,
		"period":      cfg.Period,
	}).Info("starting benchmark")

	results, runErr := sched.Run(ctx, start)

	log.WithFields(logrus.Fields{
		"rounds":  len(results),
		"calls":   resolver.Calls(),
		"lookups": resolver.Lookups(),
	}).Info("benchmark finished")
	if hint.Enabled() {
		hint.Report()
	}

	if err := writeReport(cfg, out, results); err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		if err := recorder.WriteFile(cfg.MetricsFile); err != nil {
			return err
		}
	}
	return runErr
}

func writeReport(cfg *config.Config, out io.Writer, results []scheduler.RoundResult) error {
	if cfg.Report.Output == "" {
		return report.Write(out, cfg.Report.Format, results)
	}
	f, err := os.Create(cfg.Report.Output)
	if err != nil {
		return errors.Wrap(err, "failed to create report file")
	}
	if err := report.Write(f, cfg.Report.Format, results); err != nil {
		f.Close()
		return err
	}
	logrus.Infof("report written to %s", cfg.Report.Output)
	return f.Close()
}

// roundLogger logs one line per finished round.
type roundLogger struct {
	log *logrus.Entry
}

func (l roundLogger) RoundStarted(seq int) {
	l.log.Debugf("round %d started", seq)
}

func (l roundLogger) RoundFinished(r scheduler.RoundResult) {
	entry := l.log.WithFields(logrus.Fields{"round": r.Seq, "elapsed": r.Elapsed, "failed": r.Failed})
	if r.Err != nil {
		entry.WithError(r.Err).Warn("round finished with failed walkers")
		return
	}
	entry.Info("round finished")
}
