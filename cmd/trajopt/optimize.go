package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChristopherRabotin/trajopt"
	"github.com/ChristopherRabotin/trajopt/ledger"
	"github.com/ChristopherRabotin/trajopt/metrics"
	"github.com/ChristopherRabotin/trajopt/telemetry"
	"github.com/ChristopherRabotin/trajopt/tools"
	kitlog "github.com/go-kit/log"
	"github.com/spf13/cobra"
)

var (
	metricsAddr   string
	ledgerPath    string
	telemetryPath string
	lambertSeeds  int
	stamped       bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search for the best transfer of the scenario",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	optimizeCmd.Flags().StringVar(&ledgerPath, "ledger", "", "record the run in this SQLite ledger")
	optimizeCmd.Flags().StringVar(&telemetryPath, "telemetry", "", "append progress events to this JSONL file")
	optimizeCmd.Flags().IntVar(&lambertSeeds, "lambert-seeds", 0, "seed the population with this many Lambert transfers")
	optimizeCmd.Flags().BoolVar(&stamped, "stamp", false, "timestamp the output files")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scn, eph, err := loadScenario()
	if err != nil {
		return err
	}
	conf := scn.Config
	logger := newLogger(scn.Name)
	gaLogger := kitlog.With(logger, "subsys", "ga")

	collector := metrics.NewCollector()
	if metricsAddr != "" {
		go func() {
			if err := collector.Serve(ctx, metricsAddr); err != nil {
				logger.Log("level", "error", "subsys", "metrics", "addr", metricsAddr, "err", err)
			}
		}()
	}
	emitter, err := openTelemetry()
	if err != nil {
		return err
	}
	defer emitter.Close()

	var engine *trajopt.Engine
	engine, err = trajopt.NewEngine(conf, eph, trajopt.WithProgress(func(p trajopt.Progress) {
		gaLogger.Log("level", "info", "gen", p.Generation, "fitness", p.BestFitness, "dist(AU)", p.MinDistance, "Δv(m/s)", p.DeltaV, "days", p.Days, "mean", p.MeanFitness, "σ", p.StdFitness, "feasible", p.Feasible, "sims", p.Evaluations, "elapsed", p.Elapsed.Round(time.Millisecond))
		if err := emitter.Emit(telemetry.FromProgress(scn.Name, p, engine.State() == trajopt.Stopped)); err != nil {
			logger.Log("level", "warning", "subsys", "telemetry", "err", err)
		}
		collector.Observe(scn.Name, p)
	}))
	if err != nil {
		return err
	}

	if lambertSeeds > 0 {
		if err := seedEngine(engine, eph, conf, kitlog.With(logger, "subsys", "lambert")); err != nil {
			return err
		}
	}

	started := time.Now()
	gaLogger.Log("level", "notice", "status", "starting", "population", conf.PopulationSize, "generations", conf.Generations, "seed", conf.Seed)
	best, err := engine.Run(ctx, conf.Generations)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		gaLogger.Log("level", "warning", "status", "interrupted", "gen", engine.Generation())
	}

	summary := trajopt.NewSummary(best)
	fmt.Print(summary)
	writeOutputs(scn, eph, best, summary, logger)

	if ledgerPath != "" {
		l, err := ledger.Open(context.Background(), ledgerPath)
		if err != nil {
			return err
		}
		defer l.Close()
		run := ledger.NewRun(scn.Name, conf, best, engine.Generation(), engine.State() == trajopt.Stopped, started)
		id, err := l.Record(context.Background(), run)
		if err != nil {
			return err
		}
		logger.Log("level", "info", "subsys", "ledger", "run", id, "file", ledgerPath)
	}
	return nil
}

func openTelemetry() (*telemetry.Emitter, error) {
	if telemetryPath == "" {
		return nil, nil
	}
	return telemetry.NewEmitter(telemetryPath)
}

// seedEngine places the best Lambert transfers around the Hohmann time of flight in the initial population.
func seedEngine(engine *trajopt.Engine, eph trajopt.Ephemeris, conf trajopt.Config, logger kitlog.Logger) error {
	tof, err := tools.HohmannTOF(eph, conf)
	if err != nil {
		return err
	}
	seeds, err := tools.ScanSeeds(eph, conf, 0.5*tof, min(1.5*tof, conf.MaxDays), 10, lambertSeeds)
	if err != nil {
		return err
	}
	for _, seed := range seeds {
		logger.Log("level", "info", "seed", seed)
	}
	engine.Seed(tools.Chromosomes(seeds)...)
	return nil
}

// writeOutputs writes the summary and the trajectory. Failures are logged: the result itself remains valid.
func writeOutputs(scn trajopt.Scenario, eph trajopt.Ephemeris, best trajopt.Chromosome, summary trajopt.Summary, logger kitlog.Logger) {
	summaryPath := trajopt.OutputPath(scn.OutputDir, scn.Prefix, "summary", "toml", stamped)
	if f, err := os.Create(summaryPath); err != nil {
		logger.Log("level", "error", "subsys", "summary", "err", err)
	} else {
		if err := summary.WriteTOML(f); err != nil {
			logger.Log("level", "error", "subsys", "summary", "file", summaryPath, "err", err)
		}
		f.Close()
		logger.Log("level", "notice", "subsys", "summary", "file", summaryPath)
	}
	trajPath := trajopt.OutputPath(scn.OutputDir, scn.Prefix, "trajectory", "csv", stamped)
	if err := trajopt.NewExporter(scn.Config, eph, logger).ExportFile(trajPath, best); err != nil {
		logger.Log("level", "error", "subsys", "export", "err", err)
	}
}
