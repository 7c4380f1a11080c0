package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/forgewave/bombard/internal/dataprovider"
	"github.com/forgewave/bombard/internal/engine"
	"github.com/forgewave/bombard/internal/httpclient"
	"github.com/forgewave/bombard/internal/logger"
	"github.com/forgewave/bombard/internal/reqcache"
	"github.com/forgewave/bombard/internal/scenario"
	"github.com/forgewave/bombard/internal/stats"
)

var (
	runConfigFile      string
	runScenariosFile   string
	runEnvironmentFile string
	runDataFile        string
	allowPrivate       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario locally against a target",
	Long: `Run drives a scenario file through one in-process load engine, writing a
CSV report as it goes. It does not talk to a hub; use "bombard dispatch" to
submit the same job files to a running distributed hub instead.

Examples:
  bombard run --config config.yaml --scenarios scenarios.yaml
  bombard run --config config.yaml --scenarios scenarios.yaml --data users.csv`,
	RunE: runLocal,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runConfigFile, "config", "", "execution config file (YAML or JSON)")
	runCmd.Flags().StringVar(&runScenariosFile, "scenarios", "", "scenarios file (YAML or JSON)")
	runCmd.Flags().StringVar(&runEnvironmentFile, "environment", "", "environment variables file (optional)")
	runCmd.Flags().StringVar(&runDataFile, "data", "", "CSV data file for {{field}} substitution (optional)")
	runCmd.Flags().BoolVar(&allowPrivate, "allow-private-targets", false, "allow loopback/private-network request targets")

	runCmd.MarkFlagRequired("config")
	runCmd.MarkFlagRequired("scenarios")
}

func runLocal(_ *cobra.Command, _ []string) error {
	if err := logger.Init(logLevel()); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()
	log := logger.With()

	cfg, err := scenario.LoadExecConfig(runConfigFile)
	if err != nil {
		return err
	}
	requests, err := scenario.LoadScenarios(runScenariosFile)
	if err != nil {
		return err
	}
	envMap, err := scenario.LoadEnvironment(runEnvironmentFile)
	if err != nil {
		return err
	}
	if err := scenario.ValidateTargets(requests, allowPrivate); err != nil {
		return err
	}
	if ignoredExecutionTime, err := cfg.Validate(); err != nil {
		return err
	} else if ignoredExecutionTime {
		printInfo("both iterations and execution_time set; execution_time will be ignored")
	}

	client, err := httpclient.Build(cfg, log)
	if err != nil {
		return fmt.Errorf("building http client: %w", err)
	}

	var provider *dataprovider.Provider
	if runDataFile != "" {
		provider, err = dataprovider.Open(runDataFile)
		if err != nil {
			return fmt.Errorf("opening data file: %w", err)
		}
		defer provider.Close()
	}

	reportPath := cfg.ReportFile
	if reportPath == "" {
		reportPath = "report.csv"
	}
	csvSink, err := stats.NewCSVSink(reportPath)
	if err != nil {
		return fmt.Errorf("opening report file: %w", err)
	}
	defer csvSink.Close()

	sinkCfg := stats.Config{CSV: csvSink}
	if cfg.Database.Type == "influxdb" && cfg.Database.URL != "" {
		sinkCfg.InfluxDB = stats.NewInfluxDBSink(cfg.Database.URL, cfg.Database.Name, cfg.Database.User, cfg.Database.Password)
	} else if cfg.Database.Type != "" && cfg.Database.Type != "influxdb" {
		log.Error(fmt.Sprintf("unrecognized database type %q, no database sink configured", cfg.Database.Type))
	}
	pipeline := stats.New(sinkCfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e := engine.New(cfg, requests, envMap, client, reqcache.New(), provider, pipeline, log)

	printInfo(fmt.Sprintf("running %d requests across %d workers, report -> %s", len(requests), cfg.ThreadCount, reportPath))
	runWithProgress(ctx, e, cfg.ExecutionTime)
	printSuccess(fmt.Sprintf("run complete, report written to %s", reportPath))

	return nil
}

// runWithProgress drives the engine to completion while showing a progress
// bar: a countdown against executionSeconds when the run is time-bounded, or
// an indeterminate spinner when it is iteration-bounded instead.
func runWithProgress(ctx context.Context, e *engine.Engine, executionSeconds int) {
	total := -1
	if executionSeconds > 0 {
		total = executionSeconds
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("bombarding"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(total > 0),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	defer bar.Finish()

	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	elapsed := 0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			elapsed++
			if total > 0 {
				bar.Set(elapsed)
			} else {
				bar.Add(1)
			}
		}
	}
}

func logLevel() string {
	if IsVerbose() {
		return "debug"
	}
	return "info"
}
