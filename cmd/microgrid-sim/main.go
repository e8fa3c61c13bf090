// Package main provides the microgrid dispatch simulator entry point and CLI interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devskill-org/microgrid-sim/fleet"
	"github.com/devskill-org/microgrid-sim/persist"
	"github.com/devskill-org/microgrid-sim/sim"
	"github.com/devskill-org/microgrid-sim/webapi"
)

func main() {
	var (
		configFile   = flag.String("config", "config.json", "Configuration file path")
		loadFile     = flag.String("load", "load.csv", "Load profile CSV path (t_hours,load_kw)")
		fleetFile    = flag.String("fleet", "fleet.yaml", "Fleet manifest path")
		resultsDir   = flag.String("results", "", "Override the config's results output directory")
		resourceList resourceFlags
		serve        = flag.Bool("serve", false, "Run the HTTP API server instead of a single batch run")
		port         = flag.Int("port", 8080, "Port for -serve mode")
		help         = flag.Bool("help", false, "Show help message")
	)
	flag.Var(&resourceList, "resource", "Resource series as kind:key:path, may be repeated (e.g. scalar:ghi:ghi.csv)")
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	config, err := sim.LoadConfig(*configFile)
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		return
	}
	if *resultsDir != "" {
		config.ResultsDir = *resultsDir
	}

	logger := log.New(os.Stdout, "[MICROGRID-SIM] ", log.LstdFlags)

	if *serve {
		runServer(*port, logger)
		return
	}

	runBatch(*loadFile, *fleetFile, resourceList, config, logger)
}

func runBatch(loadFile, fleetFile string, resources resourceFlags, config *sim.Config, logger *log.Logger) {
	model, err := sim.NewFromLoadCSV(loadFile, config, logger)
	if err != nil {
		logger.Printf("Error loading run: %v", err)
		os.Exit(1)
	}

	for _, res := range resources {
		if err := model.AddResource(res.Kind, res.Path, res.Key); err != nil {
			logger.Printf("Error registering resource %q: %v", res.Key, err)
			os.Exit(1)
		}
	}

	manifest, err := fleet.Load(fleetFile)
	if err != nil {
		logger.Printf("Error loading fleet manifest: %v", err)
		os.Exit(1)
	}
	if err := model.LoadFleet(manifest); err != nil {
		logger.Printf("Error building fleet: %v", err)
		os.Exit(1)
	}

	logger.Printf("Running %d-step simulation with %d diesel, %d renewable, %d hydro, %d storage assets",
		model.Grid.Len(), len(model.Combustion), len(model.Renewable), len(model.NonCombustion), len(model.Storage))

	model.OnStep = func(i, n int) {
		if n >= 100 && (i+1)%(n/10) == 0 {
			logger.Printf("  step %d/%d", i+1, n)
		}
	}

	if err := model.Run(); err != nil {
		logger.Printf("Error running simulation: %v", err)
		os.Exit(1)
	}

	if err := model.WriteResults(config.ResultsDir, config.ReportMaxLines); err != nil {
		logger.Printf("Error writing results: %v", err)
		os.Exit(1)
	}
	logger.Printf("Results written to %s", config.ResultsDir)

	if config.PostgresConnString != "" {
		store, err := persist.Open(config.PostgresConnString)
		if err != nil {
			logger.Printf("Error connecting to Postgres: %v", err)
			os.Exit(1)
		}
		defer store.Close()

		ctx := context.Background()
		runID := fmt.Sprintf("batch-%s", time.Now().Format("20060102-150405"))
		if err := store.SaveSummaries(ctx, runID, model.Recorder); err != nil {
			logger.Printf("Error saving summaries: %v", err)
			os.Exit(1)
		}
		if err := store.SaveTimeSeries(ctx, runID, model.Recorder); err != nil {
			logger.Printf("Error saving time series: %v", err)
			os.Exit(1)
		}
		logger.Printf("Persisted run %s to Postgres", runID)
	}

	missedLoad := model.Recorder.TotalMissedLoadKWh()
	if missedLoad > 1e-6 {
		logger.Printf("Warning: %.3f kWh of load was unserved", missedLoad)
	}
}

func runServer(port int, logger *log.Logger) {
	server := webapi.NewServer(port, logger)
	server.Start()
	logger.Printf("API server listening on port %d. Press Ctrl+C to stop...", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Printf("Shutdown signal received, stopping server...")
	if err := server.Stop(ctx); err != nil {
		logger.Printf("Error during shutdown: %v", err)
	}
	logger.Printf("Server stopped successfully")
}

func showHelp() {
	fmt.Println("microgrid-sim - Simulate dispatch of a diesel/renewable/storage microgrid fleet")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Runs a time-stepped dispatch simulation over a load profile and a fleet of")
	fmt.Println("  combustion, renewable, hydro, and storage assets, producing per-asset summary")
	fmt.Println("  and time-series results. Can also serve an HTTP API for submitting runs and")
	fmt.Println("  following their progress over a websocket.")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  microgrid-sim [OPTIONS]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Run a batch simulation with default file names")
	fmt.Println("  microgrid-sim")
	fmt.Println()
	fmt.Println("  # Custom fleet, load, and config")
	fmt.Println("  microgrid-sim -fleet=fleet.yaml -load=load.csv -config=config.json")
	fmt.Println()
	fmt.Println("  # Register a solar resource series")
	fmt.Println("  microgrid-sim -resource=scalar:ghi:ghi.csv")
	fmt.Println()
	fmt.Println("  # Run the HTTP API instead of a single batch")
	fmt.Println("  microgrid-sim -serve -port=8080")
	fmt.Println()
	fmt.Println("  # Show this help")
	fmt.Println("  microgrid-sim -help")
}
