// cardiodash: terminal dashboard for a patient's heart rate with a
// CardioBot chat panel, backed by the patient monitoring HTTP API.
//
// Usage:
//
//	cardiodash [monitor] --patient 42 --url http://localhost:5000
//	cardiodash export --patient 42 --out exports --open
//	cardiodash history --patient 42 --out exports
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/cardiodash/internal/api"
	"github.com/luki/cardiodash/internal/chat"
	"github.com/luki/cardiodash/internal/config"
	"github.com/luki/cardiodash/internal/export"
	"github.com/luki/cardiodash/internal/monitor"
	"github.com/luki/cardiodash/internal/series"
	"github.com/luki/cardiodash/internal/viewer"
)

func main() {
	args := os.Args[1:]
	cmd := "monitor"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "monitor":
		runMonitor(args)
	case "export":
		runExport(args)
	case "history":
		runHistory(args)
	case "help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(2)
	}
}

func loadConfig(name string, args []string) config.Config {
	cfg, err := config.Load(name, args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

func newClient(cfg config.Config) *api.Client {
	c := api.New(cfg.BaseURL, cfg.Timeout)
	c.ChatPath = cfg.ChatPath
	return c
}

func runMonitor(args []string) {
	cfg := loadConfig("monitor", args)

	f, err := tea.LogToFile(cfg.LogFile, "cardiodash")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Printf("dashboard starting for patient %s against %s", cfg.PatientID, cfg.BaseURL)

	client := newClient(cfg)
	opts := monitor.Options{
		PatientID: cfg.PatientID,
		Backend:   client,
		Chat:      chat.NewSession(client),
		Timeout:   cfg.Timeout,
		SimDelay:  cfg.SimDelay,
		SimPeriod: cfg.SimPeriod,
		ExportDir: cfg.ExportDir,
	}
	if cfg.Simulate {
		opts.Source = monitor.NewRandomSource(time.Now().UnixNano())
	}

	p := tea.NewProgram(
		monitor.New(opts),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		log.Printf("dashboard stopped: %v", err)
		f.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	cfg := loadConfig("export", args)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	records, err := newClient(cfg).History(ctx, cfg.PatientID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading data: %v\n", err)
		os.Exit(1)
	}

	samples := make([]series.Sample, len(records))
	for i, r := range records {
		samples[i] = r.Sample()
	}
	window := series.Seed(samples, series.Capacity)
	if window.Len() == 0 {
		fmt.Fprintf(os.Stderr, "No readings recorded for patient %s\n", cfg.PatientID)
		os.Exit(1)
	}

	res, err := export.Snapshot(cfg.ExportDir, cfg.PatientID, window.Samples(), time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\nWrote %s\n", res.CSV, res.HTML)

	if cfg.Open {
		if err := export.Open(res.HTML); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot open browser: %v\n", err)
			os.Exit(1)
		}
	}
}

func runHistory(args []string) {
	cfg := loadConfig("history", args)

	if err := viewer.Run(cfg.ExportDir, cfg.PatientID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`cardiodash - heart-rate dashboard and CardioBot chat

Commands:
  monitor   live dashboard (default)
  export    write the last readings as CSV and an HTML chart
  history   browse exported snapshots
  help      show this help

Common flags:
  --url URL          backend base URL (CARDIODASH_BASE_URL)
  --patient ID       patient id (CARDIODASH_PATIENT)
  --chat-path PATH   chatbot endpoint path (CARDIODASH_CHAT_PATH)
  --timeout D        per-request timeout (CARDIODASH_TIMEOUT)
  --simulate=BOOL    append simulated readings (CARDIODASH_SIMULATE)
  --sim-delay D      delay before simulation starts (CARDIODASH_SIM_DELAY)
  --sim-period D     interval between simulated readings (CARDIODASH_SIM_PERIOD)
  --log FILE         log file (CARDIODASH_LOG_FILE)
  --out DIR          export directory (CARDIODASH_EXPORT_DIR)
  --open             open the exported chart (CARDIODASH_OPEN)

Settings are also read from .env (or CARDIODASH_ENV_FILE).`)
}
