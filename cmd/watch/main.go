package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"nse-tracker/internal/app"
	"nse-tracker/internal/config"
	"nse-tracker/internal/logging"
	"nse-tracker/internal/tracker"
	"nse-tracker/internal/tui"
)

func main() {
	configPath := flag.String("config", "configs/app.yaml", "path to the YAML config file")
	logPath := flag.String("log", "watch.log", "log file, used when log.output is stderr or stdout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// The terminal belongs to the UI.
	output := cfg.Log.Output
	if output == "" || output == "stderr" || output == "stdout" {
		output = *logPath
	}
	logger, err := logging.New(cfg.Log.Level, output)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}

	views := tracker.NewChannelRenderer()
	a, err := app.New(cfg, logger, views)
	if err != nil {
		logger.Fatal("tracker setup failed", zap.Error(err))
	}
	defer a.Close()

	if cfg.Tracker.Autostart {
		a.Session.Start()
	}

	p := tea.NewProgram(tui.New(a.Session, views.Views()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		a.Close()
		fmt.Fprintln(os.Stderr, "watch:", err)
		os.Exit(1)
	}
}
