package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.uber.org/zap"

	"nse-tracker/internal/api"
	"nse-tracker/internal/app"
	"nse-tracker/internal/config"
	"nse-tracker/internal/logging"
)

func main() {
	configPath := flag.String("config", "configs/app.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Output)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("tracker setup failed", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	h := server.Default(server.WithHostPorts(addr))
	h.OnShutdown = append(h.OnShutdown, func(context.Context) {
		a.Close()
	})

	api.RegisterRoutes(h, a.Session, a.Service, logger.Named("api"))

	if cfg.Tracker.Autostart {
		a.Session.Start()
	}

	logger.Info("server starting", zap.String("addr", addr), zap.String("log_level", cfg.Log.Level))
	h.Spin()
}
