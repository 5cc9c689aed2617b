package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"focustasks/config"
	"focustasks/connection"
	"focustasks/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{}).Fatal("config", "err", err)
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel})

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := connection.StartServer(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", "err", err)
	}
}
