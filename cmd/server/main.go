package main

import (
	"context"
	"log/slog"
	"os"

	_ "easylist/docs"
	"easylist/internal/config"
	"easylist/internal/server"
)

// @title           EasyList API
// @version         1.0
// @description     API for creating, sharing, copying and completing checklists.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	s, err := server.Init(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("server initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s.Run()
}
