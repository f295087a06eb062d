package main

import (
	"log/slog"
	"time"

	"github.com/mcengine/currency/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"API_PORT"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT"`
	Storage         config.StorageConfig
}
