package utils

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	port         string
	databasePath string

	location *time.Location

	auditSweepInterval       time.Duration
	metricCollectionInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		databasePath: func() string {
			databasePath := os.Getenv("DATABASE_PATH")
			if databasePath == "" {
				databasePath = "./sqlite.db"
			}
			slog.Debug("env", "DATABASE_PATH", databasePath)
			return databasePath
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				slog.Warn("TIMEZONE is set to UTC, using UTC timezone", "timezone", time.UTC)
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),

		auditSweepInterval: func() time.Duration {
			auditSweepInterval := os.Getenv("AUDIT_SWEEP_INTERVAL")
			if auditSweepInterval == "" {
				auditSweepInterval = "6h"
			}
			duration, err := time.ParseDuration(auditSweepInterval)
			if err != nil {
				slog.Error("invalid AUDIT_SWEEP_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "AUDIT_SWEEP_INTERVAL", auditSweepInterval, "duration", duration)
			return duration
		}(),

		metricCollectionInterval: func() time.Duration {
			metricCollectionInterval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if metricCollectionInterval == "" {
				metricCollectionInterval = "1m"
			}
			duration, err := time.ParseDuration(metricCollectionInterval)
			if err != nil {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", metricCollectionInterval, "duration", duration)
			return duration
		}(),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get DATABASE_PATH env, default to ./sqlite.db
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get TIMEZONE env; the one civil calendar every date key and weekday
// computation lives in
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get AUDIT_SWEEP_INTERVAL env, default to 6h
func (c *Config) GetAuditSweepInterval() time.Duration {
	return c.auditSweepInterval
}

// Get METRIC_COLLECTION_INTERVAL env, default to 1m
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}
