package metric

import (
	"log/slog"
	"time"

	"stagetime/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func databaseEmptyRead(as *utils.AppState, tickerInterval *time.Duration) {
	databaseEmptyRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stagetime_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register stagetime_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("stagetime_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("stagetime_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("stagetime_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				latency, err := database(as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

func databaseRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stagetime_database_read_microsec",
		Help: "The latency of a database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register stagetime_database_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("stagetime_database_read_microsec metric registered")
		databaseRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseRead) {
				case true:
					slog.Debug("stagetime_database_read_microsec metric unregistered")
				case false:
					slog.Warn("stagetime_database_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseRead:
				databaseRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseRead.Set(0)
			}
		}
	}()
}

func expandLatency(as *utils.AppState, clearTickerInterval *time.Duration) {
	expandLatency := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stagetime_expand_latency_microsec",
		Help: "The latency of one occurrence expansion request in microseconds",
	})
	good := true
	if err := prometheus.Register(expandLatency); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register stagetime_expand_latency_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("stagetime_expand_latency_microsec metric registered")
		expandLatency.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(expandLatency) {
				case true:
					slog.Debug("stagetime_expand_latency_microsec metric unregistered")
				case false:
					slog.Warn("stagetime_expand_latency_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.ExpandLatency:
				expandLatency.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				expandLatency.Set(0)
			}
		}
	}()
}

func auditWarnings(as *utils.AppState) {
	auditWarnings := promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagetime_audit_warnings_total",
		Help: "Occurrence expansions flagged by the invariant auditor",
	}, []string{"event"})
	good := true
	if err := prometheus.Register(auditWarnings); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register stagetime_audit_warnings_total metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("stagetime_audit_warnings_total metric registered")
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(auditWarnings) {
				case true:
					slog.Debug("stagetime_audit_warnings_total metric unregistered")
				case false:
					slog.Warn("stagetime_audit_warnings_total metric not registered")
				}
				return
			case eventLabel := <-as.MetricChans.AuditWarning:
				auditWarnings.WithLabelValues(eventLabel).Inc()
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	databaseEmptyRead(as, &tickerInterval)
	databaseRead(as, &clearTickerInterval)
	expandLatency(as, &clearTickerInterval)
	auditWarnings(as)
}
