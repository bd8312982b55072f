package utils

import (
	"database/sql"
	"log/slog"
	"os"
	"sync"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config *Config
	RawDb  *sql.DB
	BunDB  *bun.DB
	When   *when.Parser

	MetricChans *Metric

	AppCloseSignalChan chan os.Signal

	gracefulShutdownChansMutex sync.Mutex
	gracefulShutdownChans      []chan struct{}
}

func NewAppState() *AppState {
	as := &AppState{}

	as.AppCloseSignalChan = make(chan os.Signal, 1)
	as.MetricChans = NewMetric()

	// natural-language window bounds ("next monday", "in two weeks")
	as.When = when.New(nil)
	as.When.Add(en.All...)
	as.When.Add(common.All...)

	// env
	as.Config = NewConfig()

	// database
	var err error
	as.RawDb, err = sql.Open(sqliteshim.ShimName, as.Config.GetDatabasePath()+"?mode=rwc")
	if err != nil {
		slog.Error("cannot open sqlite database", "error", err)
		os.Exit(1)
	}
	as.RawDb.SetMaxIdleConns(8)

	as.BunDB = bun.NewDB(as.RawDb, sqlitedialect.New())
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))

	return as
}

// CreateGracefulShutdownChan hands out a channel that closes when the app is
// shutting down, for background loops that must unwind cleanly.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	as.gracefulShutdownChansMutex.Lock()
	defer as.gracefulShutdownChansMutex.Unlock()
	ch := make(chan struct{})
	as.gracefulShutdownChans = append(as.gracefulShutdownChans, ch)
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.gracefulShutdownChansMutex.Lock()
	defer as.gracefulShutdownChansMutex.Unlock()
	for _, ch := range as.gracefulShutdownChans {
		close(ch)
	}
	as.gracefulShutdownChans = nil
	if as.RawDb != nil {
		if err := as.RawDb.Close(); err != nil {
			slog.Warn("can't close database", "error", err)
		}
	}
}
