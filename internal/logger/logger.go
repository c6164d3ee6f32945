package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the global logger instance. Component loggers below are
// derived from it, so Initialize must run before any of them are
// requested.
var Log zerolog.Logger

// Initialize configures the global logger. pretty selects a
// human-readable console writer (development); otherwise JSON with
// unix-epoch timestamps (production).
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	Log = log.With().
		Str("service", "chronoguard-lite").
		Logger()

	Log.Info().
		Str("level", logLevel.String()).
		Bool("pretty", pretty).
		Msg("logger initialized")
}

// GetLogger returns the global logger instance.
func GetLogger() *zerolog.Logger {
	return &Log
}

func component(name string) *zerolog.Logger {
	l := Log.With().Str("component", name).Logger()
	return &l
}

// Ledger creates a logger for hash-chain append/verify events.
func Ledger() *zerolog.Logger { return component("ledger") }

// Store creates a logger for columnar store events.
func Store() *zerolog.Logger { return component("store") }

// Evaluator creates a logger for flat policy-evaluation events.
func Evaluator() *zerolog.Logger { return component("evaluator") }

// PolicyEngine creates a logger for DAG build/evaluate events.
func PolicyEngine() *zerolog.Logger { return component("policyengine") }

// Interceptor creates a logger for the intercept server.
func Interceptor() *zerolog.Logger { return component("interceptor") }

// Analytics creates a logger for the analytics engine.
func Analytics() *zerolog.Logger { return component("analytics") }

// Search creates a logger for the inverted index / search engine.
func Search() *zerolog.Logger { return component("search") }

// Concurrency creates a logger for the append queue / striped map.
func Concurrency() *zerolog.Logger { return component("concurrency") }

// Admin creates a logger for the optional admin HTTP surface.
func Admin() *zerolog.Logger { return component("admin") }

// Scheduler creates a logger for cron-driven maintenance jobs.
func Scheduler() *zerolog.Logger { return component("scheduler") }

// EventBus creates a logger for the optional NATS publisher.
func EventBus() *zerolog.Logger { return component("eventbus") }
