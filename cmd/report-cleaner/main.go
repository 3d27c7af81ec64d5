package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/report-cleaner/internal/age"
	"github.com/p-blackswan/report-cleaner/internal/cleaner"
	"github.com/p-blackswan/report-cleaner/internal/config"
	"github.com/p-blackswan/report-cleaner/internal/metrics"
	"github.com/p-blackswan/report-cleaner/internal/storage"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	os.Exit(run(os.Args[1:], logger))
}

// run executes one invocation and returns the process exit code.
func run(args []string, logger zerolog.Logger) int {
	opts, err := parseOptions(args, os.Stdout)
	if err != nil {
		return ExitStatusUsage
	}

	if opts.version {
		fmt.Println(versionString)
		return ExitStatusOK
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return ExitStatusError
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// the age threshold is a usage concern: a malformed value must surface
	// as help text and exit status 2 before the database is ever touched
	var threshold time.Duration
	if !opts.fillInDB {
		maxAge := opts.maxAge
		if maxAge == "" {
			maxAge = cfg.MaxAge
		}
		threshold, err = age.Parse(maxAge)
		if err != nil {
			fmt.Println(err)
			opts.usage()
			return ExitStatusUsage
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// one snapshot of "now" for the whole invocation
	now := time.Now()

	m := metrics.New()
	started := time.Now()

	code := dispatch(ctx, opts, cfg, now, threshold, m, logger)

	m.RunDuration.Observe(time.Since(started).Seconds())
	outcome := "success"
	if code != ExitStatusOK {
		outcome = "failure"
	}
	m.RecordRun(opts.mode(), outcome)

	if cfg.PushgatewayURL != "" {
		if err := m.Push(cfg.PushgatewayURL); err != nil {
			logger.Warn().Err(err).Msg("failed to push metrics")
		}
	}

	return code
}

// dispatch opens the database and runs the selected operation.
func dispatch(ctx context.Context, opts *options, cfg *config.Config, now time.Time, threshold time.Duration, m *metrics.Metrics, logger zerolog.Logger) int {
	logger.Info().
		Str("mode", opts.mode()).
		Str("environment", cfg.Environment).
		Msg("starting report cleaner")

	db, err := storage.Open(ctx, storage.Options{
		Driver:           cfg.DBDriver,
		PGUsername:       cfg.PGUsername,
		PGPassword:       cfg.PGPassword,
		PGHost:           cfg.PGHost,
		PGPort:           cfg.PGPort,
		PGDBName:         cfg.PGDBName,
		PGParams:         cfg.PGParams,
		SQLiteDataSource: cfg.SQLiteDataSource,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open database")
		return ExitStatusError
	}
	defer db.Close()

	if opts.fillInDB {
		if err := cleaner.FillInDatabase(ctx, db, now, logger); err != nil {
			logger.Error().Err(err).Msg("failed to fill in database")
			return ExitStatusError
		}
		return ExitStatusOK
	}

	clusters, improper, err := cleaner.ReadClusterList(opts.clusters, cfg.ClusterListFile, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read cluster list")
		return ExitStatusError
	}
	m.ImproperEntries.Add(float64(improper))

	sel := cleaner.NewSelection(now, threshold, clusters)

	if opts.cleanup {
		deleter := cleaner.NewDeleter(db, logger)
		result, err := deleter.Run(ctx, sel)
		if err != nil {
			logger.Error().Err(err).Msg("cleanup failed")
			return ExitStatusError
		}
		m.RecordDeletions(result.DeletionsForTable)

		if opts.summary {
			cleaner.PrintSummary(os.Stdout, cleaner.Summary{
				ProperClusterEntries:   len(clusters),
				ImproperClusterEntries: improper,
				DeletionsForTable:      result.DeletionsForTable,
			})
		}
		return ExitStatusOK
	}

	lister := cleaner.NewLister(db, logger)
	count, err := lister.Run(ctx, sel, opts.output)
	if err != nil {
		logger.Error().Err(err).Msg("listing failed")
		return ExitStatusError
	}
	m.RecordsListed.Add(float64(count))

	return ExitStatusOK
}
