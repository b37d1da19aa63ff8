package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-pluto/imaparg/auth"
	"github.com/go-pluto/imaparg/config"
	"github.com/go-pluto/imaparg/distributor"
)

// Functions

// initDatabase opens the backend a passdb or userdb
// section of the config names. Passwd files are taken
// from registry, so passdb and userdb share one file.
func initDatabase(ctx context.Context, db config.DB, registry *auth.Registry, forUserDB bool) (auth.Database, func(), error) {

	switch db.Driver {

	case config.DriverPostgres:
		pg, err := auth.NewPostgresDB(ctx,
			db.Postgres.IP,
			db.Postgres.Port,
			db.Postgres.Database,
			db.Postgres.User,
			db.Postgres.Password,
			db.Postgres.UseTLS,
		)
		if err != nil {
			return nil, nil, err
		}

		return pg, func() { pg.Close(context.Background()) }, nil

	case config.DriverPasswdFile:
		f, err := registry.Open(db.Args, forUserDB)
		if err != nil {
			return nil, nil, err
		}

		return f, func() { registry.Unref(f) }, nil
	}

	return nil, nil, fmt.Errorf("unknown database driver '%s'", db.Driver)
}

// initLogger initializes a JSON gokit-logger set
// to the according log level supplied via cli flag.
// Logs go to stderr, stdout carries IMAP responses.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

func main() {

	// Parse command-line flags.
	configFlag := flag.String("config", "config.toml", "Provide path to configuration file in TOML syntax.")
	envFlag := flag.String("env", "", "Optionally provide path to a .env file holding secrets, e.g. PLUTO_DB_PASSWORD.")
	loglevelFlag := flag.String("loglevel", "debug", "This flag sets the default logging level.")
	flag.Parse()

	logger := initLogger(*loglevelFlag)

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the config", "err", err,
		)
		os.Exit(1)
	}

	if *envFlag != "" {

		env, err := config.LoadEnv(*envFlag)
		if err != nil {
			level.Error(logger).Log(
				"msg", "failed to load the environment file", "err", err,
			)
			os.Exit(2)
		}

		env.Apply(conf)
	}

	ctx := context.Background()
	registry := auth.NewRegistry(logger)

	passdb, closePassDB, err := initDatabase(ctx, conf.PassDB, registry, false)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to initialize passdb",
			"err", err,
		)
		os.Exit(3)
	}
	defer closePassDB()

	userdb, closeUserDB, err := initDatabase(ctx, conf.UserDB, registry, true)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to initialize userdb",
			"err", err,
		)
		os.Exit(4)
	}
	defer closeUserDB()

	plutoMetrics := NewPlutoMetrics(conf.Distributor.PrometheusAddr)
	go runPromHTTP(logger, conf.Distributor.PrometheusAddr)

	var service distributor.Service
	service = distributor.NewService(log.With(logger, "service", "distributor"), conf, passdb, userdb)
	service = distributor.NewLoggingService(service, logger)
	service = distributor.NewMetricsService(service,
		plutoMetrics.Distributor.Logins,
		plutoMetrics.Distributor.Logouts,
		plutoMetrics.Distributor.Commands,
		plutoMetrics.Distributor.Rejected,
	)

	// Replay command lines from stdin as one session.
	c := distributor.NewConnection(os.Stdout, "stdin")

	if err := distributor.Run(service, c, conf.IMAP.Greeting, os.Stdin); err != nil {
		level.Error(logger).Log(
			"msg", "distributor session failed",
			"err", err,
		)
		os.Exit(5)
	}
}
