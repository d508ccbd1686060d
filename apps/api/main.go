package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	echoapi "github.com/rwonjong94/anchormoms-web-sub002/apps/api/echo"
	"github.com/rwonjong94/anchormoms-web-sub002/core"
	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
	calendarsvc "github.com/rwonjong94/anchormoms-web-sub002/services/calendar"
	logsvc "github.com/rwonjong94/anchormoms-web-sub002/services/logger"
	"github.com/rwonjong94/anchormoms-web-sub002/storage/database"
	dummydb "github.com/rwonjong94/anchormoms-web-sub002/storage/database/dummy"
	sqlxrepos "github.com/rwonjong94/anchormoms-web-sub002/storage/database/sqlx"
)

const shutdownTimeout = 10 * time.Second

func main() {
	flags := pflag.NewFlagSet("api", pflag.ExitOnError)
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.Int("server.port", 8000, "port to listen on")
	flags.String("roadmap.store", "postgres", `roadmap store: "postgres" or "memory"`)
	flags.String("roadmap.calendarFile", "config/calendar.yaml", "base calendars file")
	flags.Bool("migrate", false, "apply the pending migrations before serving")
	_ = flags.Parse(os.Args[1:])

	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig(flags)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	repo, closeRepo, err := setUpRepository(conf, flags)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s store: %v", conf.Roadmap.Store, err), err)
	}
	defer closeRepo()

	calendars, err := calendarsvc.NewFileSource(conf.Roadmap.CalendarFile)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading base calendars: %v", err), err)
	}
	roadmapSvc := roadmap.NewService(repo, calendars, logger, conf.Roadmap.MaxYears)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	roadmap.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.Options{
		Conf:       conf,
		Logger:     logger,
		RoadmapSvc: roadmapSvc,
		Validate:   validate,
		Translator: translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpRepository opens the configured roadmap store. The returned func releases it.
func setUpRepository(conf *core.Config, flags *pflag.FlagSet) (roadmap.Repository, func(), error) {
	switch conf.Roadmap.Store {
	case "memory":
		db, err := dummydb.Open()
		if err != nil {
			return nil, nil, err
		}
		return dummydb.NewRoadmapRepository(db), func() {}, nil

	case "postgres":
		db, err := database.Open(conf.Database)
		if err != nil {
			return nil, nil, err
		}
		if migrate, _ := flags.GetBool("migrate"); migrate || conf.Env == "DEV" {
			if err = database.Migrate(db.DB, conf.Database.MigrationsDir, "up"); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return sqlxrepos.NewRoadmapRepository(db), closer(db), nil
	}
	return nil, nil, errors.Errorf("unknown roadmap store %q", conf.Roadmap.Store)
}

func closer(db *sqlx.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Printf("closing database: %v", err)
		}
	}
}
