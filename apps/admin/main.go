package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/rwonjong94/anchormoms-web-sub002/core"
	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
	calendarsvc "github.com/rwonjong94/anchormoms-web-sub002/services/calendar"
	"github.com/rwonjong94/anchormoms-web-sub002/storage/database"
	dummydb "github.com/rwonjong94/anchormoms-web-sub002/storage/database/dummy"
	sqlxrepos "github.com/rwonjong94/anchormoms-web-sub002/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig(nil)
	errAndDie(err)

	// set up the roadmap store
	var db *sqlx.DB
	var repo roadmap.Repository
	if conf.Roadmap.Store == "memory" {
		mem, err := dummydb.Open()
		errAndDie(err)
		repo = dummydb.NewRoadmapRepository(mem)
	} else {
		db, err = database.Open(conf.Database)
		errAndDie(err)
		defer db.Close()
		repo = sqlxrepos.NewRoadmapRepository(db)
	}

	// base calendars are only needed by show, diff and export
	var calendars roadmap.CalendarSource
	if src, err := calendarsvc.NewFileSource(conf.Roadmap.CalendarFile); err != nil {
		calendars = unavailableCalendars{err: err}
	} else {
		calendars = src
	}

	// start CLI
	cli := commandLine{
		conf: conf,
		out:  os.Stdout,
		svc:  roadmap.NewService(repo, calendars, core.NopLogger{}, conf.Roadmap.MaxYears),
	}
	if db != nil {
		cli.db = db.DB
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		if db != nil {
			_ = db.Close()
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

// unavailableCalendars reports why the calendar file could not be loaded.
type unavailableCalendars struct {
	err error
}

func (uc unavailableCalendars) BaseCalendar(context.Context, string, roadmap.BaseSettings, int) (roadmap.Calendar, error) {
	return nil, uc.err
}
