package main

import (
	"github.com/pkg/errors"

	"github.com/rwonjong94/anchormoms-web-sub002/storage/database"
)

var gooseRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errors.New("migrations need the postgres store")
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(cli.db, cli.conf.Database.MigrationsDir, args[0], arguments...)
}
