package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/yungbote/agencyledger-backend/internal/app"
	"github.com/yungbote/agencyledger-backend/internal/pkg/envutil"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the ledger schema" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate

  Connects to DB_DRIVER (postgres or sqlite), runs the schema migration and
  ensures the rollup indexes exist.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log, err := app.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer log.Sync()

	driver := envutil.GetEnv("DB_DRIVER", "postgres", log)
	db, err := app.OpenDB(log, driver)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	fmt.Printf("schema up to date (%s)\n", driver)
	return subcommands.ExitSuccess
}
