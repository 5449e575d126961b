// Command coretool imports and exports core-logging CSV files against the
// configured PostgreSQL database.
//
// Usage:
//
//	coretool import --type runs runs.csv
//	coretool export --type leapfrog --project "Copper Ridge" -o leapfrog.csv
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/config"
	"github.com/padraicbc/coreapi/db"
	applog "github.com/padraicbc/coreapi/logger"
	"github.com/padraicbc/coreapi/store"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	open := func(ctx context.Context) (store.Store, func(), error) {
		bdb := db.Setup(cfg)
		if err := db.CreateTables(ctx, bdb); err != nil {
			_ = bdb.Close()
			return nil, nil, err
		}
		return store.NewBun(bdb), func() { _ = bdb.Close() }, nil
	}

	if err := newRootCmd(open, logger).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
