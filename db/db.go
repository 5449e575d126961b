package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/config"
	"github.com/padraicbc/coreapi/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}

	return db
}

type table struct {
	model       interface{}
	foreignKeys []string
}

// CreateTables creates all tables in dependency order. Owned records cascade
// with their owner; QA/QC records keep only the drill hole id.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []table{
		{model: (*models.DrillHole)(nil)},
		{model: (*models.CoreRun)(nil), foreignKeys: []string{
			`("drill_hole_id") REFERENCES "drill_holes" ("id") ON DELETE CASCADE`,
		}},
		{model: (*models.CoreTray)(nil), foreignKeys: []string{
			`("drill_hole_id") REFERENCES "drill_holes" ("id") ON DELETE CASCADE`,
		}},
		{model: (*models.CoreInterval)(nil), foreignKeys: []string{
			`("core_run_id") REFERENCES "core_runs" ("id") ON DELETE CASCADE`,
		}},
		{model: (*models.QAQCRecord)(nil)},
		{model: (*models.QAQCItem)(nil)},
	}

	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", t.model, err)
		}
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*models.CoreRun)(nil), "core_runs_drill_hole_run_idx", []string{"drill_hole_id", "run_number"}},
		{(*models.CoreTray)(nil), "core_trays_drill_hole_idx", []string{"drill_hole_id"}},
		{(*models.CoreTray)(nil), "core_trays_barcode_idx", []string{"barcode"}},
		{(*models.CoreTray)(nil), "core_trays_rfid_tag_idx", []string{"rfid_tag"}},
		{(*models.CoreInterval)(nil), "core_intervals_core_run_idx", []string{"core_run_id"}},
		{(*models.QAQCRecord)(nil), "qaqc_records_drill_hole_idx", []string{"drill_hole_id"}},
	}
	for _, ix := range indexes {
		if _, err := db.NewCreateIndex().Model(ix.model).Index(ix.name).
			Column(ix.columns...).IfNotExists().Exec(ctx); err != nil {
			zap.L().Warn("create index", zap.String("index", ix.name), zap.Error(err))
		}
	}

	return nil
}
