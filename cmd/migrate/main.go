// cmd/migrate/main.go
// Copies the legacy MySQL core_logging_db into the PostgreSQL database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/core_logging_db?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/config"
	bundb "github.com/padraicbc/coreapi/db"
	applog "github.com/padraicbc/coreapi/logger"
	"github.com/padraicbc/coreapi/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		logger.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/core_logging_db?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("open mysql", zap.Error(err))
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		logger.Fatal("ping mysql", zap.Error(err))
	}
	logger.Info("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	logger.Info("connected to PostgreSQL")

	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		logger.Fatal("create tables", zap.Error(err))
	}

	// owners before the records that reference them
	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"drill_holes", func() (int, error) { return copyTable(ctx, myDB, pgDB, drillHoleQuery, scanDrillHole) }},
		{"core_runs", func() (int, error) { return copyTable(ctx, myDB, pgDB, coreRunQuery, scanCoreRun) }},
		{"core_trays", func() (int, error) { return copyTable(ctx, myDB, pgDB, coreTrayQuery, scanCoreTray) }},
		{"core_intervals", func() (int, error) { return copyTable(ctx, myDB, pgDB, coreIntervalQuery, scanCoreInterval) }},
		{"qaqc_records", func() (int, error) { return copyTable(ctx, myDB, pgDB, qaqcRecordQuery, scanQAQCRecord) }},
		{"qaqc_items", func() (int, error) { return copyTable(ctx, myDB, pgDB, qaqcItemQuery, scanQAQCItem) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			logger.Fatal("migrate", zap.String("table", s.name), zap.Error(err))
		}
		logger.Info("rows migrated", zap.String("table", s.name), zap.String("rows", humanize.Comma(int64(n))))
	}

	resetSequences(ctx, pgDB)
	logger.Info("migration complete")
}

// --- helpers ---

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullStr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func nullDate(n sql.NullTime) *string {
	if !n.Valid {
		return nil
	}
	s := n.Time.Format(models.DateLayout)
	return &s
}

func nullTime(n sql.NullTime) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return n.Time
}

func orDefault(n sql.NullString, def string) string {
	if !n.Valid || n.String == "" {
		return def
	}
	return n.String
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// copyTable streams query from MySQL and inserts the scanned rows in batches.
func copyTable[T any](ctx context.Context, myDB *sql.DB, pgDB *bun.DB, query string, scan func(*sql.Rows) (T, error)) (int, error) {
	rows, err := myDB.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []T
	total := 0
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

// --- per-table scans ---

const drillHoleQuery = `SELECT id, hole_id, project_name, location_x, location_y, elevation,
	azimuth, dip, total_depth, start_date, end_date, drilling_company, created_at
	FROM drill_hole`

func scanDrillHole(rows *sql.Rows) (models.DrillHole, error) {
	var (
		dh                    models.DrillHole
		x, y, elev, az, dip   sql.NullFloat64
		depth                 sql.NullFloat64
		start, end, createdAt sql.NullTime
		company               sql.NullString
	)
	err := rows.Scan(&dh.ID, &dh.HoleID, &dh.ProjectName, &x, &y, &elev,
		&az, &dip, &depth, &start, &end, &company, &createdAt)
	dh.LocationX, dh.LocationY, dh.Elevation = nullFloat(x), nullFloat(y), nullFloat(elev)
	dh.Azimuth, dh.Dip, dh.TotalDepth = nullFloat(az), nullFloat(dip), nullFloat(depth)
	dh.StartDate, dh.EndDate = nullDate(start), nullDate(end)
	dh.DrillingCompany = nullStr(company)
	dh.CreatedAt = nullTime(createdAt)
	return dh, err
}

const coreRunQuery = `SELECT id, drill_hole_id, run_number, from_depth, to_depth, run_length,
	core_recovered_length, total_core_recovery, rqd_length, rqd_percentage,
	drilling_date, logged_by, created_at, updated_at
	FROM core_run`

func scanCoreRun(rows *sql.Rows) (models.CoreRun, error) {
	var (
		r                   models.CoreRun
		rqdLen, rqdPct      sql.NullFloat64
		drilled             sql.NullTime
		loggedBy            sql.NullInt64
		createdAt, updateAt sql.NullTime
	)
	err := rows.Scan(&r.ID, &r.DrillHoleID, &r.RunNumber, &r.FromDepth, &r.ToDepth, &r.RunLength,
		&r.CoreRecoveredLength, &r.TotalCoreRecovery, &rqdLen, &rqdPct,
		&drilled, &loggedBy, &createdAt, &updateAt)
	r.RQDLength, r.RQDPercentage = rqdLen.Float64, rqdPct.Float64
	r.DrillingDate = nullDate(drilled)
	r.LoggedBy = nullInt(loggedBy)
	r.CreatedAt, r.UpdatedAt = nullTime(createdAt), nullTime(updateAt)
	return r, err
}

const coreTrayQuery = `SELECT id, tray_id, drill_hole_id, from_depth, to_depth, barcode, rfid_tag,
	photo_path, location, status, created_at, updated_at
	FROM core_tray`

func scanCoreTray(rows *sql.Rows) (models.CoreTray, error) {
	var (
		t                                 models.CoreTray
		barcode, rfid, photo, loc, status sql.NullString
		createdAt, updatedAt              sql.NullTime
	)
	err := rows.Scan(&t.ID, &t.TrayID, &t.DrillHoleID, &t.FromDepth, &t.ToDepth, &barcode, &rfid,
		&photo, &loc, &status, &createdAt, &updatedAt)
	t.Barcode, t.RFIDTag, t.PhotoPath, t.Location = nullStr(barcode), nullStr(rfid), nullStr(photo), nullStr(loc)
	t.Status = orDefault(status, models.DefaultTrayStatus)
	t.CreatedAt, t.UpdatedAt = nullTime(createdAt), nullTime(updatedAt)
	return t, err
}

const coreIntervalQuery = `SELECT id, core_run_id, from_depth, to_depth, interval_length,
	lithology, lithology_code, rock_type, color, grain_size, texture,
	alteration_type, alteration_intensity, alteration_style,
	mineralization_type, mineralization_style, mineral_abundance, ore_minerals,
	fracture_frequency, fracture_orientation, bedding_orientation, foliation_orientation,
	structural_features, rock_strength, weathering_grade,
	recovery_percentage, rqd_contribution, comments, logged_by, logged_date,
	created_at, updated_at
	FROM core_interval`

func scanCoreInterval(rows *sql.Rows) (models.CoreInterval, error) {
	var (
		ci                   models.CoreInterval
		text                 [20]sql.NullString
		fracFreq, loggedBy   sql.NullInt64
		recovery, rqd        sql.NullFloat64
		logged               sql.NullTime
		createdAt, updatedAt sql.NullTime
	)
	dsts := []**string{
		&ci.Lithology, &ci.LithologyCode, &ci.RockType, &ci.Color, &ci.GrainSize, &ci.Texture,
		&ci.AlterationType, &ci.AlterationIntensity, &ci.AlterationStyle,
		&ci.MineralizationType, &ci.MineralizationStyle, &ci.MineralAbundance, &ci.OreMinerals,
		&ci.FractureOrientation, &ci.BeddingOrientation, &ci.FoliationOrientation,
		&ci.StructuralFeatures, &ci.RockStrength, &ci.WeatheringGrade, &ci.Comments,
	}
	err := rows.Scan(&ci.ID, &ci.CoreRunID, &ci.FromDepth, &ci.ToDepth, &ci.IntervalLength,
		&text[0], &text[1], &text[2], &text[3], &text[4], &text[5],
		&text[6], &text[7], &text[8],
		&text[9], &text[10], &text[11], &text[12],
		&fracFreq, &text[13], &text[14], &text[15],
		&text[16], &text[17], &text[18],
		&recovery, &rqd, &text[19], &loggedBy, &logged,
		&createdAt, &updatedAt)
	for i, dst := range dsts {
		*dst = nullStr(text[i])
	}
	ci.FractureFrequency = nullInt(fracFreq)
	ci.RecoveryPercentage = nullFloat(recovery)
	ci.RQDContribution = rqd.Float64
	ci.LoggedBy = nullInt(loggedBy)
	ci.LoggedDate = nullDate(logged)
	ci.CreatedAt, ci.UpdatedAt = nullTime(createdAt), nullTime(updatedAt)
	return ci, err
}

const qaqcRecordQuery = `SELECT id, drill_hole_id, record_type, sample_id, from_depth, to_depth,
	expected_value, actual_value, variance, status, comments, created_at
	FROM qaqc_record`

func scanQAQCRecord(rows *sql.Rows) (models.QAQCRecord, error) {
	var (
		q                            models.QAQCRecord
		sample, status, comments     sql.NullString
		from, to, exp, act, variance sql.NullFloat64
		createdAt                    sql.NullTime
	)
	err := rows.Scan(&q.ID, &q.DrillHoleID, &q.RecordType, &sample, &from, &to,
		&exp, &act, &variance, &status, &comments, &createdAt)
	q.SampleID, q.Comments = nullStr(sample), nullStr(comments)
	q.FromDepth, q.ToDepth = nullFloat(from), nullFloat(to)
	q.ExpectedValue, q.ActualValue, q.Variance = nullFloat(exp), nullFloat(act), nullFloat(variance)
	q.Status = orDefault(status, models.StatusPass)
	q.CreatedAt = nullTime(createdAt)
	return q, err
}

const qaqcItemQuery = `SELECT id, title, description, type, priority, status, assigned_to,
	created_by, drill_hole, core_run, created_date, due_date, resolved_date,
	comments_count, attachments_count, created_at, updated_at
	FROM qaqc_items`

func scanQAQCItem(rows *sql.Rows) (models.QAQCItem, error) {
	var (
		q                                models.QAQCItem
		desc, prio, status, assigned     sql.NullString
		hole, run                        sql.NullString
		createdBy, comments, attachments sql.NullInt64
		created, due, resolved           sql.NullTime
		createdAt, updatedAt             sql.NullTime
	)
	err := rows.Scan(&q.ID, &q.Title, &desc, &q.Type, &prio, &status, &assigned,
		&createdBy, &hole, &run, &created, &due, &resolved,
		&comments, &attachments, &createdAt, &updatedAt)
	q.Description, q.AssignedTo = nullStr(desc), nullStr(assigned)
	q.Priority, q.Status = orDefault(prio, "medium"), orDefault(status, "open")
	q.CreatedBy = nullInt(createdBy)
	q.DrillHole, q.CoreRun = nullStr(hole), nullStr(run)
	q.CreatedDate, q.DueDate, q.ResolvedDate = nullDate(created), nullDate(due), nullDate(resolved)
	q.CommentsCount, q.AttachmentsCount = int(comments.Int64), int(attachments.Int64)
	q.CreatedAt, q.UpdatedAt = nullTime(createdAt), nullTime(updatedAt)
	return q, err
}

// resetSequences advances each PG sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	for _, table := range []string{
		"drill_holes", "core_runs", "core_trays", "core_intervals", "qaqc_records", "qaqc_items",
	} {
		q := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 1))",
			table,
		)
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			zap.L().Warn("reset sequence", zap.String("table", table), zap.Error(err))
		}
	}
	zap.L().Info("sequences reset")
}
