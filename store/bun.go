package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/padraicbc/coreapi/models"
)

// Bun is the Postgres-backed Store.
type Bun struct {
	db bun.IDB
}

var _ Store = (*Bun)(nil)

// NewBun wraps an open bun database.
func NewBun(db bun.IDB) *Bun {
	return &Bun{db: db}
}

// RunInTx implements Store.
func (s *Bun) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Bun{db: tx})
	})
}

func like(s string) string {
	return fmt.Sprintf("%%%s%%", s)
}

func readErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func writeErr(err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Field('D'))
	}
	return err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return writeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Bun) insert(ctx context.Context, model interface{}) error {
	_, err := s.db.NewInsert().Model(model).Returning("*").Exec(ctx)
	return writeErr(err)
}

// touch sets updated_at on the models that carry it. The column default only
// applies on insert.
func touch(model interface{}, now time.Time) {
	switch m := model.(type) {
	case *models.CoreRun:
		m.UpdatedAt = now
	case *models.CoreTray:
		m.UpdatedAt = now
	case *models.CoreInterval:
		m.UpdatedAt = now
	case *models.QAQCItem:
		m.UpdatedAt = now
	}
}

func (s *Bun) update(ctx context.Context, model interface{}) error {
	touch(model, time.Now())
	return affected(s.db.NewUpdate().Model(model).WherePK().Exec(ctx))
}

func (s *Bun) deleteByID(ctx context.Context, model interface{}, id int) error {
	return affected(s.db.NewDelete().Model(model).Where("id = ?", id).Exec(ctx))
}

// --- drill holes ---

func (s *Bun) CreateDrillHole(ctx context.Context, dh *models.DrillHole) error {
	return s.insert(ctx, dh)
}

func (s *Bun) GetDrillHole(ctx context.Context, id int) (*models.DrillHole, error) {
	dh := new(models.DrillHole)
	err := s.db.NewSelect().Model(dh).Where("dh.id = ?", id).Scan(ctx)
	return dh, readErr(err)
}

func (s *Bun) GetDrillHoleByHoleID(ctx context.Context, holeID string) (*models.DrillHole, error) {
	dh := new(models.DrillHole)
	err := s.db.NewSelect().Model(dh).Where("dh.hole_id = ?", holeID).Scan(ctx)
	return dh, readErr(err)
}

func (s *Bun) ListDrillHoles(ctx context.Context, f DrillHoleFilter) ([]models.DrillHole, error) {
	out := []models.DrillHole{}
	q := s.db.NewSelect().Model(&out).OrderExpr("dh.id ASC")
	if f.ProjectName != "" {
		q = q.Where("dh.project_name ILIKE ?", like(f.ProjectName))
	}
	return out, q.Scan(ctx)
}

func (s *Bun) UpdateDrillHole(ctx context.Context, dh *models.DrillHole) error {
	return s.update(ctx, dh)
}

func (s *Bun) DeleteDrillHole(ctx context.Context, id int) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		runs := tx.NewSelect().Model((*models.CoreRun)(nil)).Column("id").Where("drill_hole_id = ?", id)
		if _, err := tx.NewDelete().Model((*models.CoreInterval)(nil)).
			Where("core_run_id IN (?)", runs).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.CoreRun)(nil)).
			Where("drill_hole_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.CoreTray)(nil)).
			Where("drill_hole_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		return affected(tx.NewDelete().Model((*models.DrillHole)(nil)).Where("id = ?", id).Exec(ctx))
	})
}

// --- core runs ---

func (s *Bun) CreateCoreRun(ctx context.Context, r *models.CoreRun) error {
	return s.insert(ctx, r)
}

func (s *Bun) GetCoreRun(ctx context.Context, id int) (*models.CoreRun, error) {
	r := new(models.CoreRun)
	err := s.db.NewSelect().Model(r).Where("cr.id = ?", id).Scan(ctx)
	return r, readErr(err)
}

func (s *Bun) GetCoreRunByNumber(ctx context.Context, drillHoleID, runNumber int) (*models.CoreRun, error) {
	r := new(models.CoreRun)
	err := s.db.NewSelect().Model(r).
		Where("cr.drill_hole_id = ?", drillHoleID).
		Where("cr.run_number = ?", runNumber).
		OrderExpr("cr.id ASC").
		Limit(1).
		Scan(ctx)
	return r, readErr(err)
}

func (s *Bun) ListCoreRuns(ctx context.Context, f CoreRunFilter) ([]models.CoreRun, error) {
	out := []models.CoreRun{}
	q := s.db.NewSelect().Model(&out).OrderExpr("cr.from_depth ASC, cr.id ASC")
	if f.DrillHoleID != 0 {
		q = q.Where("cr.drill_hole_id = ?", f.DrillHoleID)
	}
	return out, q.Scan(ctx)
}

func (s *Bun) UpdateCoreRun(ctx context.Context, r *models.CoreRun) error {
	return s.update(ctx, r)
}

func (s *Bun) DeleteCoreRun(ctx context.Context, id int) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.CoreInterval)(nil)).
			Where("core_run_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		return affected(tx.NewDelete().Model((*models.CoreRun)(nil)).Where("id = ?", id).Exec(ctx))
	})
}

// --- core trays ---

func (s *Bun) CreateCoreTray(ctx context.Context, t *models.CoreTray) error {
	return s.insert(ctx, t)
}

func (s *Bun) GetCoreTray(ctx context.Context, id int) (*models.CoreTray, error) {
	return s.trayWhere(ctx, "ct.id = ?", id)
}

func (s *Bun) GetCoreTrayByBarcode(ctx context.Context, barcode string) (*models.CoreTray, error) {
	return s.trayWhere(ctx, "ct.barcode = ?", barcode)
}

func (s *Bun) GetCoreTrayByRFID(ctx context.Context, tag string) (*models.CoreTray, error) {
	return s.trayWhere(ctx, "ct.rfid_tag = ?", tag)
}

func (s *Bun) trayWhere(ctx context.Context, where string, arg interface{}) (*models.CoreTray, error) {
	t := new(models.CoreTray)
	err := s.db.NewSelect().Model(t).Where(where, arg).OrderExpr("ct.id ASC").Limit(1).Scan(ctx)
	return t, readErr(err)
}

func (s *Bun) ListCoreTrays(ctx context.Context, f CoreTrayFilter) ([]models.CoreTray, error) {
	out := []models.CoreTray{}
	q := s.db.NewSelect().Model(&out).OrderExpr("ct.from_depth ASC, ct.id ASC")
	if f.DrillHoleID != 0 {
		q = q.Where("ct.drill_hole_id = ?", f.DrillHoleID)
	}
	if f.Status != "" {
		q = q.Where("ct.status = ?", f.Status)
	}
	if f.Location != "" {
		q = q.Where("ct.location ILIKE ?", like(f.Location))
	}
	return out, q.Scan(ctx)
}

func (s *Bun) UpdateCoreTray(ctx context.Context, t *models.CoreTray) error {
	return s.update(ctx, t)
}

func (s *Bun) DeleteCoreTray(ctx context.Context, id int) error {
	return s.deleteByID(ctx, (*models.CoreTray)(nil), id)
}

// --- core intervals ---

func (s *Bun) CreateCoreInterval(ctx context.Context, ci *models.CoreInterval) error {
	return s.insert(ctx, ci)
}

func (s *Bun) GetCoreInterval(ctx context.Context, id int) (*models.CoreInterval, error) {
	ci := new(models.CoreInterval)
	err := s.db.NewSelect().Model(ci).Where("ci.id = ?", id).Scan(ctx)
	return ci, readErr(err)
}

func (s *Bun) ListCoreIntervals(ctx context.Context, f CoreIntervalFilter) ([]models.CoreInterval, error) {
	out := []models.CoreInterval{}
	q := s.db.NewSelect().Model(&out).OrderExpr("ci.from_depth ASC, ci.id ASC")
	if f.CoreRunID != 0 {
		q = q.Where("ci.core_run_id = ?", f.CoreRunID)
	}
	if f.Lithology != "" {
		q = q.Where("ci.lithology ILIKE ?", like(f.Lithology))
	}
	return out, q.Scan(ctx)
}

func (s *Bun) UpdateCoreInterval(ctx context.Context, ci *models.CoreInterval) error {
	return s.update(ctx, ci)
}

func (s *Bun) DeleteCoreInterval(ctx context.Context, id int) error {
	return s.deleteByID(ctx, (*models.CoreInterval)(nil), id)
}

// --- QA/QC ---

func (s *Bun) CreateQAQCRecord(ctx context.Context, q *models.QAQCRecord) error {
	return s.insert(ctx, q)
}

func (s *Bun) GetQAQCRecord(ctx context.Context, id int) (*models.QAQCRecord, error) {
	q := new(models.QAQCRecord)
	err := s.db.NewSelect().Model(q).Where("qr.id = ?", id).Scan(ctx)
	return q, readErr(err)
}

func (s *Bun) ListQAQCRecords(ctx context.Context, f QAQCRecordFilter) ([]models.QAQCRecord, error) {
	out := []models.QAQCRecord{}
	q := s.db.NewSelect().Model(&out).OrderExpr("qr.created_at DESC, qr.id DESC")
	if f.DrillHoleID != 0 {
		q = q.Where("qr.drill_hole_id = ?", f.DrillHoleID)
	}
	if f.RecordType != "" {
		q = q.Where("qr.record_type = ?", f.RecordType)
	}
	if f.Status != "" {
		q = q.Where("qr.status = ?", f.Status)
	}
	return out, q.Scan(ctx)
}

func (s *Bun) UpdateQAQCRecord(ctx context.Context, q *models.QAQCRecord) error {
	return s.update(ctx, q)
}

func (s *Bun) DeleteQAQCRecord(ctx context.Context, id int) error {
	return s.deleteByID(ctx, (*models.QAQCRecord)(nil), id)
}

func (s *Bun) CreateQAQCItem(ctx context.Context, q *models.QAQCItem) error {
	return s.insert(ctx, q)
}

func (s *Bun) GetQAQCItem(ctx context.Context, id int) (*models.QAQCItem, error) {
	q := new(models.QAQCItem)
	err := s.db.NewSelect().Model(q).Where("qi.id = ?", id).Scan(ctx)
	return q, readErr(err)
}

func (s *Bun) ListQAQCItems(ctx context.Context, f QAQCItemFilter) ([]models.QAQCItem, error) {
	out := []models.QAQCItem{}
	q := s.db.NewSelect().Model(&out).OrderExpr("qi.created_at DESC, qi.id DESC")
	if f.Status != "" {
		q = q.Where("qi.status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("qi.type = ?", f.Type)
	}
	if f.Priority != "" {
		q = q.Where("qi.priority = ?", f.Priority)
	}
	return out, q.Scan(ctx)
}

func (s *Bun) UpdateQAQCItem(ctx context.Context, q *models.QAQCItem) error {
	return s.update(ctx, q)
}

func (s *Bun) DeleteQAQCItem(ctx context.Context, id int) error {
	return s.deleteByID(ctx, (*models.QAQCItem)(nil), id)
}

// --- scoped joins ---

func (s *Bun) ScopedCoreRuns(ctx context.Context, sc Scope) ([]models.CoreRun, error) {
	out := []models.CoreRun{}
	q := s.db.NewSelect().Model(&out).
		Relation("DrillHole").
		OrderExpr("drill_hole.hole_id ASC, cr.from_depth ASC, cr.id ASC")
	if sc.DrillHoleID != 0 {
		q = q.Where("cr.drill_hole_id = ?", sc.DrillHoleID)
	}
	if sc.ProjectName != "" {
		q = q.Where("drill_hole.project_name ILIKE ?", like(sc.ProjectName))
	}
	return out, q.Scan(ctx)
}

func (s *Bun) ScopedCoreIntervals(ctx context.Context, sc Scope) ([]models.CoreInterval, error) {
	out := []models.CoreInterval{}
	q := s.db.NewSelect().Model(&out).
		Relation("CoreRun").
		Relation("CoreRun.DrillHole").
		OrderExpr("core_run__drill_hole.hole_id ASC, ci.from_depth ASC, ci.id ASC")
	if sc.DrillHoleID != 0 {
		q = q.Where("core_run.drill_hole_id = ?", sc.DrillHoleID)
	}
	if sc.ProjectName != "" {
		q = q.Where("core_run__drill_hole.project_name ILIKE ?", like(sc.ProjectName))
	}
	return out, q.Scan(ctx)
}
