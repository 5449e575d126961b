// Package store is the persistence boundary for core logging records.
// Bun is the Postgres implementation; Memory is an in-process implementation
// used by tests and tooling.
package store

import (
	"context"
	"errors"

	"github.com/padraicbc/coreapi/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique business key is already taken.
	ErrConflict = errors.New("record already exists")
)

// DrillHoleFilter narrows ListDrillHoles. Zero values match everything.
type DrillHoleFilter struct {
	// ProjectName is a case-insensitive substring match.
	ProjectName string
}

// CoreRunFilter narrows ListCoreRuns.
type CoreRunFilter struct {
	DrillHoleID int
}

// CoreTrayFilter narrows ListCoreTrays.
type CoreTrayFilter struct {
	DrillHoleID int
	Status      string
	// Location is a case-insensitive substring match.
	Location string
}

// CoreIntervalFilter narrows ListCoreIntervals.
type CoreIntervalFilter struct {
	CoreRunID int
	// Lithology is a case-insensitive substring match.
	Lithology string
}

// QAQCRecordFilter narrows ListQAQCRecords.
type QAQCRecordFilter struct {
	DrillHoleID int
	RecordType  string
	Status      string
}

// QAQCItemFilter narrows ListQAQCItems.
type QAQCItemFilter struct {
	Status   string
	Type     string
	Priority string
}

// Scope selects records through their owning drill hole, for reports and exports.
type Scope struct {
	DrillHoleID int
	// ProjectName is a case-insensitive substring match on the drill hole.
	ProjectName string
}

// Store is the record store. Every method returning a single record
// returns ErrNotFound when it is absent.
type Store interface {
	CreateDrillHole(ctx context.Context, dh *models.DrillHole) error
	GetDrillHole(ctx context.Context, id int) (*models.DrillHole, error)
	GetDrillHoleByHoleID(ctx context.Context, holeID string) (*models.DrillHole, error)
	ListDrillHoles(ctx context.Context, f DrillHoleFilter) ([]models.DrillHole, error)
	UpdateDrillHole(ctx context.Context, dh *models.DrillHole) error
	// DeleteDrillHole removes the hole with its core runs, their intervals, and its trays.
	DeleteDrillHole(ctx context.Context, id int) error

	CreateCoreRun(ctx context.Context, r *models.CoreRun) error
	GetCoreRun(ctx context.Context, id int) (*models.CoreRun, error)
	GetCoreRunByNumber(ctx context.Context, drillHoleID, runNumber int) (*models.CoreRun, error)
	ListCoreRuns(ctx context.Context, f CoreRunFilter) ([]models.CoreRun, error)
	UpdateCoreRun(ctx context.Context, r *models.CoreRun) error
	// DeleteCoreRun removes the run with its intervals.
	DeleteCoreRun(ctx context.Context, id int) error

	CreateCoreTray(ctx context.Context, t *models.CoreTray) error
	GetCoreTray(ctx context.Context, id int) (*models.CoreTray, error)
	GetCoreTrayByBarcode(ctx context.Context, barcode string) (*models.CoreTray, error)
	GetCoreTrayByRFID(ctx context.Context, tag string) (*models.CoreTray, error)
	ListCoreTrays(ctx context.Context, f CoreTrayFilter) ([]models.CoreTray, error)
	UpdateCoreTray(ctx context.Context, t *models.CoreTray) error
	DeleteCoreTray(ctx context.Context, id int) error

	CreateCoreInterval(ctx context.Context, ci *models.CoreInterval) error
	GetCoreInterval(ctx context.Context, id int) (*models.CoreInterval, error)
	ListCoreIntervals(ctx context.Context, f CoreIntervalFilter) ([]models.CoreInterval, error)
	UpdateCoreInterval(ctx context.Context, ci *models.CoreInterval) error
	DeleteCoreInterval(ctx context.Context, id int) error

	CreateQAQCRecord(ctx context.Context, q *models.QAQCRecord) error
	GetQAQCRecord(ctx context.Context, id int) (*models.QAQCRecord, error)
	ListQAQCRecords(ctx context.Context, f QAQCRecordFilter) ([]models.QAQCRecord, error)
	UpdateQAQCRecord(ctx context.Context, q *models.QAQCRecord) error
	DeleteQAQCRecord(ctx context.Context, id int) error

	CreateQAQCItem(ctx context.Context, q *models.QAQCItem) error
	GetQAQCItem(ctx context.Context, id int) (*models.QAQCItem, error)
	ListQAQCItems(ctx context.Context, f QAQCItemFilter) ([]models.QAQCItem, error)
	UpdateQAQCItem(ctx context.Context, q *models.QAQCItem) error
	DeleteQAQCItem(ctx context.Context, id int) error

	// ScopedCoreRuns returns runs with DrillHole loaded, ordered by hole_id then from_depth.
	ScopedCoreRuns(ctx context.Context, s Scope) ([]models.CoreRun, error)
	// ScopedCoreIntervals returns intervals with CoreRun and CoreRun.DrillHole
	// loaded, ordered by hole_id then from_depth.
	ScopedCoreIntervals(ctx context.Context, s Scope) ([]models.CoreInterval, error)

	// RunInTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
