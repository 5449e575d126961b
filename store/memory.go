package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/padraicbc/coreapi/models"
)

type memoryState struct {
	holes     map[int]models.DrillHole
	runs      map[int]models.CoreRun
	trays     map[int]models.CoreTray
	intervals map[int]models.CoreInterval
	records   map[int]models.QAQCRecord
	items     map[int]models.QAQCItem
	seq       map[string]int
}

func newMemoryState() memoryState {
	return memoryState{
		holes:     map[int]models.DrillHole{},
		runs:      map[int]models.CoreRun{},
		trays:     map[int]models.CoreTray{},
		intervals: map[int]models.CoreInterval{},
		records:   map[int]models.QAQCRecord{},
		items:     map[int]models.QAQCItem{},
		seq:       map[string]int{},
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		holes:     maps.Clone(s.holes),
		runs:      maps.Clone(s.runs),
		trays:     maps.Clone(s.trays),
		intervals: maps.Clone(s.intervals),
		records:   maps.Clone(s.records),
		items:     maps.Clone(s.items),
		seq:       maps.Clone(s.seq),
	}
}

func (s memoryState) next(table string) int {
	s.seq[table]++
	return s.seq[table]
}

// Memory is an in-process Store. Transactions are serialised and roll back
// by restoring a snapshot taken when the transaction began.
type Memory struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	state memoryState
	now   func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: newMemoryState(), now: time.Now}
}

type memoryTx struct {
	*Memory
}

// RunInTx on an open transaction joins it.
func (t memoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

// RunInTx implements Store.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.state.clone()
	m.mu.RUnlock()

	if err := fn(ctx, memoryTx{m}); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func containsFold(s *string, sub string) bool {
	if s == nil {
		return false
	}
	return strings.Contains(cases.Fold().String(*s), cases.Fold().String(sub))
}

func sorted[T any](m map[int]T, keep func(T) bool, less func(a, b T) int) []T {
	out := []T{}
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, less)
	return out
}

func (m *Memory) stamp(created, updated *time.Time) {
	now := m.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

// --- drill holes ---

func (m *Memory) holeIDTaken(holeID string, except int) bool {
	for _, dh := range m.state.holes {
		if dh.HoleID == holeID && dh.ID != except {
			return true
		}
	}
	return false
}

func (m *Memory) CreateDrillHole(_ context.Context, dh *models.DrillHole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holeIDTaken(dh.HoleID, 0) {
		return fmt.Errorf("%w: hole_id %s", ErrConflict, dh.HoleID)
	}
	dh.ID = m.state.next("drill_holes")
	m.stamp(&dh.CreatedAt, nil)
	m.state.holes[dh.ID] = *dh
	return nil
}

func (m *Memory) GetDrillHole(_ context.Context, id int) (*models.DrillHole, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dh, ok := m.state.holes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &dh, nil
}

func (m *Memory) GetDrillHoleByHoleID(_ context.Context, holeID string) (*models.DrillHole, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, dh := range m.state.holes {
		if dh.HoleID == holeID {
			return &dh, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListDrillHoles(_ context.Context, f DrillHoleFilter) ([]models.DrillHole, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sorted(m.state.holes,
		func(dh models.DrillHole) bool {
			return f.ProjectName == "" || containsFold(&dh.ProjectName, f.ProjectName)
		},
		func(a, b models.DrillHole) int { return cmp.Compare(a.ID, b.ID) },
	), nil
}

func (m *Memory) UpdateDrillHole(_ context.Context, dh *models.DrillHole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.holes[dh.ID]; !ok {
		return ErrNotFound
	}
	if m.holeIDTaken(dh.HoleID, dh.ID) {
		return fmt.Errorf("%w: hole_id %s", ErrConflict, dh.HoleID)
	}
	m.state.holes[dh.ID] = *dh
	return nil
}

func (m *Memory) DeleteDrillHole(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.holes[id]; !ok {
		return ErrNotFound
	}
	for rid, r := range m.state.runs {
		if r.DrillHoleID == id {
			m.deleteRunLocked(rid)
		}
	}
	for tid, t := range m.state.trays {
		if t.DrillHoleID == id {
			delete(m.state.trays, tid)
		}
	}
	delete(m.state.holes, id)
	return nil
}

// --- core runs ---

func (m *Memory) CreateCoreRun(_ context.Context, r *models.CoreRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.holes[r.DrillHoleID]; !ok {
		return fmt.Errorf("drill hole %d: %w", r.DrillHoleID, ErrNotFound)
	}
	r.ID = m.state.next("core_runs")
	m.stamp(&r.CreatedAt, &r.UpdatedAt)
	stored := *r
	stored.DrillHole = nil
	m.state.runs[r.ID] = stored
	return nil
}

func (m *Memory) GetCoreRun(_ context.Context, id int) (*models.CoreRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.state.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) GetCoreRunByNumber(_ context.Context, drillHoleID, runNumber int) (*models.CoreRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := sorted(m.state.runs,
		func(r models.CoreRun) bool { return r.DrillHoleID == drillHoleID && r.RunNumber == runNumber },
		func(a, b models.CoreRun) int { return cmp.Compare(a.ID, b.ID) },
	)
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func byDepth[T any](depth func(T) float64, id func(T) int) func(a, b T) int {
	return func(a, b T) int {
		if c := cmp.Compare(depth(a), depth(b)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	}
}

var runByDepth = byDepth(
	func(r models.CoreRun) float64 { return r.FromDepth },
	func(r models.CoreRun) int { return r.ID },
)

func (m *Memory) ListCoreRuns(_ context.Context, f CoreRunFilter) ([]models.CoreRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sorted(m.state.runs,
		func(r models.CoreRun) bool { return f.DrillHoleID == 0 || r.DrillHoleID == f.DrillHoleID },
		runByDepth,
	), nil
}

func (m *Memory) UpdateCoreRun(_ context.Context, r *models.CoreRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.runs[r.ID]; !ok {
		return ErrNotFound
	}
	stored := *r
	stored.DrillHole = nil
	m.state.runs[r.ID] = stored
	return nil
}

func (m *Memory) deleteRunLocked(id int) {
	for iid, ci := range m.state.intervals {
		if ci.CoreRunID == id {
			delete(m.state.intervals, iid)
		}
	}
	delete(m.state.runs, id)
}

func (m *Memory) DeleteCoreRun(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.runs[id]; !ok {
		return ErrNotFound
	}
	m.deleteRunLocked(id)
	return nil
}

// --- core trays ---

func (m *Memory) trayIDTaken(trayID string, except int) bool {
	for _, t := range m.state.trays {
		if t.TrayID == trayID && t.ID != except {
			return true
		}
	}
	return false
}

func (m *Memory) CreateCoreTray(_ context.Context, t *models.CoreTray) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.holes[t.DrillHoleID]; !ok {
		return fmt.Errorf("drill hole %d: %w", t.DrillHoleID, ErrNotFound)
	}
	if m.trayIDTaken(t.TrayID, 0) {
		return fmt.Errorf("%w: tray_id %s", ErrConflict, t.TrayID)
	}
	t.ID = m.state.next("core_trays")
	m.stamp(&t.CreatedAt, &t.UpdatedAt)
	m.state.trays[t.ID] = *t
	return nil
}

func (m *Memory) GetCoreTray(_ context.Context, id int) (*models.CoreTray, error) {
	return m.firstTray(func(t models.CoreTray) bool { return t.ID == id })
}

func (m *Memory) GetCoreTrayByBarcode(_ context.Context, barcode string) (*models.CoreTray, error) {
	return m.firstTray(func(t models.CoreTray) bool { return t.Barcode != nil && *t.Barcode == barcode })
}

func (m *Memory) GetCoreTrayByRFID(_ context.Context, tag string) (*models.CoreTray, error) {
	return m.firstTray(func(t models.CoreTray) bool { return t.RFIDTag != nil && *t.RFIDTag == tag })
}

func (m *Memory) firstTray(match func(models.CoreTray) bool) (*models.CoreTray, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := sorted(m.state.trays, match,
		func(a, b models.CoreTray) int { return cmp.Compare(a.ID, b.ID) })
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func (m *Memory) ListCoreTrays(_ context.Context, f CoreTrayFilter) ([]models.CoreTray, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sorted(m.state.trays,
		func(t models.CoreTray) bool {
			return (f.DrillHoleID == 0 || t.DrillHoleID == f.DrillHoleID) &&
				(f.Status == "" || t.Status == f.Status) &&
				(f.Location == "" || containsFold(t.Location, f.Location))
		},
		byDepth(
			func(t models.CoreTray) float64 { return t.FromDepth },
			func(t models.CoreTray) int { return t.ID },
		),
	), nil
}

func (m *Memory) UpdateCoreTray(_ context.Context, t *models.CoreTray) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.trays[t.ID]; !ok {
		return ErrNotFound
	}
	if m.trayIDTaken(t.TrayID, t.ID) {
		return fmt.Errorf("%w: tray_id %s", ErrConflict, t.TrayID)
	}
	m.state.trays[t.ID] = *t
	return nil
}

func (m *Memory) DeleteCoreTray(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.trays[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.trays, id)
	return nil
}

// --- core intervals ---

func (m *Memory) CreateCoreInterval(_ context.Context, ci *models.CoreInterval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.runs[ci.CoreRunID]; !ok {
		return fmt.Errorf("core run %d: %w", ci.CoreRunID, ErrNotFound)
	}
	ci.ID = m.state.next("core_intervals")
	m.stamp(&ci.CreatedAt, &ci.UpdatedAt)
	stored := *ci
	stored.CoreRun = nil
	m.state.intervals[ci.ID] = stored
	return nil
}

func (m *Memory) GetCoreInterval(_ context.Context, id int) (*models.CoreInterval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ci, ok := m.state.intervals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ci, nil
}

var intervalByDepth = byDepth(
	func(ci models.CoreInterval) float64 { return ci.FromDepth },
	func(ci models.CoreInterval) int { return ci.ID },
)

func (m *Memory) ListCoreIntervals(_ context.Context, f CoreIntervalFilter) ([]models.CoreInterval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sorted(m.state.intervals,
		func(ci models.CoreInterval) bool {
			return (f.CoreRunID == 0 || ci.CoreRunID == f.CoreRunID) &&
				(f.Lithology == "" || containsFold(ci.Lithology, f.Lithology))
		},
		intervalByDepth,
	), nil
}

func (m *Memory) UpdateCoreInterval(_ context.Context, ci *models.CoreInterval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.intervals[ci.ID]; !ok {
		return ErrNotFound
	}
	stored := *ci
	stored.CoreRun = nil
	m.state.intervals[ci.ID] = stored
	return nil
}

func (m *Memory) DeleteCoreInterval(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.intervals[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.intervals, id)
	return nil
}

// --- QA/QC ---

func newestFirst[T any](created func(T) time.Time, id func(T) int) func(a, b T) int {
	return func(a, b T) int {
		if c := created(b).Compare(created(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(b), id(a))
	}
}

func (m *Memory) CreateQAQCRecord(_ context.Context, q *models.QAQCRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.state.next("qaqc_records")
	m.stamp(&q.CreatedAt, nil)
	m.state.records[q.ID] = *q
	return nil
}

func (m *Memory) GetQAQCRecord(_ context.Context, id int) (*models.QAQCRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.state.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *Memory) ListQAQCRecords(_ context.Context, f QAQCRecordFilter) ([]models.QAQCRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sorted(m.state.records,
		func(q models.QAQCRecord) bool {
			return (f.DrillHoleID == 0 || q.DrillHoleID == f.DrillHoleID) &&
				(f.RecordType == "" || q.RecordType == f.RecordType) &&
				(f.Status == "" || q.Status == f.Status)
		},
		newestFirst(
			func(q models.QAQCRecord) time.Time { return q.CreatedAt },
			func(q models.QAQCRecord) int { return q.ID },
		),
	), nil
}

func (m *Memory) UpdateQAQCRecord(_ context.Context, q *models.QAQCRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.records[q.ID]; !ok {
		return ErrNotFound
	}
	m.state.records[q.ID] = *q
	return nil
}

func (m *Memory) DeleteQAQCRecord(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.records, id)
	return nil
}

func (m *Memory) CreateQAQCItem(_ context.Context, q *models.QAQCItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.state.next("qaqc_items")
	m.stamp(&q.CreatedAt, &q.UpdatedAt)
	m.state.items[q.ID] = *q
	return nil
}

func (m *Memory) GetQAQCItem(_ context.Context, id int) (*models.QAQCItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.state.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *Memory) ListQAQCItems(_ context.Context, f QAQCItemFilter) ([]models.QAQCItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sorted(m.state.items,
		func(q models.QAQCItem) bool {
			return (f.Status == "" || q.Status == f.Status) &&
				(f.Type == "" || q.Type == f.Type) &&
				(f.Priority == "" || q.Priority == f.Priority)
		},
		newestFirst(
			func(q models.QAQCItem) time.Time { return q.CreatedAt },
			func(q models.QAQCItem) int { return q.ID },
		),
	), nil
}

func (m *Memory) UpdateQAQCItem(_ context.Context, q *models.QAQCItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.items[q.ID]; !ok {
		return ErrNotFound
	}
	m.state.items[q.ID] = *q
	return nil
}

func (m *Memory) DeleteQAQCItem(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.items, id)
	return nil
}

// --- scoped joins ---

func (m *Memory) inScope(dh models.DrillHole, sc Scope) bool {
	return (sc.DrillHoleID == 0 || dh.ID == sc.DrillHoleID) &&
		(sc.ProjectName == "" || containsFold(&dh.ProjectName, sc.ProjectName))
}

func (m *Memory) ScopedCoreRuns(_ context.Context, sc Scope) ([]models.CoreRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.CoreRun{}
	for _, r := range m.state.runs {
		dh, ok := m.state.holes[r.DrillHoleID]
		if !ok || !m.inScope(dh, sc) {
			continue
		}
		r.DrillHole = &dh
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.CoreRun) int {
		if c := cmp.Compare(a.DrillHole.HoleID, b.DrillHole.HoleID); c != 0 {
			return c
		}
		return runByDepth(a, b)
	})
	return out, nil
}

func (m *Memory) ScopedCoreIntervals(_ context.Context, sc Scope) ([]models.CoreInterval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.CoreInterval{}
	for _, ci := range m.state.intervals {
		r, ok := m.state.runs[ci.CoreRunID]
		if !ok {
			continue
		}
		dh, ok := m.state.holes[r.DrillHoleID]
		if !ok || !m.inScope(dh, sc) {
			continue
		}
		r.DrillHole = &dh
		ci.CoreRun = &r
		out = append(out, ci)
	}
	slices.SortFunc(out, func(a, b models.CoreInterval) int {
		if c := cmp.Compare(a.CoreRun.DrillHole.HoleID, b.CoreRun.DrillHole.HoleID); c != 0 {
			return c
		}
		return intervalByDepth(a, b)
	})
	return out, nil
}
