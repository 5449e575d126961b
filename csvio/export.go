// Package csvio reads and writes core logging records as CSV.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/store"
)

// Kind names a CSV record layout.
type Kind string

const (
	Intervals  Kind = "intervals"
	Runs       Kind = "runs"
	DrillHoles Kind = "drill_holes"
	QAQCItems  Kind = "qaqc"
	Leapfrog   Kind = "leapfrog"
)

// ErrUnknownKind is returned for a Kind that has no layout in that direction.
var ErrUnknownKind = errors.New("invalid export type")

var (
	IntervalColumns = []string{
		"hole_id", "project_name", "run_number", "from_depth", "to_depth",
		"interval_length", "lithology", "lithology_code", "rock_type", "color",
		"alteration_type", "alteration_intensity", "mineralization_type",
		"mineral_abundance", "fracture_frequency", "rock_strength",
		"recovery_percentage", "rqd_contribution", "comments",
	}
	RunColumns = []string{
		"hole_id", "project_name", "run_number", "from_depth", "to_depth",
		"run_length", "core_recovered_length", "total_core_recovery",
		"rqd_length", "rqd_percentage", "drilling_date",
	}
	DrillHoleColumns = []string{
		"hole_id", "project_name", "location_x", "location_y", "elevation",
		"azimuth", "dip", "total_depth", "start_date", "end_date", "drilling_company",
	}
	QAQCItemColumns = []string{
		"id", "title", "description", "type", "priority", "status",
		"assigned_to", "drill_hole", "core_run", "created_date", "due_date",
		"resolved_date", "comments_count", "attachments_count",
	}
	LeapfrogColumns = []string{
		"BHID", "FROM", "TO", "LITHOLOGY", "ALTERATION", "MINERALIZATION",
		"RECOVERY", "RQD", "STRUCTURE", "COMMENTS",
	}
)

// Filename is the download name for an export taken at t.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, t.Format("20060102_150405"))
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func numPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func intPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// coalesce returns the first present, non-empty value.
func coalesce(vs ...*string) string {
	for _, v := range vs {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func holeOf(ci models.CoreInterval) (*models.CoreRun, *models.DrillHole) {
	r := ci.CoreRun
	if r == nil {
		return &models.CoreRun{}, &models.DrillHole{}
	}
	if r.DrillHole == nil {
		return r, &models.DrillHole{}
	}
	return r, r.DrillHole
}

// WriteIntervals writes intervals in IntervalColumns order. Each interval
// should carry its CoreRun and DrillHole.
func WriteIntervals(w io.Writer, intervals []models.CoreInterval) error {
	rows := make([][]string, 0, len(intervals))
	for _, ci := range intervals {
		r, dh := holeOf(ci)
		rows = append(rows, []string{
			dh.HoleID,
			dh.ProjectName,
			strconv.Itoa(r.RunNumber),
			num(ci.FromDepth),
			num(ci.ToDepth),
			num(ci.IntervalLength),
			str(ci.Lithology),
			str(ci.LithologyCode),
			str(ci.RockType),
			str(ci.Color),
			str(ci.AlterationType),
			str(ci.AlterationIntensity),
			str(ci.MineralizationType),
			str(ci.MineralAbundance),
			intPtr(ci.FractureFrequency),
			str(ci.RockStrength),
			numPtr(ci.RecoveryPercentage),
			num(ci.RQDContribution),
			str(ci.Comments),
		})
	}
	return write(w, IntervalColumns, rows)
}

// WriteLeapfrog writes intervals in the Leapfrog geology layout, preferring
// coded values over descriptive ones.
func WriteLeapfrog(w io.Writer, intervals []models.CoreInterval) error {
	rows := make([][]string, 0, len(intervals))
	for _, ci := range intervals {
		_, dh := holeOf(ci)
		rows = append(rows, []string{
			dh.HoleID,
			num(ci.FromDepth),
			num(ci.ToDepth),
			coalesce(ci.LithologyCode, ci.Lithology),
			coalesce(ci.AlterationType, ci.AlterationStyle),
			coalesce(ci.MineralizationType, ci.MineralizationStyle),
			numPtr(ci.RecoveryPercentage),
			num(ci.RQDContribution),
			coalesce(ci.StructuralFeatures, ci.FractureOrientation),
			str(ci.Comments),
		})
	}
	return write(w, LeapfrogColumns, rows)
}

// WriteRuns writes runs in RunColumns order. Each run should carry its DrillHole.
func WriteRuns(w io.Writer, runs []models.CoreRun) error {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		dh := r.DrillHole
		if dh == nil {
			dh = &models.DrillHole{}
		}
		rows = append(rows, []string{
			dh.HoleID,
			dh.ProjectName,
			strconv.Itoa(r.RunNumber),
			num(r.FromDepth),
			num(r.ToDepth),
			num(r.RunLength),
			num(r.CoreRecoveredLength),
			num(r.TotalCoreRecovery),
			num(r.RQDLength),
			num(r.RQDPercentage),
			str(r.DrillingDate),
		})
	}
	return write(w, RunColumns, rows)
}

func WriteDrillHoles(w io.Writer, holes []models.DrillHole) error {
	rows := make([][]string, 0, len(holes))
	for _, dh := range holes {
		rows = append(rows, []string{
			dh.HoleID,
			dh.ProjectName,
			numPtr(dh.LocationX),
			numPtr(dh.LocationY),
			numPtr(dh.Elevation),
			numPtr(dh.Azimuth),
			numPtr(dh.Dip),
			numPtr(dh.TotalDepth),
			str(dh.StartDate),
			str(dh.EndDate),
			str(dh.DrillingCompany),
		})
	}
	return write(w, DrillHoleColumns, rows)
}

func WriteQAQCItems(w io.Writer, items []models.QAQCItem) error {
	rows := make([][]string, 0, len(items))
	for _, q := range items {
		rows = append(rows, []string{
			strconv.Itoa(q.ID),
			q.Title,
			str(q.Description),
			q.Type,
			q.Priority,
			q.Status,
			str(q.AssignedTo),
			str(q.DrillHole),
			str(q.CoreRun),
			str(q.CreatedDate),
			str(q.DueDate),
			str(q.ResolvedDate),
			strconv.Itoa(q.CommentsCount),
			strconv.Itoa(q.AttachmentsCount),
		})
	}
	return write(w, QAQCItemColumns, rows)
}

// Export loads the records of kind within sc and writes them to w.
// QA/QC items are not tied to a drill hole and ignore sc.
func Export(ctx context.Context, st store.Store, w io.Writer, kind Kind, sc store.Scope) error {
	switch kind {
	case Intervals, Leapfrog:
		intervals, err := st.ScopedCoreIntervals(ctx, sc)
		if err != nil {
			return err
		}
		if kind == Leapfrog {
			return WriteLeapfrog(w, intervals)
		}
		return WriteIntervals(w, intervals)
	case Runs:
		runs, err := st.ScopedCoreRuns(ctx, sc)
		if err != nil {
			return err
		}
		return WriteRuns(w, runs)
	case DrillHoles:
		holes, err := scopedHoles(ctx, st, sc)
		if err != nil {
			return err
		}
		return WriteDrillHoles(w, holes)
	case QAQCItems:
		items, err := st.ListQAQCItems(ctx, store.QAQCItemFilter{})
		if err != nil {
			return err
		}
		return WriteQAQCItems(w, items)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// scopedHoles applies both parts of sc, the same way the scoped run and
// interval queries do.
func scopedHoles(ctx context.Context, st store.Store, sc store.Scope) ([]models.DrillHole, error) {
	holes, err := st.ListDrillHoles(ctx, store.DrillHoleFilter{ProjectName: sc.ProjectName})
	if err != nil || sc.DrillHoleID == 0 {
		return holes, err
	}
	out := []models.DrillHole{}
	for _, dh := range holes {
		if dh.ID == sc.DrillHoleID {
			out = append(out, dh)
		}
	}
	return out, nil
}
