// Package reports folds core logging records into analytics reports.
// Every function is read-only over its input; averaged and percentage
// values are rounded to two decimals.
package reports

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/padraicbc/coreapi/metrics"
	"github.com/padraicbc/coreapi/models"
)

// DefaultDepthInterval is the recovery-by-depth bucket width in metres.
const DefaultDepthInterval = 50

// ErrInvalidWidth is returned for a non-positive depth bucket width.
var ErrInvalidWidth = errors.New("interval_size must be a positive integer")

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return metrics.Round2(sum / float64(n))
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return metrics.Round2(float64(part) / float64(total) * 100)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// RecoveryTrend summarises the runs of one drill hole.
type RecoveryTrend struct {
	DrillHoleID int     `json:"drill_hole_id"`
	HoleID      string  `json:"hole_id"`
	ProjectName string  `json:"project_name"`
	AvgRecovery float64 `json:"avg_recovery"`
	AvgRQD      float64 `json:"avg_rqd"`
	MinRecovery float64 `json:"min_recovery"`
	MaxRecovery float64 `json:"max_recovery"`
	TotalRuns   int     `json:"total_runs"`
}

// RecoveryTrends groups runs by drill hole. Runs must carry their DrillHole.
// Groups are ordered by hole_id.
func RecoveryTrends(runs []models.CoreRun) []RecoveryTrend {
	type acc struct {
		trend          RecoveryTrend
		sumRec, sumRQD float64
		minRec, maxRec float64
	}
	groups := map[int]*acc{}
	for _, r := range runs {
		a, ok := groups[r.DrillHoleID]
		if !ok {
			a = &acc{minRec: math.Inf(1), maxRec: math.Inf(-1)}
			a.trend.DrillHoleID = r.DrillHoleID
			if r.DrillHole != nil {
				a.trend.HoleID = r.DrillHole.HoleID
				a.trend.ProjectName = r.DrillHole.ProjectName
			}
			groups[r.DrillHoleID] = a
		}
		a.trend.TotalRuns++
		a.sumRec += r.TotalCoreRecovery
		a.sumRQD += r.RQDPercentage
		a.minRec = math.Min(a.minRec, r.TotalCoreRecovery)
		a.maxRec = math.Max(a.maxRec, r.TotalCoreRecovery)
	}

	out := make([]RecoveryTrend, 0, len(groups))
	for _, a := range groups {
		t := a.trend
		t.AvgRecovery = mean(a.sumRec, t.TotalRuns)
		t.AvgRQD = mean(a.sumRQD, t.TotalRuns)
		t.MinRecovery = metrics.Round2(a.minRec)
		t.MaxRecovery = metrics.Round2(a.maxRec)
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b RecoveryTrend) int {
		if c := cmp.Compare(a.HoleID, b.HoleID); c != 0 {
			return c
		}
		return cmp.Compare(a.DrillHoleID, b.DrillHoleID)
	})
	return out
}

// DepthBucket is one fixed-width depth band of runs.
type DepthBucket struct {
	Interval    string  `json:"interval"`
	FromDepth   int     `json:"from_depth"`
	ToDepth     int     `json:"to_depth"`
	AvgRecovery float64 `json:"avg_recovery"`
	AvgRQD      float64 `json:"avg_rqd"`
	TotalRuns   int     `json:"total_runs"`
}

// BucketStart is floor(from/width)*width.
func BucketStart(from float64, width int) int {
	return int(math.Floor(from/float64(width))) * width
}

// RecoveryByDepth buckets runs by their from_depth. Only buckets holding at
// least one run are returned, shallowest first.
func RecoveryByDepth(runs []models.CoreRun, width int) ([]DepthBucket, error) {
	if width <= 0 {
		return nil, ErrInvalidWidth
	}
	type acc struct {
		n              int
		sumRec, sumRQD float64
	}
	buckets := map[int]*acc{}
	for _, r := range runs {
		start := BucketStart(r.FromDepth, width)
		a, ok := buckets[start]
		if !ok {
			a = &acc{}
			buckets[start] = a
		}
		a.n++
		a.sumRec += r.TotalCoreRecovery
		a.sumRQD += r.RQDPercentage
	}

	out := make([]DepthBucket, 0, len(buckets))
	for start, a := range buckets {
		out = append(out, DepthBucket{
			Interval:    fmt.Sprintf("%d-%dm", start, start+width),
			FromDepth:   start,
			ToDepth:     start + width,
			AvgRecovery: mean(a.sumRec, a.n),
			AvgRQD:      mean(a.sumRQD, a.n),
			TotalRuns:   a.n,
		})
	}
	slices.SortFunc(out, func(a, b DepthBucket) int { return cmp.Compare(a.FromDepth, b.FromDepth) })
	return out, nil
}

// LithologyShare is one lithology's share of logged length.
type LithologyShare struct {
	Lithology   string  `json:"lithology"`
	Count       int     `json:"count"`
	TotalLength float64 `json:"total_length"`
	Percentage  float64 `json:"percentage"`
	AvgRecovery float64 `json:"avg_recovery"`
}

// LithologyDistribution groups intervals with a lithology by that value,
// longest total first.
func LithologyDistribution(intervals []models.CoreInterval) []LithologyShare {
	type acc struct {
		n           int
		length, rec float64
	}
	groups := map[string]*acc{}
	var total float64
	for _, ci := range intervals {
		if ci.Lithology == nil {
			continue
		}
		a, ok := groups[*ci.Lithology]
		if !ok {
			a = &acc{}
			groups[*ci.Lithology] = a
		}
		a.n++
		a.length += ci.IntervalLength
		a.rec += deref(ci.RecoveryPercentage)
		total += ci.IntervalLength
	}

	out := make([]LithologyShare, 0, len(groups))
	for lith, a := range groups {
		var pct float64
		if total > 0 {
			pct = a.length / total * 100
		}
		out = append(out, LithologyShare{
			Lithology:   lith,
			Count:       a.n,
			TotalLength: metrics.Round2(a.length),
			Percentage:  metrics.Round2(pct),
			AvgRecovery: mean(a.rec, a.n),
		})
	}
	slices.SortFunc(out, func(a, b LithologyShare) int {
		if c := cmp.Compare(b.TotalLength, a.TotalLength); c != 0 {
			return c
		}
		return cmp.Compare(a.Lithology, b.Lithology)
	})
	return out
}

// ProjectBreakdown summarises one project within a ProjectSummary.
type ProjectBreakdown struct {
	ProjectName string  `json:"project_name"`
	DrillHoles  int     `json:"drill_holes"`
	TotalDepth  float64 `json:"total_depth"`
	TotalRuns   int     `json:"total_runs"`
	AvgRecovery float64 `json:"avg_recovery"`
	AvgRQD      float64 `json:"avg_rqd"`
}

// ProjectSummary totals drill holes, runs and intervals.
type ProjectSummary struct {
	TotalDrillHoles int                `json:"total_drill_holes"`
	TotalCoreRuns   int                `json:"total_core_runs"`
	TotalIntervals  int                `json:"total_intervals"`
	TotalCoreLength float64            `json:"total_core_length"`
	AvgRecovery     float64            `json:"avg_recovery"`
	AvgRQD          float64            `json:"avg_rqd"`
	Projects        []ProjectBreakdown `json:"projects"`
}

// SummarizeProjects reports over holes. Runs and intervals that do not belong
// to one of holes are ignored; intervals must carry their CoreRun. No holes
// yields the zero report.
func SummarizeProjects(holes []models.DrillHole, runs []models.CoreRun, intervals []models.CoreInterval) ProjectSummary {
	out := ProjectSummary{Projects: []ProjectBreakdown{}}
	if len(holes) == 0 {
		return out
	}

	type acc struct {
		b              ProjectBreakdown
		sumRec, sumRQD float64
	}
	holeProject := make(map[int]string, len(holes))
	projects := map[string]*acc{}
	for _, dh := range holes {
		holeProject[dh.ID] = dh.ProjectName
		a, ok := projects[dh.ProjectName]
		if !ok {
			a = &acc{b: ProjectBreakdown{ProjectName: dh.ProjectName}}
			projects[dh.ProjectName] = a
		}
		a.b.DrillHoles++
		a.b.TotalDepth += deref(dh.TotalDepth)
	}

	var sumRec, sumRQD, length float64
	for _, r := range runs {
		name, ok := holeProject[r.DrillHoleID]
		if !ok {
			continue
		}
		out.TotalCoreRuns++
		sumRec += r.TotalCoreRecovery
		sumRQD += r.RQDPercentage
		length += r.CoreRecoveredLength

		a := projects[name]
		a.b.TotalRuns++
		a.sumRec += r.TotalCoreRecovery
		a.sumRQD += r.RQDPercentage
	}
	for _, ci := range intervals {
		if ci.CoreRun == nil {
			continue
		}
		if _, ok := holeProject[ci.CoreRun.DrillHoleID]; ok {
			out.TotalIntervals++
		}
	}

	out.TotalDrillHoles = len(holes)
	out.TotalCoreLength = metrics.Round2(length)
	out.AvgRecovery = mean(sumRec, out.TotalCoreRuns)
	out.AvgRQD = mean(sumRQD, out.TotalCoreRuns)
	for _, a := range projects {
		b := a.b
		b.TotalDepth = metrics.Round2(b.TotalDepth)
		b.AvgRecovery = mean(a.sumRec, b.TotalRuns)
		b.AvgRQD = mean(a.sumRQD, b.TotalRuns)
		out.Projects = append(out.Projects, b)
	}
	slices.SortFunc(out.Projects, func(a, b ProjectBreakdown) int { return cmp.Compare(a.ProjectName, b.ProjectName) })
	return out
}

// Dashboard is the unfiltered headline summary.
type Dashboard struct {
	TotalDrillHoles   int     `json:"totalDrillHoles"`
	TotalCoreRuns     int     `json:"totalCoreRuns"`
	TotalMetersLogged float64 `json:"totalMetersLogged"`
	AverageRecovery   float64 `json:"averageRecovery"`
	AverageRQD        float64 `json:"averageRQD"`
	ActiveProjects    int     `json:"activeProjects"`
}

// DashboardSummary counts and averages over every hole and run given.
func DashboardSummary(holes []models.DrillHole, runs []models.CoreRun) Dashboard {
	projects := map[string]struct{}{}
	for _, dh := range holes {
		projects[dh.ProjectName] = struct{}{}
	}
	var meters, sumRec, sumRQD float64
	for _, r := range runs {
		meters += r.CoreRecoveredLength
		sumRec += r.TotalCoreRecovery
		sumRQD += r.RQDPercentage
	}
	return Dashboard{
		TotalDrillHoles:   len(holes),
		TotalCoreRuns:     len(runs),
		TotalMetersLogged: metrics.Round2(meters),
		AverageRecovery:   mean(sumRec, len(runs)),
		AverageRQD:        mean(sumRQD, len(runs)),
		ActiveProjects:    len(projects),
	}
}

// HoleSummary is the per-hole summary card.
type HoleSummary struct {
	DrillHole       models.DrillHole `json:"drill_hole"`
	TotalRuns       int              `json:"total_runs"`
	TotalTrays      int              `json:"total_trays"`
	AverageRecovery float64          `json:"average_recovery"`
	AverageRQD      float64          `json:"average_rqd"`
	TotalCoreLength float64          `json:"total_core_length"`
}

// SummarizeHole reports over the runs and tray count of one drill hole.
func SummarizeHole(dh models.DrillHole, runs []models.CoreRun, trays int) HoleSummary {
	var sumRec, sumRQD, length float64
	for _, r := range runs {
		sumRec += r.TotalCoreRecovery
		sumRQD += r.RQDPercentage
		length += r.CoreRecoveredLength
	}
	return HoleSummary{
		DrillHole:       dh,
		TotalRuns:       len(runs),
		TotalTrays:      trays,
		AverageRecovery: mean(sumRec, len(runs)),
		AverageRQD:      mean(sumRQD, len(runs)),
		TotalCoreLength: metrics.Round2(length),
	}
}

// StatusCounts tallies QA/QC outcomes.
type StatusCounts struct {
	Total       int     `json:"total"`
	Pass        int     `json:"pass"`
	Warning     int     `json:"warning"`
	Fail        int     `json:"fail"`
	PassRate    float64 `json:"pass_rate"`
	WarningRate float64 `json:"warning_rate"`
	FailRate    float64 `json:"fail_rate"`
}

func (c *StatusCounts) add(status string) {
	c.Total++
	switch status {
	case models.StatusPass:
		c.Pass++
	case models.StatusWarning:
		c.Warning++
	case models.StatusFail:
		c.Fail++
	}
}

func (c *StatusCounts) finish() {
	c.PassRate = rate(c.Pass, c.Total)
	c.WarningRate = rate(c.Warning, c.Total)
	c.FailRate = rate(c.Fail, c.Total)
}

// QAQCStatistics is the overall and per-record-type QA/QC outcome summary.
type QAQCStatistics struct {
	TotalRecords int                     `json:"total_records"`
	PassCount    int                     `json:"pass_count"`
	WarningCount int                     `json:"warning_count"`
	FailCount    int                     `json:"fail_count"`
	PassRate     float64                 `json:"pass_rate"`
	WarningRate  float64                 `json:"warning_rate"`
	FailRate     float64                 `json:"fail_rate"`
	ByType       map[string]StatusCounts `json:"by_type"`
}

// QAQCStats tallies records by status. Statuses other than pass, warning and
// fail count toward totals only.
func QAQCStats(records []models.QAQCRecord) QAQCStatistics {
	var all StatusCounts
	byType := map[string]*StatusCounts{}
	for _, q := range records {
		all.add(q.Status)
		c, ok := byType[q.RecordType]
		if !ok {
			c = &StatusCounts{}
			byType[q.RecordType] = c
		}
		c.add(q.Status)
	}
	all.finish()

	out := QAQCStatistics{
		TotalRecords: all.Total,
		PassCount:    all.Pass,
		WarningCount: all.Warning,
		FailCount:    all.Fail,
		PassRate:     all.PassRate,
		WarningRate:  all.WarningRate,
		FailRate:     all.FailRate,
		ByType:       make(map[string]StatusCounts, len(byType)),
	}
	for k, c := range byType {
		c.finish()
		out.ByType[k] = *c
	}
	return out
}
