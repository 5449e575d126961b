package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/metrics"
	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/store"
)

// Result reports a CSV import. Rows listed in Errors were skipped; every
// other row is committed.
type Result struct {
	Success       bool     `json:"success"`
	ImportedCount int      `json:"imported_count"`
	Errors        []string `json:"errors"`
}

// aliases maps lower-cased legacy headers onto canonical column names.
var aliases = map[string]string{
	"drill_hole":          "hole_id",
	"bhid":                "hole_id",
	"core_run":            "run_number",
	"from":                "from_depth",
	"to":                  "to_depth",
	"alteration":          "alteration_type",
	"alteration_code":     "alteration_type",
	"mineralization":      "mineralization_type",
	"mineralization_code": "mineralization_type",
	"structure":           "structural_features",
	"structure_code":      "structural_features",
	"recovery":            "recovery_percentage",
	"rqd":                 "rqd_contribution",
	"project":             "project_name",
	"collar_x":            "location_x",
	"collar_y":            "location_y",
	"collar_z":            "elevation",
}

func canonical(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if c, ok := aliases[h]; ok {
		return c
	}
	return h
}

// row is one CSV record addressed by canonical column name.
type row struct {
	cols   map[string][]int
	fields []string
}

// get returns the first non-empty value among the columns named col.
func (r row) get(col string) string {
	for _, i := range r.cols[col] {
		if i < len(r.fields) {
			if v := strings.TrimSpace(r.fields[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

func (r row) opt(col string) *string {
	v := r.get(col)
	if v == "" {
		return nil
	}
	return &v
}

func (r row) required(col string) (string, error) {
	v := r.get(col)
	if v == "" {
		return "", fmt.Errorf("%s is required", col)
	}
	return v, nil
}

func (r row) float(col string) (float64, error) {
	v, err := r.required(col)
	if err != nil {
		return 0, err
	}
	return parseFloat(col, v)
}

func (r row) optFloat(col string) (*float64, error) {
	v := r.get(col)
	if v == "" {
		return nil, nil
	}
	f, err := parseFloat(col, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r row) optInt(col string) (*int, error) {
	v := r.get(col)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid integer %q", col, v)
	}
	return &n, nil
}

func (r row) date(col string) (*string, error) {
	v := r.get(col)
	if v == "" {
		return nil, nil
	}
	d, err := models.ParseDate(col, v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseFloat(col, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", col, v)
	}
	return f, nil
}

// ParseRunNumber accepts "3" or "Run 3".
func ParseRunNumber(s string) (int, error) {
	f := strings.Fields(s)
	if len(f) == 2 && strings.EqualFold(f[0], "run") {
		s = f[1]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("run_number: invalid run %q", s)
	}
	return n, nil
}

// Importer loads CSV files into a Store one row at a time.
type Importer struct {
	store store.Store
	log   *zap.Logger
}

func NewImporter(st store.Store, log *zap.Logger) *Importer {
	return &Importer{store: st, log: log}
}

// Import reads a header row and then one record per row. Rows are
// committed individually; a failing row is reported and skipped.
// An error is returned only when the file itself cannot be read.
func (im *Importer) Import(ctx context.Context, r io.Reader, kind Kind) (Result, error) {
	var apply func(ctx context.Context, tx store.Store, rw row) error
	switch kind {
	case Intervals:
		apply = im.interval
	case Runs:
		apply = im.run
	case DrillHoles:
		apply = im.drillHole
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	res := Result{Success: true, Errors: []string{}}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string][]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		c := canonical(h)
		cols[c] = append(cols[c], i)
	}

	// the header is row 1
	for n := 2; ; n++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", n, perr.Err))
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("row %d: %w", n, err)
		}
		rw := row{cols: cols, fields: fields}
		err = im.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
			return apply(ctx, tx, rw)
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", n, err))
			continue
		}
		res.ImportedCount++
	}

	im.log.Info("csv import",
		zap.String("type", string(kind)),
		zap.String("imported", humanize.Comma(int64(res.ImportedCount))),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

func (im *Importer) holeFor(ctx context.Context, tx store.Store, rw row) (*models.DrillHole, error) {
	holeID, err := rw.required("hole_id")
	if err != nil {
		return nil, err
	}
	dh, err := tx.GetDrillHoleByHoleID(ctx, holeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("Drill hole %s not found", holeID)
	}
	return dh, err
}

func (im *Importer) interval(ctx context.Context, tx store.Store, rw row) error {
	dh, err := im.holeFor(ctx, tx, rw)
	if err != nil {
		return err
	}
	runText, err := rw.required("run_number")
	if err != nil {
		return err
	}
	runNumber, err := ParseRunNumber(runText)
	if err != nil {
		return err
	}
	cr, err := tx.GetCoreRunByNumber(ctx, dh.ID, runNumber)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("Core run Run %d not found for drill hole %s", runNumber, dh.HoleID)
	}
	if err != nil {
		return err
	}

	ci := models.CoreInterval{
		CoreRunID:           cr.ID,
		Lithology:           rw.opt("lithology"),
		LithologyCode:       rw.opt("lithology_code"),
		RockType:            rw.opt("rock_type"),
		Color:               rw.opt("color"),
		GrainSize:           rw.opt("grain_size"),
		Texture:             rw.opt("texture"),
		AlterationType:      rw.opt("alteration_type"),
		AlterationIntensity: rw.opt("alteration_intensity"),
		AlterationStyle:     rw.opt("alteration_style"),
		MineralizationType:  rw.opt("mineralization_type"),
		MineralizationStyle: rw.opt("mineralization_style"),
		MineralAbundance:    rw.opt("mineral_abundance"),
		OreMinerals:         rw.opt("ore_minerals"),
		FractureOrientation: rw.opt("fracture_orientation"),
		StructuralFeatures:  rw.opt("structural_features"),
		RockStrength:        rw.opt("rock_strength"),
		WeatheringGrade:     rw.opt("weathering_grade"),
		Comments:            rw.opt("comments"),
	}
	if ci.FromDepth, err = rw.float("from_depth"); err != nil {
		return err
	}
	if ci.ToDepth, err = rw.float("to_depth"); err != nil {
		return err
	}
	ci.IntervalLength = metrics.IntervalLength(ci.FromDepth, ci.ToDepth)
	if ci.FractureFrequency, err = rw.optInt("fracture_frequency"); err != nil {
		return err
	}
	if ci.RecoveryPercentage, err = rw.optFloat("recovery_percentage"); err != nil {
		return err
	}
	rqd, err := rw.optFloat("rqd_contribution")
	if err != nil {
		return err
	}
	if rqd != nil {
		ci.RQDContribution = *rqd
	}
	if ci.LoggedDate, err = rw.date("logged_date"); err != nil {
		return err
	}
	if ci.LoggedDate == nil {
		today := models.Today()
		ci.LoggedDate = &today
	}
	return tx.CreateCoreInterval(ctx, &ci)
}

func (im *Importer) run(ctx context.Context, tx store.Store, rw row) error {
	dh, err := im.holeFor(ctx, tx, rw)
	if err != nil {
		return err
	}
	runText, err := rw.required("run_number")
	if err != nil {
		return err
	}
	cr := models.CoreRun{DrillHoleID: dh.ID}
	if cr.RunNumber, err = ParseRunNumber(runText); err != nil {
		return err
	}
	if cr.FromDepth, err = rw.float("from_depth"); err != nil {
		return err
	}
	if cr.ToDepth, err = rw.float("to_depth"); err != nil {
		return err
	}
	if cr.CoreRecoveredLength, err = rw.float("core_recovered_length"); err != nil {
		return err
	}
	rqd, err := rw.optFloat("rqd_length")
	if err != nil {
		return err
	}
	if rqd != nil {
		cr.RQDLength = *rqd
	}
	if cr.DrillingDate, err = rw.date("drilling_date"); err != nil {
		return err
	}
	m := metrics.ComputeRun(cr.FromDepth, cr.ToDepth, cr.CoreRecoveredLength, cr.RQDLength)
	cr.RunLength, cr.TotalCoreRecovery, cr.RQDPercentage = m.RunLength, m.TotalCoreRecovery, m.RQDPercentage
	return tx.CreateCoreRun(ctx, &cr)
}

func (im *Importer) drillHole(ctx context.Context, tx store.Store, rw row) error {
	holeID, err := rw.required("hole_id")
	if err != nil {
		return err
	}
	exists := fmt.Errorf("Drill hole %s already exists", holeID)
	if _, err := tx.GetDrillHoleByHoleID(ctx, holeID); err == nil {
		return exists
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	dh := models.DrillHole{
		HoleID:          holeID,
		ProjectName:     rw.get("project_name"),
		DrillingCompany: rw.opt("drilling_company"),
	}
	for _, f := range []struct {
		col string
		dst **float64
	}{
		{"location_x", &dh.LocationX},
		{"location_y", &dh.LocationY},
		{"elevation", &dh.Elevation},
		{"azimuth", &dh.Azimuth},
		{"dip", &dh.Dip},
		{"total_depth", &dh.TotalDepth},
	} {
		if *f.dst, err = rw.optFloat(f.col); err != nil {
			return err
		}
	}
	if dh.StartDate, err = rw.date("start_date"); err != nil {
		return err
	}
	if dh.EndDate, err = rw.date("end_date"); err != nil {
		return err
	}
	err = tx.CreateDrillHole(ctx, &dh)
	if errors.Is(err, store.ErrConflict) {
		return exists
	}
	return err
}
