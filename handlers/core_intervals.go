package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/coreapi/metrics"
	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/store"
)

type coreIntervalInput struct {
	CoreRunID Field[int]     `json:"core_run_id"`
	FromDepth Field[float64] `json:"from_depth"`
	ToDepth   Field[float64] `json:"to_depth"`

	Lithology     Field[string] `json:"lithology"`
	LithologyCode Field[string] `json:"lithology_code"`
	RockType      Field[string] `json:"rock_type"`
	Color         Field[string] `json:"color"`
	GrainSize     Field[string] `json:"grain_size"`
	Texture       Field[string] `json:"texture"`

	AlterationType      Field[string] `json:"alteration_type"`
	AlterationIntensity Field[string] `json:"alteration_intensity"`
	AlterationStyle     Field[string] `json:"alteration_style"`

	MineralizationType  Field[string]          `json:"mineralization_type"`
	MineralizationStyle Field[string]          `json:"mineralization_style"`
	MineralAbundance    Field[string]          `json:"mineral_abundance"`
	OreMinerals         Field[models.FlexText] `json:"ore_minerals"`

	FractureFrequency    Field[int]             `json:"fracture_frequency"`
	FractureOrientation  Field[string]          `json:"fracture_orientation"`
	BeddingOrientation   Field[string]          `json:"bedding_orientation"`
	FoliationOrientation Field[string]          `json:"foliation_orientation"`
	StructuralFeatures   Field[models.FlexText] `json:"structural_features"`

	RockStrength    Field[string] `json:"rock_strength"`
	WeatheringGrade Field[string] `json:"weathering_grade"`

	RecoveryPercentage Field[float64] `json:"recovery_percentage"`
	RQDContribution    Field[float64] `json:"rqd_contribution"`
	Comments           Field[string]  `json:"comments"`
	LoggedBy           Field[int]     `json:"logged_by"`
	LoggedDate         Field[string]  `json:"logged_date"`
}

// apply copies the present fields and recomputes interval_length.
// The owning run never changes after creation.
func (in *coreIntervalInput) apply(ci *models.CoreInterval) error {
	if err := firstErr(
		setValue("from_depth", in.FromDepth, &ci.FromDepth),
		setValue("to_depth", in.ToDepth, &ci.ToDepth),
		setValue("rqd_contribution", in.RQDContribution, &ci.RQDContribution),
		setDate("logged_date", in.LoggedDate, &ci.LoggedDate),
	); err != nil {
		return err
	}
	for _, f := range []struct {
		in  Field[string]
		dst **string
	}{
		{in.Lithology, &ci.Lithology},
		{in.LithologyCode, &ci.LithologyCode},
		{in.RockType, &ci.RockType},
		{in.Color, &ci.Color},
		{in.GrainSize, &ci.GrainSize},
		{in.Texture, &ci.Texture},
		{in.AlterationType, &ci.AlterationType},
		{in.AlterationIntensity, &ci.AlterationIntensity},
		{in.AlterationStyle, &ci.AlterationStyle},
		{in.MineralizationType, &ci.MineralizationType},
		{in.MineralizationStyle, &ci.MineralizationStyle},
		{in.MineralAbundance, &ci.MineralAbundance},
		{in.FractureOrientation, &ci.FractureOrientation},
		{in.BeddingOrientation, &ci.BeddingOrientation},
		{in.FoliationOrientation, &ci.FoliationOrientation},
		{in.RockStrength, &ci.RockStrength},
		{in.WeatheringGrade, &ci.WeatheringGrade},
		{in.Comments, &ci.Comments},
	} {
		setPtr(f.in, f.dst)
	}
	setText(in.OreMinerals, &ci.OreMinerals)
	setText(in.StructuralFeatures, &ci.StructuralFeatures)
	setPtr(in.FractureFrequency, &ci.FractureFrequency)
	setPtr(in.RecoveryPercentage, &ci.RecoveryPercentage)
	setPtr(in.LoggedBy, &ci.LoggedBy)

	ci.IntervalLength = metrics.IntervalLength(ci.FromDepth, ci.ToDepth)
	return nil
}

// newInterval validates a create body and builds the interval. notFoundMsg is
// the message used when the core run does not exist.
func newInterval(ctx context.Context, tx store.Store, in *coreIntervalInput, notFoundMsg func(id int) string) (*models.CoreInterval, error) {
	if err := firstErr(
		required("core_run_id", in.CoreRunID),
		required("from_depth", in.FromDepth),
		required("to_depth", in.ToDepth),
	); err != nil {
		return nil, err
	}
	runID := *in.CoreRunID.Value
	if _, err := tx.GetCoreRun(ctx, runID); err != nil {
		return nil, missing(err, notFoundMsg(runID))
	}
	ci := &models.CoreInterval{CoreRunID: runID}
	if err := in.apply(ci); err != nil {
		return nil, err
	}
	return ci, tx.CreateCoreInterval(ctx, ci)
}

// ListCoreIntervals filters by core_run_id and a lithology substring.
func (h *Handler) ListCoreIntervals(c echo.Context) error {
	runID, err := queryInt(c, "core_run_id", 0)
	if err != nil {
		return err
	}
	intervals, err := h.store.ListCoreIntervals(c.Request().Context(), store.CoreIntervalFilter{
		CoreRunID: runID,
		Lithology: c.QueryParam("lithology"),
	})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, intervals)
}

func (h *Handler) CreateCoreInterval(c echo.Context) error {
	var in coreIntervalInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var ci *models.CoreInterval
	err := h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		var err error
		ci, err = newInterval(ctx, tx, &in, func(int) string { return "Core run not found" })
		return err
	})
	if err != nil {
		return h.writeError("create core interval", err)
	}
	return c.JSON(http.StatusCreated, ci)
}

type bulkIntervalsInput struct {
	Intervals []coreIntervalInput `json:"intervals"`
}

type bulkIntervalsResult struct {
	Message   string                `json:"message"`
	Intervals []models.CoreInterval `json:"intervals"`
}

// CreateCoreIntervalsBulk creates every interval in one transaction. Any
// failing item rolls back the whole batch.
func (h *Handler) CreateCoreIntervalsBulk(c echo.Context) error {
	var in bulkIntervalsInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if len(in.Intervals) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No intervals provided")
	}

	created := make([]models.CoreInterval, 0, len(in.Intervals))
	err := h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		for i := range in.Intervals {
			ci, err := newInterval(ctx, tx, &in.Intervals[i], func(id int) string {
				return fmt.Sprintf("Core run %d not found", id)
			})
			if err != nil {
				return err
			}
			created = append(created, *ci)
		}
		return nil
	})
	if err != nil {
		return h.writeError("bulk create core intervals", err)
	}
	return c.JSON(http.StatusCreated, bulkIntervalsResult{
		Message:   fmt.Sprintf("Successfully created %d intervals", len(created)),
		Intervals: created,
	})
}

func (h *Handler) GetCoreInterval(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ci, err := h.store.GetCoreInterval(c.Request().Context(), id)
	if err != nil {
		return readError(err, "Core interval not found")
	}
	return c.JSON(http.StatusOK, ci)
}

// UpdateCoreInterval changes the present fields and recomputes interval_length.
func (h *Handler) UpdateCoreInterval(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in coreIntervalInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var ci *models.CoreInterval
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		var err error
		if ci, err = tx.GetCoreInterval(ctx, id); err != nil {
			return missing(err, "Core interval not found")
		}
		if err := in.apply(ci); err != nil {
			return err
		}
		return tx.UpdateCoreInterval(ctx, ci)
	})
	if err != nil {
		return h.writeError("update core interval", err)
	}
	return c.JSON(http.StatusOK, ci)
}

func (h *Handler) DeleteCoreInterval(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		return missing(tx.DeleteCoreInterval(ctx, id), "Core interval not found")
	})
	if err != nil {
		return h.writeError("delete core interval", err)
	}
	return c.NoContent(http.StatusNoContent)
}
