package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/coreapi/csvio"
	"github.com/padraicbc/coreapi/reports"
	"github.com/padraicbc/coreapi/store"
)

// RecoveryTrends groups run recovery and RQD by drill hole.
func (h *Handler) RecoveryTrends(c echo.Context) error {
	sc, err := scopeParams(c)
	if err != nil {
		return err
	}
	runs, err := h.store.ScopedCoreRuns(c.Request().Context(), sc)
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, reports.RecoveryTrends(runs))
}

// RecoveryByDepth buckets runs by from_depth. interval_size defaults to the
// configured depth interval.
func (h *Handler) RecoveryByDepth(c echo.Context) error {
	sc, err := scopeParams(c)
	if err != nil {
		return err
	}
	width, err := queryInt(c, "interval_size", h.depthInterval)
	if err != nil {
		return err
	}
	runs, err := h.store.ScopedCoreRuns(c.Request().Context(), sc)
	if err != nil {
		return readError(err, "")
	}
	buckets, err := reports.RecoveryByDepth(runs, width)
	if errors.Is(err, reports.ErrInvalidWidth) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, buckets)
}

func (h *Handler) LithologyDistribution(c echo.Context) error {
	sc, err := scopeParams(c)
	if err != nil {
		return err
	}
	intervals, err := h.store.ScopedCoreIntervals(c.Request().Context(), sc)
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, reports.LithologyDistribution(intervals))
}

// ProjectSummary totals holes, metres and intervals per project. project_name
// narrows it to matching projects.
func (h *Handler) ProjectSummary(c echo.Context) error {
	ctx := c.Request().Context()
	sc := store.Scope{ProjectName: c.QueryParam("project_name")}

	holes, err := h.store.ListDrillHoles(ctx, store.DrillHoleFilter{ProjectName: sc.ProjectName})
	if err != nil {
		return readError(err, "")
	}
	runs, err := h.store.ScopedCoreRuns(ctx, sc)
	if err != nil {
		return readError(err, "")
	}
	intervals, err := h.store.ScopedCoreIntervals(ctx, sc)
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, reports.SummarizeProjects(holes, runs, intervals))
}

// DashboardSummary reports whole-database totals.
func (h *Handler) DashboardSummary(c echo.Context) error {
	ctx := c.Request().Context()
	holes, err := h.store.ListDrillHoles(ctx, store.DrillHoleFilter{})
	if err != nil {
		return readError(err, "")
	}
	runs, err := h.store.ScopedCoreRuns(ctx, store.Scope{})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, map[string]reports.Dashboard{
		"summary": reports.DashboardSummary(holes, runs),
	})
}

type csvEnvelope struct {
	CSVData  string `json:"csv_data"`
	Filename string `json:"filename"`
}

// ExportCSVData returns an intervals or runs export inline as JSON.
func (h *Handler) ExportCSVData(c echo.Context) error {
	sc, err := scopeParams(c)
	if err != nil {
		return err
	}
	kind := csvio.Kind(c.QueryParam("type"))
	if kind == "" {
		kind = csvio.Intervals
	}
	if kind != csvio.Intervals && kind != csvio.Runs {
		return echo.NewHTTPError(http.StatusBadRequest, csvio.ErrUnknownKind.Error())
	}

	var buf bytes.Buffer
	if err := csvio.Export(c.Request().Context(), h.store, &buf, kind, sc); err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, csvEnvelope{
		CSVData:  buf.String(),
		Filename: csvio.Filename(fmt.Sprintf("core_logging_%s", kind), h.now()),
	})
}
