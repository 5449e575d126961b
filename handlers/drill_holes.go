package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/reports"
	"github.com/padraicbc/coreapi/store"
)

type drillHoleInput struct {
	HoleID          Field[string]  `json:"hole_id"`
	ProjectName     Field[string]  `json:"project_name"`
	LocationX       Field[float64] `json:"location_x"`
	LocationY       Field[float64] `json:"location_y"`
	Elevation       Field[float64] `json:"elevation"`
	Azimuth         Field[float64] `json:"azimuth"`
	Dip             Field[float64] `json:"dip"`
	TotalDepth      Field[float64] `json:"total_depth"`
	StartDate       Field[string]  `json:"start_date"`
	EndDate         Field[string]  `json:"end_date"`
	DrillingCompany Field[string]  `json:"drilling_company"`
}

func (in *drillHoleInput) apply(dh *models.DrillHole) error {
	if err := setValue("hole_id", in.HoleID, &dh.HoleID); err != nil {
		return err
	}
	if err := setValue("project_name", in.ProjectName, &dh.ProjectName); err != nil {
		return err
	}
	setPtr(in.LocationX, &dh.LocationX)
	setPtr(in.LocationY, &dh.LocationY)
	setPtr(in.Elevation, &dh.Elevation)
	setPtr(in.Azimuth, &dh.Azimuth)
	setPtr(in.Dip, &dh.Dip)
	setPtr(in.TotalDepth, &dh.TotalDepth)
	setPtr(in.DrillingCompany, &dh.DrillingCompany)
	if err := setDate("start_date", in.StartDate, &dh.StartDate); err != nil {
		return err
	}
	return setDate("end_date", in.EndDate, &dh.EndDate)
}

// ListDrillHoles returns drill holes, optionally filtered by project_name.
func (h *Handler) ListDrillHoles(c echo.Context) error {
	holes, err := h.store.ListDrillHoles(c.Request().Context(), store.DrillHoleFilter{
		ProjectName: c.QueryParam("project_name"),
	})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, holes)
}

// CreateDrillHole inserts a drill hole. hole_id and project_name are required.
func (h *Handler) CreateDrillHole(c echo.Context) error {
	var in drillHoleInput
	if err := bind(c, &in); err != nil {
		return err
	}

	dh := &models.DrillHole{}
	err := h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		if err := required("hole_id", in.HoleID); err != nil {
			return err
		}
		if err := required("project_name", in.ProjectName); err != nil {
			return err
		}
		if err := in.apply(dh); err != nil {
			return err
		}
		return tx.CreateDrillHole(ctx, dh)
	})
	if err != nil {
		return h.writeError("create drill hole", err)
	}
	return c.JSON(http.StatusCreated, dh)
}

func (h *Handler) GetDrillHole(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	dh, err := h.store.GetDrillHole(c.Request().Context(), id)
	if err != nil {
		return readError(err, "Drill hole not found")
	}
	return c.JSON(http.StatusOK, dh)
}

// UpdateDrillHole changes only the fields present in the body.
func (h *Handler) UpdateDrillHole(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in drillHoleInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var dh *models.DrillHole
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		var err error
		if dh, err = tx.GetDrillHole(ctx, id); err != nil {
			return missing(err, "Drill hole not found")
		}
		if err := in.apply(dh); err != nil {
			return err
		}
		return tx.UpdateDrillHole(ctx, dh)
	})
	if err != nil {
		return h.writeError("update drill hole", err)
	}
	return c.JSON(http.StatusOK, dh)
}

// DeleteDrillHole removes a drill hole together with its runs, intervals and trays.
func (h *Handler) DeleteDrillHole(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		return missing(tx.DeleteDrillHole(ctx, id), "Drill hole not found")
	})
	if err != nil {
		return h.writeError("delete drill hole", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DrillHoleSummary returns run, tray and recovery totals for one drill hole.
func (h *Handler) DrillHoleSummary(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	dh, err := h.store.GetDrillHole(ctx, id)
	if err != nil {
		return readError(err, "Drill hole not found")
	}
	runs, err := h.store.ListCoreRuns(ctx, store.CoreRunFilter{DrillHoleID: id})
	if err != nil {
		return readError(err, "")
	}
	trays, err := h.store.ListCoreTrays(ctx, store.CoreTrayFilter{DrillHoleID: id})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, reports.SummarizeHole(*dh, runs, len(trays)))
}
