package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/coreapi/metrics"
	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/store"
)

type coreRunInput struct {
	DrillHoleID         Field[int]     `json:"drill_hole_id"`
	RunNumber           Field[int]     `json:"run_number"`
	FromDepth           Field[float64] `json:"from_depth"`
	ToDepth             Field[float64] `json:"to_depth"`
	CoreRecoveredLength Field[float64] `json:"core_recovered_length"`
	RQDLength           Field[float64] `json:"rqd_length"`
	DrillingDate        Field[string]  `json:"drilling_date"`
	LoggedBy            Field[int]     `json:"logged_by"`
}

// apply copies the present fields and recomputes the derived run metrics.
// The owning drill hole never changes after creation.
func (in *coreRunInput) apply(r *models.CoreRun) error {
	if err := setValue("run_number", in.RunNumber, &r.RunNumber); err != nil {
		return err
	}
	if err := setValue("from_depth", in.FromDepth, &r.FromDepth); err != nil {
		return err
	}
	if err := setValue("to_depth", in.ToDepth, &r.ToDepth); err != nil {
		return err
	}
	if err := setValue("core_recovered_length", in.CoreRecoveredLength, &r.CoreRecoveredLength); err != nil {
		return err
	}
	if err := setValue("rqd_length", in.RQDLength, &r.RQDLength); err != nil {
		return err
	}
	if err := setDate("drilling_date", in.DrillingDate, &r.DrillingDate); err != nil {
		return err
	}
	setPtr(in.LoggedBy, &r.LoggedBy)
	recompute(r)
	return nil
}

func recompute(r *models.CoreRun) {
	m := metrics.ComputeRun(r.FromDepth, r.ToDepth, r.CoreRecoveredLength, r.RQDLength)
	r.RunLength = m.RunLength
	r.TotalCoreRecovery = m.TotalCoreRecovery
	r.RQDPercentage = m.RQDPercentage
}

// ListCoreRuns returns runs ordered by from_depth, optionally for one drill hole.
func (h *Handler) ListCoreRuns(c echo.Context) error {
	holeID, err := queryInt(c, "drill_hole_id", 0)
	if err != nil {
		return err
	}
	runs, err := h.store.ListCoreRuns(c.Request().Context(), store.CoreRunFilter{DrillHoleID: holeID})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, runs)
}

// CreateCoreRun inserts a run under an existing drill hole.
func (h *Handler) CreateCoreRun(c echo.Context) error {
	var in coreRunInput
	if err := bind(c, &in); err != nil {
		return err
	}

	r := &models.CoreRun{}
	err := h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		if err := firstErr(
			required("drill_hole_id", in.DrillHoleID),
			required("run_number", in.RunNumber),
			required("from_depth", in.FromDepth),
			required("to_depth", in.ToDepth),
			required("core_recovered_length", in.CoreRecoveredLength),
		); err != nil {
			return err
		}
		if _, err := tx.GetDrillHole(ctx, *in.DrillHoleID.Value); err != nil {
			return missing(err, "Drill hole not found")
		}
		r.DrillHoleID = *in.DrillHoleID.Value
		if err := in.apply(r); err != nil {
			return err
		}
		return tx.CreateCoreRun(ctx, r)
	})
	if err != nil {
		return h.writeError("create core run", err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) GetCoreRun(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	r, err := h.store.GetCoreRun(c.Request().Context(), id)
	if err != nil {
		return readError(err, "Core run not found")
	}
	return c.JSON(http.StatusOK, r)
}

// UpdateCoreRun changes the present fields and recomputes length, recovery and RQD.
func (h *Handler) UpdateCoreRun(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in coreRunInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var r *models.CoreRun
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		var err error
		if r, err = tx.GetCoreRun(ctx, id); err != nil {
			return missing(err, "Core run not found")
		}
		if err := in.apply(r); err != nil {
			return err
		}
		return tx.UpdateCoreRun(ctx, r)
	})
	if err != nil {
		return h.writeError("update core run", err)
	}
	return c.JSON(http.StatusOK, r)
}

// DeleteCoreRun removes a run and its intervals.
func (h *Handler) DeleteCoreRun(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		return missing(tx.DeleteCoreRun(ctx, id), "Core run not found")
	})
	if err != nil {
		return h.writeError("delete core run", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type recoveryInput struct {
	CoreRecoveredLength Field[float64] `json:"core_recovered_length"`
	RQDLength           Field[float64] `json:"rqd_length"`
}

type recoveryResult struct {
	CoreRunID         int     `json:"core_run_id"`
	TotalCoreRecovery float64 `json:"total_core_recovery"`
	RQDPercentage     float64 `json:"rqd_percentage"`
	Message           string  `json:"message"`
}

// CalculateRecovery optionally replaces the recovered and RQD lengths and
// recomputes the run's percentages.
func (h *Handler) CalculateRecovery(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in recoveryInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var r *models.CoreRun
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		var err error
		if r, err = tx.GetCoreRun(ctx, id); err != nil {
			return missing(err, "Core run not found")
		}
		if err := setValue("core_recovered_length", in.CoreRecoveredLength, &r.CoreRecoveredLength); err != nil {
			return err
		}
		if err := setValue("rqd_length", in.RQDLength, &r.RQDLength); err != nil {
			return err
		}
		recompute(r)
		return tx.UpdateCoreRun(ctx, r)
	})
	if err != nil {
		return h.writeError("calculate recovery", err)
	}
	return c.JSON(http.StatusOK, recoveryResult{
		CoreRunID:         r.ID,
		TotalCoreRecovery: r.TotalCoreRecovery,
		RQDPercentage:     r.RQDPercentage,
		Message:           "Recovery metrics recalculated successfully",
	})
}
