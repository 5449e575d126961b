package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/store"
)

type coreTrayInput struct {
	TrayID      Field[string]  `json:"tray_id"`
	DrillHoleID Field[int]     `json:"drill_hole_id"`
	FromDepth   Field[float64] `json:"from_depth"`
	ToDepth     Field[float64] `json:"to_depth"`
	Barcode     Field[string]  `json:"barcode"`
	RFIDTag     Field[string]  `json:"rfid_tag"`
	PhotoPath   Field[string]  `json:"photo_path"`
	Location    Field[string]  `json:"location"`
	Status      Field[string]  `json:"status"`
}

func (in *coreTrayInput) apply(t *models.CoreTray) error {
	if err := firstErr(
		setValue("tray_id", in.TrayID, &t.TrayID),
		setValue("from_depth", in.FromDepth, &t.FromDepth),
		setValue("to_depth", in.ToDepth, &t.ToDepth),
		setValue("status", in.Status, &t.Status),
	); err != nil {
		return err
	}
	setPtr(in.Barcode, &t.Barcode)
	setPtr(in.RFIDTag, &t.RFIDTag)
	setPtr(in.PhotoPath, &t.PhotoPath)
	setPtr(in.Location, &t.Location)
	return nil
}

// ListCoreTrays filters by drill_hole_id, status, and a location substring.
func (h *Handler) ListCoreTrays(c echo.Context) error {
	holeID, err := queryInt(c, "drill_hole_id", 0)
	if err != nil {
		return err
	}
	trays, err := h.store.ListCoreTrays(c.Request().Context(), store.CoreTrayFilter{
		DrillHoleID: holeID,
		Status:      c.QueryParam("status"),
		Location:    c.QueryParam("location"),
	})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, trays)
}

// CreateCoreTray inserts a tray. Location defaults to the core shed and
// status to active.
func (h *Handler) CreateCoreTray(c echo.Context) error {
	var in coreTrayInput
	if err := bind(c, &in); err != nil {
		return err
	}

	loc := models.DefaultTrayLocation
	t := &models.CoreTray{Location: &loc, Status: models.DefaultTrayStatus}
	err := h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		if err := firstErr(
			required("tray_id", in.TrayID),
			required("drill_hole_id", in.DrillHoleID),
			required("from_depth", in.FromDepth),
			required("to_depth", in.ToDepth),
		); err != nil {
			return err
		}
		if _, err := tx.GetDrillHole(ctx, *in.DrillHoleID.Value); err != nil {
			return missing(err, "Drill hole not found")
		}
		t.DrillHoleID = *in.DrillHoleID.Value
		if err := in.apply(t); err != nil {
			return err
		}
		return tx.CreateCoreTray(ctx, t)
	})
	if err != nil {
		return h.writeError("create core tray", err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetCoreTray(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	t, err := h.store.GetCoreTray(c.Request().Context(), id)
	if err != nil {
		return readError(err, "Core tray not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) GetCoreTrayByBarcode(c echo.Context) error {
	t, err := h.store.GetCoreTrayByBarcode(c.Request().Context(), c.Param("barcode"))
	if err != nil {
		return readError(err, "Core tray not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) GetCoreTrayByRFID(c echo.Context) error {
	t, err := h.store.GetCoreTrayByRFID(c.Request().Context(), c.Param("tag"))
	if err != nil {
		return readError(err, "Core tray not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateCoreTray(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in coreTrayInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var t *models.CoreTray
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		var err error
		if t, err = tx.GetCoreTray(ctx, id); err != nil {
			return missing(err, "Core tray not found")
		}
		if err := in.apply(t); err != nil {
			return err
		}
		return tx.UpdateCoreTray(ctx, t)
	})
	if err != nil {
		return h.writeError("update core tray", err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteCoreTray(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		return missing(tx.DeleteCoreTray(ctx, id), "Core tray not found")
	})
	if err != nil {
		return h.writeError("delete core tray", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type locationInput struct {
	Location Field[string] `json:"location"`
}

type locationResult struct {
	CoreTrayID  int     `json:"core_tray_id"`
	TrayID      string  `json:"tray_id"`
	OldLocation *string `json:"old_location"`
	NewLocation *string `json:"new_location"`
	Message     string  `json:"message"`
}

// UpdateTrayLocation moves a tray. The body must carry location.
func (h *Handler) UpdateTrayLocation(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in locationInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var res locationResult
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		t, err := tx.GetCoreTray(ctx, id)
		if err != nil {
			return missing(err, "Core tray not found")
		}
		if !in.Location.Set {
			return invalidf("Location is required")
		}
		res = locationResult{
			CoreTrayID:  t.ID,
			TrayID:      t.TrayID,
			OldLocation: t.Location,
			NewLocation: in.Location.Value,
			Message:     "Location updated successfully",
		}
		t.Location = in.Location.Value
		return tx.UpdateCoreTray(ctx, t)
	})
	if err != nil {
		return h.writeError("update tray location", err)
	}
	return c.JSON(http.StatusOK, res)
}
