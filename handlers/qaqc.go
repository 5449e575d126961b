package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/coreapi/metrics"
	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/reports"
	"github.com/padraicbc/coreapi/store"
)

type qaqcRecordInput struct {
	DrillHoleID   Field[int]     `json:"drill_hole_id"`
	RecordType    Field[string]  `json:"record_type"`
	SampleID      Field[string]  `json:"sample_id"`
	FromDepth     Field[float64] `json:"from_depth"`
	ToDepth       Field[float64] `json:"to_depth"`
	ExpectedValue Field[float64] `json:"expected_value"`
	ActualValue   Field[float64] `json:"actual_value"`
	Status        Field[string]  `json:"status"`
	Comments      Field[string]  `json:"comments"`
}

// apply copies the present fields. With both expected and actual values the
// variance and status are derived, overriding any status in the body;
// otherwise the variance is cleared and the status kept.
func (in *qaqcRecordInput) apply(q *models.QAQCRecord) error {
	if err := firstErr(
		setValue("record_type", in.RecordType, &q.RecordType),
		setValue("status", in.Status, &q.Status),
	); err != nil {
		return err
	}
	setPtr(in.SampleID, &q.SampleID)
	setPtr(in.FromDepth, &q.FromDepth)
	setPtr(in.ToDepth, &q.ToDepth)
	setPtr(in.ExpectedValue, &q.ExpectedValue)
	setPtr(in.ActualValue, &q.ActualValue)
	setPtr(in.Comments, &q.Comments)

	variance, status, ok := metrics.Assess(q.ExpectedValue, q.ActualValue)
	if !ok {
		q.Variance = nil
		return nil
	}
	q.Variance = &variance
	q.Status = string(status)
	return nil
}

// ListQAQCRecords filters by drill_hole_id, record_type and status, newest first.
func (h *Handler) ListQAQCRecords(c echo.Context) error {
	holeID, err := queryInt(c, "drill_hole_id", 0)
	if err != nil {
		return err
	}
	records, err := h.store.ListQAQCRecords(c.Request().Context(), store.QAQCRecordFilter{
		DrillHoleID: holeID,
		RecordType:  c.QueryParam("record_type"),
		Status:      c.QueryParam("status"),
	})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) CreateQAQCRecord(c echo.Context) error {
	var in qaqcRecordInput
	if err := bind(c, &in); err != nil {
		return err
	}

	q := &models.QAQCRecord{Status: models.StatusPass}
	err := h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		if err := firstErr(
			required("drill_hole_id", in.DrillHoleID),
			required("record_type", in.RecordType),
		); err != nil {
			return err
		}
		if _, err := tx.GetDrillHole(ctx, *in.DrillHoleID.Value); err != nil {
			return missing(err, "Drill hole not found")
		}
		q.DrillHoleID = *in.DrillHoleID.Value
		if err := in.apply(q); err != nil {
			return err
		}
		return tx.CreateQAQCRecord(ctx, q)
	})
	if err != nil {
		return h.writeError("create qaqc record", err)
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) GetQAQCRecord(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	q, err := h.store.GetQAQCRecord(c.Request().Context(), id)
	if err != nil {
		return readError(err, "QA/QC record not found")
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) UpdateQAQCRecord(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in qaqcRecordInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var q *models.QAQCRecord
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		var err error
		if q, err = tx.GetQAQCRecord(ctx, id); err != nil {
			return missing(err, "QA/QC record not found")
		}
		if err := in.apply(q); err != nil {
			return err
		}
		return tx.UpdateQAQCRecord(ctx, q)
	})
	if err != nil {
		return h.writeError("update qaqc record", err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) DeleteQAQCRecord(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		return missing(tx.DeleteQAQCRecord(ctx, id), "QA/QC record not found")
	})
	if err != nil {
		return h.writeError("delete qaqc record", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// QAQCStatistics reports pass/warning/fail counts and rates, overall and per
// record type, optionally for one drill hole.
func (h *Handler) QAQCStatistics(c echo.Context) error {
	holeID, err := queryInt(c, "drill_hole_id", 0)
	if err != nil {
		return err
	}
	records, err := h.store.ListQAQCRecords(c.Request().Context(), store.QAQCRecordFilter{DrillHoleID: holeID})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, reports.QAQCStats(records))
}

type qaqcItemInput struct {
	Title            Field[string] `json:"title"`
	Description      Field[string] `json:"description"`
	Type             Field[string] `json:"type"`
	Priority         Field[string] `json:"priority"`
	Status           Field[string] `json:"status"`
	AssignedTo       Field[string] `json:"assigned_to"`
	CreatedBy        Field[int]    `json:"created_by"`
	DrillHole        Field[string] `json:"drill_hole"`
	CoreRun          Field[string] `json:"core_run"`
	CreatedDate      Field[string] `json:"created_date"`
	DueDate          Field[string] `json:"due_date"`
	ResolvedDate     Field[string] `json:"resolved_date"`
	CommentsCount    Field[int]    `json:"comments_count"`
	AttachmentsCount Field[int]    `json:"attachments_count"`
}

func (in *qaqcItemInput) apply(q *models.QAQCItem) error {
	if err := firstErr(
		setValue("title", in.Title, &q.Title),
		setValue("type", in.Type, &q.Type),
		setValue("priority", in.Priority, &q.Priority),
		setValue("status", in.Status, &q.Status),
		setValue("comments_count", in.CommentsCount, &q.CommentsCount),
		setValue("attachments_count", in.AttachmentsCount, &q.AttachmentsCount),
		setDate("created_date", in.CreatedDate, &q.CreatedDate),
		setDate("due_date", in.DueDate, &q.DueDate),
		setDate("resolved_date", in.ResolvedDate, &q.ResolvedDate),
	); err != nil {
		return err
	}
	setPtr(in.Description, &q.Description)
	setPtr(in.AssignedTo, &q.AssignedTo)
	setPtr(in.CreatedBy, &q.CreatedBy)
	setPtr(in.DrillHole, &q.DrillHole)
	setPtr(in.CoreRun, &q.CoreRun)
	return nil
}

// ListQAQCItems filters by status, type and priority, newest first.
func (h *Handler) ListQAQCItems(c echo.Context) error {
	items, err := h.store.ListQAQCItems(c.Request().Context(), store.QAQCItemFilter{
		Status:   c.QueryParam("status"),
		Type:     c.QueryParam("type"),
		Priority: c.QueryParam("priority"),
	})
	if err != nil {
		return readError(err, "")
	}
	return c.JSON(http.StatusOK, items)
}

// CreateQAQCItem inserts a tracking item. Priority defaults to medium,
// status to open and created_date to today.
func (h *Handler) CreateQAQCItem(c echo.Context) error {
	var in qaqcItemInput
	if err := bind(c, &in); err != nil {
		return err
	}

	today := models.Today()
	q := &models.QAQCItem{Priority: "medium", Status: "open", CreatedDate: &today}
	err := h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		if err := firstErr(
			required("title", in.Title),
			required("type", in.Type),
			in.apply(q),
		); err != nil {
			return err
		}
		return tx.CreateQAQCItem(ctx, q)
	})
	if err != nil {
		return h.writeError("create qaqc item", err)
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) GetQAQCItem(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	q, err := h.store.GetQAQCItem(c.Request().Context(), id)
	if err != nil {
		return readError(err, "QA/QC item not found")
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) UpdateQAQCItem(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in qaqcItemInput
	if err := bind(c, &in); err != nil {
		return err
	}

	var q *models.QAQCItem
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		var err error
		if q, err = tx.GetQAQCItem(ctx, id); err != nil {
			return missing(err, "QA/QC item not found")
		}
		if err := in.apply(q); err != nil {
			return err
		}
		return tx.UpdateQAQCItem(ctx, q)
	})
	if err != nil {
		return h.writeError("update qaqc item", err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) DeleteQAQCItem(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	err = h.store.RunInTx(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		return missing(tx.DeleteQAQCItem(ctx, id), "QA/QC item not found")
	})
	if err != nil {
		return h.writeError("delete qaqc item", err)
	}
	return c.NoContent(http.StatusNoContent)
}
