package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/coreapi/csvio"
)

// exportPrefix names the download file for each streamed export.
var exportPrefix = map[csvio.Kind]string{
	csvio.Intervals:  "core_intervals",
	csvio.Runs:       "core_runs",
	csvio.DrillHoles: "drill_holes",
	csvio.Leapfrog:   "leapfrog_data",
	csvio.QAQCItems:  "qaqc_report",
}

// sendCSV renders kind into memory first so a failed query still gets a
// JSON error instead of a truncated download.
func (h *Handler) sendCSV(c echo.Context, kind csvio.Kind) error {
	sc, err := scopeParams(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := csvio.Export(c.Request().Context(), h.store, &buf, kind, sc); err != nil {
		return readError(err, "")
	}
	name := csvio.Filename(exportPrefix[kind], h.now())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

// ExportCSV downloads intervals, runs or drill holes. type defaults to intervals.
func (h *Handler) ExportCSV(c echo.Context) error {
	kind := csvio.Kind(c.QueryParam("type"))
	switch kind {
	case "":
		kind = csvio.Intervals
	case csvio.Intervals, csvio.Runs, csvio.DrillHoles:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, csvio.ErrUnknownKind.Error())
	}
	return h.sendCSV(c, kind)
}

func (h *Handler) ExportDrillHolesCSV(c echo.Context) error {
	return h.sendCSV(c, csvio.DrillHoles)
}

// ExportLeapfrog downloads intervals in the 10-column Leapfrog layout.
func (h *Handler) ExportLeapfrog(c echo.Context) error {
	return h.sendCSV(c, csvio.Leapfrog)
}

func (h *Handler) ExportQAQC(c echo.Context) error {
	return h.sendCSV(c, csvio.QAQCItems)
}

// ImportCSV loads an uploaded CSV file of intervals, runs or drill holes.
// Rows that fail are listed in the response and the rest are kept.
func (h *Handler) ImportCSV(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.importMaxBytes)

	fh, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, http.ErrMissingFile):
		return echo.NewHTTPError(http.StatusBadRequest, "No file provided")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if fh.Filename == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No file selected")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".csv") {
		return echo.NewHTTPError(http.StatusBadRequest, "File must be CSV format")
	}

	kind := csvio.Kind(c.FormValue("type"))
	if kind == "" {
		kind = csvio.Intervals
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	res, err := h.importer.Import(req.Context(), f, kind)
	if errors.Is(err, csvio.ErrUnknownKind) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid import type")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}
