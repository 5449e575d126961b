package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/csvio"
	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/reports"
	"github.com/padraicbc/coreapi/store"
)

type testAPI struct {
	t     *testing.T
	e     *echo.Echo
	store *store.Memory
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()
	st := store.NewMemory()
	h := New(st, log, reports.DefaultDepthInterval, 1<<20)
	h.now = func() time.Time { return fixedNow }

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(log)
	h.Register(e.Group("/api"))
	return &testAPI{t: t, e: e, store: st}
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) upload(kind, filename, content string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if kind != "" {
		if err := mw.WriteField("type", kind); err != nil {
			a.t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			a.t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			a.t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		a.t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/import/csv", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func (a *testAPI) hole(holeID, project string) models.DrillHole {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/drill-holes",
		fmt.Sprintf(`{"hole_id":%q,"project_name":%q}`, holeID, project))
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("create hole: %d %s", rec.Code, rec.Body.String())
	}
	return decode[models.DrillHole](a.t, rec)
}

func (a *testAPI) run(holeID, number int, from, to, recovered, rqd float64) models.CoreRun {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/core-runs", fmt.Sprintf(
		`{"drill_hole_id":%d,"run_number":%d,"from_depth":%v,"to_depth":%v,"core_recovered_length":%v,"rqd_length":%v}`,
		holeID, number, from, to, recovered, rqd))
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("create run: %d %s", rec.Code, rec.Body.String())
	}
	return decode[models.CoreRun](a.t, rec)
}

func TestHealth(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/api/health", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(decode[map[string]string](t, rec)).To(HaveKeyWithValue("status", "healthy"))
}

func TestDrillHoleCRUD(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)

	dh := a.hole("DH-001", "Copper Ridge")
	g.Expect(dh.ID).NotTo(BeZero())

	rec := a.do(http.MethodGet, fmt.Sprintf("/api/drill-holes/%d", dh.ID), "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(decode[models.DrillHole](t, rec).HoleID).To(Equal("DH-001"))

	rec = a.do(http.MethodGet, "/api/drill-holes/999", "")
	g.Expect(rec.Code).To(Equal(http.StatusNotFound))
	g.Expect(errorOf(t, rec)).To(Equal("Drill hole not found"))

	rec = a.do(http.MethodGet, "/api/drill-holes/abc", "")
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))

	rec = a.do(http.MethodPost, "/api/drill-holes", `{"hole_id":"DH-002"}`)
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("project_name is required"))

	rec = a.do(http.MethodPost, "/api/drill-holes", `{"hole_id":"DH-001","project_name":"Other"}`)
	g.Expect(rec.Code).To(Equal(http.StatusConflict))

	rec = a.do(http.MethodPut, fmt.Sprintf("/api/drill-holes/%d", dh.ID), `{"dip":-60,"start_date":"2024-01-15"}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	updated := decode[models.DrillHole](t, rec)
	g.Expect(updated.ProjectName).To(Equal("Copper Ridge"))
	g.Expect(*updated.Dip).To(Equal(-60.0))
	g.Expect(*updated.StartDate).To(Equal("2024-01-15"))

	rec = a.do(http.MethodPut, fmt.Sprintf("/api/drill-holes/%d", dh.ID), `{"start_date":"15/01/2024"}`)
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))

	rec = a.do(http.MethodDelete, fmt.Sprintf("/api/drill-holes/%d", dh.ID), "")
	g.Expect(rec.Code).To(Equal(http.StatusNoContent))
	rec = a.do(http.MethodDelete, fmt.Sprintf("/api/drill-holes/%d", dh.ID), "")
	g.Expect(rec.Code).To(Equal(http.StatusNotFound))
}

func TestCoreRun_DerivedMetrics(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")

	r := a.run(dh.ID, 1, 0, 3, 2.85, 2.1)
	g.Expect(r.RunLength).To(BeNumerically("~", 3, 1e-9))
	g.Expect(r.TotalCoreRecovery).To(Equal(95.0))
	g.Expect(r.RQDPercentage).To(Equal(70.0))

	// only rqd_length changes; the other fields keep their values
	rec := a.do(http.MethodPut, fmt.Sprintf("/api/core-runs/%d", r.ID), `{"rqd_length":1.5}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	r = decode[models.CoreRun](t, rec)
	g.Expect(r.CoreRecoveredLength).To(Equal(2.85))
	g.Expect(r.RQDPercentage).To(Equal(50.0))

	rec = a.do(http.MethodPut, fmt.Sprintf("/api/core-runs/%d", r.ID), `{"from_depth":null}`)
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("from_depth may not be null"))

	rec = a.do(http.MethodPost, fmt.Sprintf("/api/core-runs/%d/calculate-recovery", r.ID), `{"core_recovered_length":3}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(decode[recoveryResult](t, rec).TotalCoreRecovery).To(Equal(100.0))

	rec = a.do(http.MethodPost, "/api/core-runs", `{"drill_hole_id":999,"run_number":1,"from_depth":0,"to_depth":1,"core_recovered_length":1}`)
	g.Expect(rec.Code).To(Equal(http.StatusNotFound))
	g.Expect(errorOf(t, rec)).To(Equal("Drill hole not found"))

	rec = a.do(http.MethodPost, "/api/core-runs", `{"drill_hole_id":1}`)
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("run_number is required"))
}

func TestCoreRun_ZeroLength(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")

	r := a.run(dh.ID, 1, 5, 5, 1, 1)
	g.Expect(r.TotalCoreRecovery).To(BeZero())
	g.Expect(r.RQDPercentage).To(BeZero())
}

func TestBulkIntervals_RollsBackOnMissingRun(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")
	r := a.run(dh.ID, 1, 0, 3, 3, 3)

	rec := a.do(http.MethodPost, "/api/core-intervals/bulk", fmt.Sprintf(
		`{"intervals":[{"core_run_id":%d,"from_depth":0,"to_depth":1.5},{"core_run_id":999,"from_depth":1.5,"to_depth":3}]}`, r.ID))
	g.Expect(rec.Code).To(Equal(http.StatusNotFound))
	g.Expect(errorOf(t, rec)).To(Equal("Core run 999 not found"))

	rec = a.do(http.MethodGet, "/api/core-intervals", "")
	g.Expect(decode[[]models.CoreInterval](t, rec)).To(BeEmpty())

	rec = a.do(http.MethodPost, "/api/core-intervals/bulk", `{"intervals":[]}`)
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("No intervals provided"))

	rec = a.do(http.MethodPost, "/api/core-intervals/bulk", fmt.Sprintf(
		`{"intervals":[{"core_run_id":%[1]d,"from_depth":0,"to_depth":1.5,"ore_minerals":["cpy","py"]},{"core_run_id":%[1]d,"from_depth":1.5,"to_depth":3}]}`, r.ID))
	g.Expect(rec.Code).To(Equal(http.StatusCreated))
	res := decode[bulkIntervalsResult](t, rec)
	g.Expect(res.Message).To(Equal("Successfully created 2 intervals"))
	g.Expect(res.Intervals).To(HaveLen(2))
	g.Expect(res.Intervals[0].IntervalLength).To(BeNumerically("~", 1.5, 1e-9))
	g.Expect(*res.Intervals[0].OreMinerals).To(Equal(`["cpy","py"]`))
	g.Expect(res.Intervals[1].OreMinerals).To(BeNil())
}

func TestCoreInterval_Update(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")
	r := a.run(dh.ID, 1, 0, 3, 3, 3)

	rec := a.do(http.MethodPost, "/api/core-intervals", fmt.Sprintf(
		`{"core_run_id":%d,"from_depth":0.5,"to_depth":1.5,"lithology":"Granite"}`, r.ID))
	g.Expect(rec.Code).To(Equal(http.StatusCreated))
	ci := decode[models.CoreInterval](t, rec)
	g.Expect(ci.IntervalLength).To(BeNumerically("~", 1.0, 1e-9))
	path := fmt.Sprintf("/api/core-intervals/%d", ci.ID)

	rec = a.do(http.MethodPut, path, `{"to_depth":2.75}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	ci = decode[models.CoreInterval](t, rec)
	g.Expect(ci.FromDepth).To(Equal(0.5))
	g.Expect(ci.ToDepth).To(Equal(2.75))
	g.Expect(ci.IntervalLength).To(BeNumerically("~", 2.25, 1e-9))
	g.Expect(*ci.Lithology).To(Equal("Granite"))

	rec = a.do(http.MethodPut, path, `{"from_depth":1.25,"ore_minerals":{"cpy": 2, "py": [1, 2]},"structural_features":"shear zone"}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))

	ci = decode[models.CoreInterval](t, a.do(http.MethodGet, path, ""))
	g.Expect(ci.FromDepth).To(Equal(1.25))
	g.Expect(ci.IntervalLength).To(BeNumerically("~", 1.5, 1e-9))
	g.Expect(*ci.OreMinerals).To(Equal(`{"cpy":2,"py":[1,2]}`))
	g.Expect(*ci.StructuralFeatures).To(Equal("shear zone"))
	g.Expect(ci.CoreRunID).To(Equal(r.ID))

	rec = a.do(http.MethodPut, "/api/core-intervals/999", `{"to_depth":2}`)
	g.Expect(rec.Code).To(Equal(http.StatusNotFound))
	g.Expect(errorOf(t, rec)).To(Equal("Core interval not found"))
}

func TestDeleteDrillHole_Cascades(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")
	r := a.run(dh.ID, 1, 0, 3, 3, 3)
	rec := a.do(http.MethodPost, "/api/core-intervals", fmt.Sprintf(`{"core_run_id":%d,"from_depth":0,"to_depth":1}`, r.ID))
	g.Expect(rec.Code).To(Equal(http.StatusCreated))
	rec = a.do(http.MethodPost, "/api/core-trays", fmt.Sprintf(`{"tray_id":"T-1","drill_hole_id":%d,"from_depth":0,"to_depth":3}`, dh.ID))
	g.Expect(rec.Code).To(Equal(http.StatusCreated))

	g.Expect(a.do(http.MethodDelete, fmt.Sprintf("/api/drill-holes/%d", dh.ID), "").Code).To(Equal(http.StatusNoContent))

	g.Expect(decode[[]models.CoreRun](t, a.do(http.MethodGet, "/api/core-runs", ""))).To(BeEmpty())
	g.Expect(decode[[]models.CoreInterval](t, a.do(http.MethodGet, "/api/core-intervals", ""))).To(BeEmpty())
	g.Expect(decode[[]models.CoreTray](t, a.do(http.MethodGet, "/api/core-trays", ""))).To(BeEmpty())
}

func TestCoreTray_Location(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")

	rec := a.do(http.MethodPost, "/api/core-trays", fmt.Sprintf(
		`{"tray_id":"T-1","drill_hole_id":%d,"from_depth":0,"to_depth":3,"barcode":"BC-1"}`, dh.ID))
	g.Expect(rec.Code).To(Equal(http.StatusCreated))
	tray := decode[models.CoreTray](t, rec)
	g.Expect(*tray.Location).To(Equal(models.DefaultTrayLocation))
	g.Expect(tray.Status).To(Equal(models.DefaultTrayStatus))

	path := fmt.Sprintf("/api/core-trays/%d/update-location", tray.ID)
	rec = a.do(http.MethodPost, path, `{}`)
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("Location is required"))

	rec = a.do(http.MethodPost, path, `{"location":"Warehouse B"}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	res := decode[locationResult](t, rec)
	g.Expect(*res.OldLocation).To(Equal(models.DefaultTrayLocation))
	g.Expect(*res.NewLocation).To(Equal("Warehouse B"))

	rec = a.do(http.MethodGet, "/api/core-trays/by-barcode/BC-1", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(*decode[models.CoreTray](t, rec).Location).To(Equal("Warehouse B"))

	rec = a.do(http.MethodPost, "/api/core-trays/999/update-location", `{"location":"X"}`)
	g.Expect(rec.Code).To(Equal(http.StatusNotFound))
}

func TestQAQCRecord_StatusBoundaries(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")

	for _, tc := range []struct {
		expected, actual float64
		status           string
		variance         float64
	}{
		{100, 105, models.StatusPass, 5},
		{100, 95, models.StatusPass, -5},
		{100, 110, models.StatusWarning, 10},
		{100, 110.01, models.StatusFail, 10.01},
		{0, 5, models.StatusFail, 999999.99},
		{0, 0, models.StatusPass, 0},
	} {
		rec := a.do(http.MethodPost, "/api/qaqc-records", fmt.Sprintf(
			`{"drill_hole_id":%d,"record_type":"standard","expected_value":%v,"actual_value":%v}`,
			dh.ID, tc.expected, tc.actual))
		g.Expect(rec.Code).To(Equal(http.StatusCreated))
		q := decode[models.QAQCRecord](t, rec)
		g.Expect(q.Status).To(Equal(tc.status), "expected %v actual %v", tc.expected, tc.actual)
		g.Expect(*q.Variance).To(BeNumerically("~", tc.variance, 1e-9))
	}

	rec := a.do(http.MethodPost, "/api/qaqc-records", fmt.Sprintf(
		`{"drill_hole_id":%d,"record_type":"blank","status":"warning"}`, dh.ID))
	g.Expect(rec.Code).To(Equal(http.StatusCreated))
	q := decode[models.QAQCRecord](t, rec)
	g.Expect(q.Status).To(Equal(models.StatusWarning))
	g.Expect(q.Variance).To(BeNil())

	rec = a.do(http.MethodPost, "/api/qaqc-records", `{"drill_hole_id":999,"record_type":"blank"}`)
	g.Expect(rec.Code).To(Equal(http.StatusNotFound))
}

func TestQAQCRecord_UpdateRecomputes(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")

	rec := a.do(http.MethodPost, "/api/qaqc-records", fmt.Sprintf(
		`{"drill_hole_id":%d,"record_type":"duplicate","expected_value":100,"actual_value":102}`, dh.ID))
	q := decode[models.QAQCRecord](t, rec)
	path := fmt.Sprintf("/api/qaqc-records/%d", q.ID)

	rec = a.do(http.MethodPut, path, `{"actual_value":120}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	q = decode[models.QAQCRecord](t, rec)
	g.Expect(q.Status).To(Equal(models.StatusFail))
	g.Expect(*q.Variance).To(Equal(20.0))

	rec = a.do(http.MethodPut, path, `{"actual_value":null}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	q = decode[models.QAQCRecord](t, rec)
	g.Expect(q.Variance).To(BeNil())
	g.Expect(q.Status).To(Equal(models.StatusFail))
}

func TestQAQCStatistics(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/api/qaqc-records/statistics", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	empty := decode[reports.QAQCStatistics](t, rec)
	g.Expect(empty.TotalRecords).To(BeZero())
	g.Expect(empty.PassRate).To(BeZero())
	g.Expect(empty.ByType).To(BeEmpty())

	dh := a.hole("DH-001", "Copper Ridge")
	for _, actual := range []float64{101, 107, 150} {
		a.do(http.MethodPost, "/api/qaqc-records", fmt.Sprintf(
			`{"drill_hole_id":%d,"record_type":"standard","expected_value":100,"actual_value":%v}`, dh.ID, actual))
	}
	rec = a.do(http.MethodGet, fmt.Sprintf("/api/qaqc-records/statistics?drill_hole_id=%d", dh.ID), "")
	stats := decode[reports.QAQCStatistics](t, rec)
	g.Expect(stats.TotalRecords).To(Equal(3))
	g.Expect(stats.PassCount).To(Equal(1))
	g.Expect(stats.WarningCount).To(Equal(1))
	g.Expect(stats.FailCount).To(Equal(1))
	g.Expect(stats.ByType).To(HaveKey("standard"))
}

func TestQAQCItem_Defaults(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/qaqc-items", `{"title":"Re-assay batch 12"}`)
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("type is required"))

	rec = a.do(http.MethodPost, "/api/qaqc-items", `{"title":"Re-assay batch 12","type":"assay","due_date":"2024-04-01"}`)
	g.Expect(rec.Code).To(Equal(http.StatusCreated))
	item := decode[models.QAQCItem](t, rec)
	g.Expect(item.Priority).To(Equal("medium"))
	g.Expect(item.Status).To(Equal("open"))
	g.Expect(item.CreatedDate).NotTo(BeNil())
	g.Expect(*item.DueDate).To(Equal("2024-04-01"))

	rec = a.do(http.MethodPut, fmt.Sprintf("/api/qaqc-items/%d", item.ID), `{"status":"resolved"}`)
	g.Expect(rec.Code).To(Equal(http.StatusOK))

	rec = a.do(http.MethodGet, "/api/qaqc-items?status=resolved", "")
	g.Expect(decode[[]models.QAQCItem](t, rec)).To(HaveLen(1))
	rec = a.do(http.MethodGet, "/api/qaqc-items?status=open", "")
	g.Expect(decode[[]models.QAQCItem](t, rec)).To(BeEmpty())
}

func TestAnalytics(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")
	a.run(dh.ID, 1, 0, 3, 3, 3)
	a.run(dh.ID, 2, 42, 45, 1.5, 1.5)
	a.run(dh.ID, 3, 50, 53, 3, 0)

	rec := a.do(http.MethodGet, "/api/analytics/recovery-by-depth", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	buckets := decode[[]reports.DepthBucket](t, rec)
	g.Expect(buckets).To(HaveLen(2))
	g.Expect(buckets[0].Interval).To(Equal("0-50m"))
	g.Expect(buckets[0].TotalRuns).To(Equal(2))
	g.Expect(buckets[1].Interval).To(Equal("50-100m"))

	rec = a.do(http.MethodGet, "/api/analytics/recovery-by-depth?interval_size=0", "")
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	rec = a.do(http.MethodGet, "/api/analytics/recovery-by-depth?interval_size=ten", "")
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("interval_size must be an integer"))

	rec = a.do(http.MethodGet, "/api/analytics/recovery-trends?project_name=copper", "")
	g.Expect(decode[[]reports.RecoveryTrend](t, rec)).To(HaveLen(1))
	rec = a.do(http.MethodGet, "/api/analytics/recovery-trends?project_name=gold", "")
	g.Expect(decode[[]reports.RecoveryTrend](t, rec)).To(BeEmpty())

	rec = a.do(http.MethodGet, "/api/analytics/summary", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(decode[map[string]reports.Dashboard](t, rec)).To(HaveKey("summary"))

	rec = a.do(http.MethodGet, "/api/analytics/project-summary", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))

	rec = a.do(http.MethodGet, "/api/analytics/lithology-distribution", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(decode[[]reports.LithologyShare](t, rec)).To(BeEmpty())
}

func TestExportCSV(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)
	dh := a.hole("DH-001", "Copper Ridge")
	a.run(dh.ID, 1, 0, 3, 3, 3)

	rec := a.do(http.MethodGet, "/api/export/csv?type=runs", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(rec.Header().Get(echo.HeaderContentType)).To(HavePrefix("text/csv"))
	g.Expect(rec.Header().Get(echo.HeaderContentDisposition)).To(Equal(`attachment; filename="core_runs_20240309_140507.csv"`))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	g.Expect(lines).To(HaveLen(2))
	g.Expect(strings.TrimSpace(lines[0])).To(Equal(strings.Join(csvio.RunColumns, ",")))
	g.Expect(lines[1]).To(HavePrefix("DH-001,Copper Ridge,1,"))

	rec = a.do(http.MethodGet, "/api/export/leapfrog", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(strings.TrimSpace(rec.Body.String())).To(Equal(strings.Join(csvio.LeapfrogColumns, ",")))

	rec = a.do(http.MethodGet, "/api/export/csv?type=bogus", "")
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))

	rec = a.do(http.MethodGet, "/api/analytics/export-csv?type=runs", "")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	env := decode[csvEnvelope](t, rec)
	g.Expect(env.Filename).To(Equal("core_logging_runs_20240309_140507.csv"))
	g.Expect(env.CSVData).To(ContainSubstring("DH-001"))
}

func TestImportCSV(t *testing.T) {
	g := NewWithT(t)
	a := newTestAPI(t)

	rec := a.upload("drill_holes", "holes.csv",
		"hole_id,project_name,dip\nDH-001,Copper Ridge,-60\nDH-001,Copper Ridge,-55\nDH-002,Copper Ridge,-70\n")
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	res := decode[csvio.Result](t, rec)
	g.Expect(res.Success).To(BeTrue())
	g.Expect(res.ImportedCount).To(Equal(2))
	g.Expect(res.Errors).To(ConsistOf("Row 3: Drill hole DH-001 already exists"))

	rec = a.upload("runs", "runs.csv",
		"Drill_Hole,Core_Run,From_Depth,To_Depth,core_recovered_length\nDH-001,Run 1,0,3,2.7\nDH-404,Run 1,0,3,3\n")
	res = decode[csvio.Result](t, rec)
	g.Expect(res.ImportedCount).To(Equal(1))
	g.Expect(res.Errors).To(ConsistOf("Row 3: Drill hole DH-404 not found"))

	rec = a.upload("", "intervals.csv",
		"hole_id,run_number,from_depth,to_depth,lithology\nDH-001,Run 1,0,1.5,Granite\nDH-001,Run 9,1.5,3,Granite\n")
	res = decode[csvio.Result](t, rec)
	g.Expect(res.ImportedCount).To(Equal(1))
	g.Expect(res.Errors).To(ConsistOf("Row 3: Core run Run 9 not found for drill hole DH-001"))

	rec = a.upload("intervals", "notes.txt", "hole_id\n")
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("File must be CSV format"))

	rec = a.upload("intervals", "", "")
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
	g.Expect(errorOf(t, rec)).To(Equal("No file provided"))

	rec = a.upload("qaqc", "items.csv", "id\n")
	g.Expect(rec.Code).To(Equal(http.StatusBadRequest))
}
