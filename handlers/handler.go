package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/csvio"
	"github.com/padraicbc/coreapi/store"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	store          store.Store
	log            *zap.Logger
	importer       *csvio.Importer
	depthInterval  int
	importMaxBytes int64
	now            func() time.Time
}

// New creates a Handler over st. depthInterval is the default recovery-by-depth
// bucket width and importMaxBytes caps uploaded CSV files.
func New(st store.Store, log *zap.Logger, depthInterval int, importMaxBytes int64) *Handler {
	return &Handler{
		store:          st,
		log:            log,
		importer:       csvio.NewImporter(st, log),
		depthInterval:  depthInterval,
		importMaxBytes: importMaxBytes,
		now:            time.Now,
	}
}

// Register mounts every route on g, which is expected to be the /api group.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/health", h.Health)

	g.GET("/drill-holes", h.ListDrillHoles)
	g.POST("/drill-holes", h.CreateDrillHole)
	g.GET("/drill-holes/export/csv", h.ExportDrillHolesCSV)
	g.GET("/drill-holes/export/leapfrog", h.ExportLeapfrog)
	g.GET("/drill-holes/:id", h.GetDrillHole)
	g.PUT("/drill-holes/:id", h.UpdateDrillHole)
	g.DELETE("/drill-holes/:id", h.DeleteDrillHole)
	g.GET("/drill-holes/:id/summary", h.DrillHoleSummary)

	g.GET("/core-runs", h.ListCoreRuns)
	g.POST("/core-runs", h.CreateCoreRun)
	g.GET("/core-runs/:id", h.GetCoreRun)
	g.PUT("/core-runs/:id", h.UpdateCoreRun)
	g.DELETE("/core-runs/:id", h.DeleteCoreRun)
	g.POST("/core-runs/:id/calculate-recovery", h.CalculateRecovery)

	g.GET("/core-trays", h.ListCoreTrays)
	g.POST("/core-trays", h.CreateCoreTray)
	g.GET("/core-trays/by-barcode/:barcode", h.GetCoreTrayByBarcode)
	g.GET("/core-trays/by-rfid/:tag", h.GetCoreTrayByRFID)
	g.GET("/core-trays/:id", h.GetCoreTray)
	g.PUT("/core-trays/:id", h.UpdateCoreTray)
	g.DELETE("/core-trays/:id", h.DeleteCoreTray)
	g.POST("/core-trays/:id/update-location", h.UpdateTrayLocation)

	g.GET("/core-intervals", h.ListCoreIntervals)
	g.POST("/core-intervals", h.CreateCoreInterval)
	g.POST("/core-intervals/bulk", h.CreateCoreIntervalsBulk)
	g.GET("/core-intervals/:id", h.GetCoreInterval)
	g.PUT("/core-intervals/:id", h.UpdateCoreInterval)
	g.DELETE("/core-intervals/:id", h.DeleteCoreInterval)

	g.GET("/qaqc-records", h.ListQAQCRecords)
	g.POST("/qaqc-records", h.CreateQAQCRecord)
	g.GET("/qaqc-records/statistics", h.QAQCStatistics)
	g.GET("/qaqc-records/:id", h.GetQAQCRecord)
	g.PUT("/qaqc-records/:id", h.UpdateQAQCRecord)
	g.DELETE("/qaqc-records/:id", h.DeleteQAQCRecord)

	g.GET("/qaqc-items", h.ListQAQCItems)
	g.POST("/qaqc-items", h.CreateQAQCItem)
	g.GET("/qaqc-items/:id", h.GetQAQCItem)
	g.PUT("/qaqc-items/:id", h.UpdateQAQCItem)
	g.DELETE("/qaqc-items/:id", h.DeleteQAQCItem)

	g.GET("/analytics/recovery-trends", h.RecoveryTrends)
	g.GET("/analytics/recovery-by-depth", h.RecoveryByDepth)
	g.GET("/analytics/lithology-distribution", h.LithologyDistribution)
	g.GET("/analytics/project-summary", h.ProjectSummary)
	g.GET("/analytics/summary", h.DashboardSummary)
	g.GET("/analytics/export-csv", h.ExportCSVData)

	g.GET("/export/csv", h.ExportCSV)
	g.GET("/export/leapfrog", h.ExportLeapfrog)
	g.GET("/export/qaqc", h.ExportQAQC)
	g.POST("/import/csv", h.ImportCSV)
}

// Health reports that the API is up.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Core Logging API is running",
	})
}
