package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glowtrack/glowtrack-api/internal/service"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
	"github.com/glowtrack/glowtrack-api/pkg/response"
)

// ReportHandler exposes export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// PhotoHistory godoc
// @Summary Export the photo log
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv|pdf"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /reports/photo-history [get]
func (h *ReportHandler) PhotoHistory(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, -6, 0)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		start = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		end = parsed.AddDate(0, 0, 1)
	}

	format := service.ReportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	file, err := h.reports.PhotoHistory(c.Request.Context(), claims.UserID, start, end, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, file)
}

// ProgressSummary godoc
// @Summary Export storage totals and achievement state
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv|pdf"
// @Success 200 {file} binary
// @Router /reports/progress [get]
func (h *ReportHandler) ProgressSummary(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	format := service.ReportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	file, err := h.reports.ProgressSummary(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, file)
}

func serveReport(c *gin.Context, file *service.ReportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
