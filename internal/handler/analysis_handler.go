package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glowtrack/glowtrack-api/internal/service"
	"github.com/glowtrack/glowtrack-api/pkg/response"
)

// AnalysisHandler exposes skin analysis endpoints.
type AnalysisHandler struct {
	analyses *service.AnalysisService
}

// NewAnalysisHandler constructs AnalysisHandler.
func NewAnalysisHandler(analyses *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analyses: analyses}
}

// Analyze godoc
// @Summary Analyze a captured photo
// @Tags Analyses
// @Produce json
// @Param id path string true "Photo ID"
// @Success 201 {object} response.Envelope
// @Router /photos/{id}/analyses [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	report, err := h.analyses.Analyze(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// ByPhoto godoc
// @Summary List analyses for a photo
// @Tags Analyses
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Envelope
// @Router /photos/{id}/analyses [get]
func (h *AnalysisHandler) ByPhoto(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	reports, err := h.analyses.ByPhoto(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get one analysis report
// @Tags Analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id} [get]
func (h *AnalysisHandler) Get(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	report, err := h.analyses.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Latest godoc
// @Summary The user's most recent analysis
// @Tags Analyses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analyses/latest [get]
func (h *AnalysisHandler) Latest(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	report, err := h.analyses.Latest(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
