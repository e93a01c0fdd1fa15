package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patentdesk/internal/application/report"
	domainPatent "github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

// ReportHandler serves similarity lookups, AI analysis and search reports.
type ReportHandler struct {
	svc    report.Service
	logger logging.Logger
}

func NewReportHandler(svc report.Service, logger logging.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

func (h *ReportHandler) Similar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	patents, err := h.svc.GetSimilarPatents(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, h.logger, "failed to find similar patents", err)
		return
	}
	if patents == nil {
		patents = []*domainPatent.SimilarPatent{}
	}
	c.JSON(http.StatusOK, patents)
}

func (h *ReportHandler) Analysis(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	analysis, err := h.svc.GetAIAnalysis(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, h.logger, "failed to analyze patent", err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Strategy handles GET /api/patents/:id/search-strategy.
func (h *ReportHandler) Strategy(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	strategy, err := h.svc.GetSearchStrategy(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, h.logger, "failed to build search strategy", err)
		return
	}
	c.JSON(http.StatusOK, strategy)
}

// Compare handles GET /api/patents/:id/similarity/:otherId.
func (h *ReportHandler) Compare(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	otherID, ok := pathUUID(c, "otherId")
	if !ok {
		return
	}
	score, err := h.svc.ComparePatents(c.Request.Context(), userID, id, otherID)
	if err != nil {
		fail(c, h.logger, "failed to compare patents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"similarity_score": score})
}

// Generate handles POST /api/patents/:id/search-report.
func (h *ReportHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	rep, err := h.svc.GenerateReport(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, h.logger, "failed to generate search report", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
