package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patentdesk/internal/application/patent"
	domainPatent "github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

// PatentHandler serves patent CRUD, status changes and search.
type PatentHandler struct {
	svc    patent.Service
	logger logging.Logger
}

func NewPatentHandler(svc patent.Service, logger logging.Logger) *PatentHandler {
	return &PatentHandler{svc: svc, logger: logger}
}

// UpdateStatusRequest is the body of PATCH /api/patents/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (h *PatentHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	patents, err := h.svc.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.logger, "failed to list patents", err)
		return
	}
	if patents == nil {
		patents = []*domainPatent.Patent{}
	}
	c.JSON(http.StatusOK, patents)
}

func (h *PatentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domainPatent.Input
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, h.logger, "failed to create patent", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PatentHandler) Search(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domainPatent.SearchInput
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Search(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, h.logger, "failed to search patents", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PatentHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, h.logger, "failed to get patent", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PatentHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req domainPatent.Update
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		fail(c, h.logger, "failed to update patent", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PatentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		fail(c, h.logger, "failed to delete patent", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PatentHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.UpdateStatus(c.Request.Context(), userID, id, req.Status)
	if err != nil {
		fail(c, h.logger, "failed to update patent status", err)
		return
	}
	c.JSON(http.StatusOK, p)
}
