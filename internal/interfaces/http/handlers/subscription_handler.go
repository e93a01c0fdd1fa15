package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patentdesk/internal/application/subscription"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

type SubscriptionHandler struct {
	svc    subscription.Service
	logger logging.Logger
}

func NewSubscriptionHandler(svc subscription.Service, logger logging.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger}
}

// ChangePlanRequest is the body of PUT /api/subscriptions/plan.
type ChangePlanRequest struct {
	Plan string `json:"plan"`
}

func (h *SubscriptionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req subscription.CreateInput
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.svc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, h.logger, "failed to create subscription", err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *SubscriptionHandler) Active(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sub, err := h.svc.GetActive(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.logger, "failed to load subscription", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sub, err := h.svc.Cancel(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.logger, "failed to cancel subscription", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ChangePlanRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.svc.ChangePlan(c.Request.Context(), userID, req.Plan)
	if err != nil {
		fail(c, h.logger, "failed to change plan", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
