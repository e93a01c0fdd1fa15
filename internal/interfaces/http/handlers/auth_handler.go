package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patentdesk/internal/application/auth"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

// AuthHandler serves registration, login and the current user.
type AuthHandler struct {
	svc    auth.Service
	logger logging.Logger
}

func NewAuthHandler(svc auth.Service, logger logging.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	payload, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "failed to register user", err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	payload, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.logger, "login failed", err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	u, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.logger, "failed to load current user", err)
		return
	}
	c.JSON(http.StatusOK, u)
}
