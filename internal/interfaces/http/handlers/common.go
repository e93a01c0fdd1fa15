// Package handlers implements the REST endpoints. Handlers translate HTTP
// requests into application service calls and never touch storage directly.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/interfaces/http/middleware"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// currentUser returns the authenticated caller or aborts with 401.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		middleware.AbortWithError(c, errors.Unauthorized("authentication required"))
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses the named path parameter or aborts with 400.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		middleware.AbortWithError(c, errors.InvalidParam("invalid "+name).WithDetail(c.Param(name)))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body into dst or aborts with 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			middleware.AbortWithError(c, errors.InvalidParam("request body too large"))
			return false
		}
		middleware.AbortWithError(c, errors.InvalidParam("invalid request body"))
		return false
	}
	return true
}

// fail logs err and renders it. Client errors are logged at debug; anything
// that maps to a 5xx is logged at error with the cause.
func fail(c *gin.Context, logger logging.Logger, msg string, err error) {
	status, _ := middleware.ErrorBody(err)
	fields := []logging.Field{
		logging.Err(err),
		logging.String("path", c.FullPath()),
		logging.String("request_id", middleware.RequestIDFromContext(c.Request.Context())),
	}
	if status >= http.StatusInternalServerError {
		logger.Error(msg, fields...)
	} else {
		logger.Debug(msg, fields...)
	}
	middleware.AbortWithError(c, err)
}
