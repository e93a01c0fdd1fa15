package middleware

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patentdesk/pkg/errors"
)

// ErrorResponse is the body of every failed REST request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorBody maps err onto an HTTP status and response body. Errors that map
// to a 5xx status carry the code's default message instead of their own, and
// anything that is not an AppError is reported as COMMON_001.
func ErrorBody(err error) (int, ErrorResponse) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.Code == errors.CodeUnknown {
		return http.StatusInternalServerError, ErrorResponse{
			Code:    errors.ErrCodeInternal.String(),
			Message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
		}
	}

	status := errors.HTTPStatusForCode(appErr.Code)
	msg := appErr.Message
	if status >= http.StatusInternalServerError || msg == "" {
		msg = errors.DefaultMessageForCode(appErr.Code)
	}
	return status, ErrorResponse{Code: appErr.Code.String(), Message: msg}
}

// AbortWithError renders err and stops the handler chain. The error is also
// attached to the gin context so the request logger can report the cause.
func AbortWithError(c *gin.Context, err error) {
	status, body := ErrorBody(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
