package graphql

import (
	"context"
	"net/http"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/interfaces/http/middleware"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// resolverError is what resolvers hand back to graphql-go. The message is
// the same one the REST surface would render and the extensions carry both
// the GraphQL code and the application code.
type resolverError struct {
	message string
	code    errors.ErrorCode
	cause   error
}

func (e *resolverError) Error() string { return e.message }

func (e *resolverError) Unwrap() error { return e.cause }

// Extensions is picked up by graphql-go and rendered under "extensions".
func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":    errors.GraphQLCodeFor(e.code),
		"appCode": e.code.String(),
	}
}

func newResolverError(err error) *resolverError {
	_, body := middleware.ErrorBody(err)
	return &resolverError{message: body.Message, code: errors.ErrorCode(body.Code), cause: err}
}

// fail logs err with the request id and converts it.
func (r *Resolver) fail(ctx context.Context, msg string, err error) error {
	status, _ := middleware.ErrorBody(err)
	fields := []logging.Field{
		logging.Err(err),
		logging.String("request_id", middleware.RequestIDFromContext(ctx)),
	}
	if status >= http.StatusInternalServerError {
		r.logger.Error(msg, fields...)
	} else {
		r.logger.Debug(msg, fields...)
	}
	return newResolverError(err)
}
