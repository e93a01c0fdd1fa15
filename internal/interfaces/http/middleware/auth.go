package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/internal/infrastructure/auth/token"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
	"github.com/turtacn/patentdesk/pkg/types/common"
)

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(raw string) (*token.Claims, error)
}

// AuthMiddleware resolves the caller from the Authorization header.
type AuthMiddleware struct {
	validator TokenValidator
	logger    logging.Logger
}

// NewAuthMiddleware creates an AuthMiddleware.
func NewAuthMiddleware(validator TokenValidator, logger logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, logger: logger}
}

// Authenticate rejects requests without a valid bearer token with 401.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			AbortWithError(c, errors.Unauthorized("missing bearer token"))
			return
		}
		claims, err := m.validator.ValidateToken(raw)
		if err != nil {
			m.logger.Debug("token rejected", logging.String("path", c.FullPath()), logging.Err(err))
			AbortWithError(c, err)
			return
		}
		setCaller(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// the request through unauthenticated otherwise. GraphQL uses this: each
// resolver decides whether it needs a user.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := extractBearerToken(c.GetHeader("Authorization")); raw != "" {
			if claims, err := m.validator.ValidateToken(raw); err == nil {
				setCaller(c, claims)
			}
		}
		c.Next()
	}
}

func setCaller(c *gin.Context, claims *token.Claims) {
	// ValidateToken guarantees a parseable subject.
	id, _ := claims.UserID()
	ctx := WithUser(c.Request.Context(), id, claims.Email)
	c.Request = c.Request.WithContext(ctx)
}

// extractBearerToken returns the credentials of a "Bearer" authorization
// header. The scheme is matched case-insensitively.
func extractBearerToken(header string) string {
	scheme, credentials, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(credentials)
}

// WithUser stores the authenticated caller on ctx.
func WithUser(ctx context.Context, userID uuid.UUID, email string) context.Context {
	ctx = context.WithValue(ctx, common.ContextKeyUserID, userID)
	return context.WithValue(ctx, common.ContextKeyUserEmail, email)
}

// UserIDFromContext returns the authenticated caller, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(common.ContextKeyUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// UserEmailFromContext returns the authenticated caller's email.
func UserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(common.ContextKeyUserEmail).(string)
	return email
}
