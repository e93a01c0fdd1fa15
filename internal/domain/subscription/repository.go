package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for subscriptions.
type Repository interface {
	// Create inserts s. A second ACTIVE subscription for the same user
	// yields ErrCodeSubscriptionExists.
	Create(ctx context.Context, s *Subscription) error
	// GetActiveByUser returns ErrCodeSubscriptionNotFound when none is active.
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	// GetLatestByUser returns the most recently created subscription.
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	// ListDue returns ACTIVE subscriptions whose period ended before now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
}
