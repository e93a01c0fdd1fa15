// Package subscription models a user's billing plan over time. A user holds
// at most one ACTIVE subscription; older ones are kept as history.
package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/pkg/errors"
	"github.com/turtacn/patentdesk/pkg/types/common"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusPending   Status = "PENDING"
	StatusExpired   Status = "EXPIRED"
)

// BillingPeriod is the length of one billing cycle.
const BillingPeriod = 30 * 24 * time.Hour

// EventChanged is published whenever a subscription is created or changes.
const EventChanged = "subscription.changed"

type Subscription struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	Plan               user.Plan  `json:"plan"`
	Status             Status     `json:"status"`
	StartDate          time.Time  `json:"start_date"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	AutoRenew          bool       `json:"auto_renew"`
	PaymentMethod      string     `json:"payment_method,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// New starts an ACTIVE, auto-renewing subscription at now. trialDays > 0 sets
// the trial end.
func New(userID uuid.UUID, plan user.Plan, paymentMethod string, trialDays int, now time.Time) (*Subscription, error) {
	if userID == uuid.Nil {
		return nil, errors.InvalidParam("user id is required")
	}
	if plan != user.PlanFree && plan != user.PlanPro {
		return nil, errors.New(errors.ErrCodePlanInvalid, "invalid plan selected")
	}
	now = now.UTC()
	s := &Subscription{
		ID:                 uuid.New(),
		UserID:             userID,
		Plan:               plan,
		Status:             StatusActive,
		StartDate:          now,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(BillingPeriod),
		AutoRenew:          true,
		PaymentMethod:      paymentMethod,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if trialDays > 0 {
		end := now.Add(time.Duration(trialDays) * 24 * time.Hour)
		s.TrialEndsAt = &end
	}
	return s, nil
}

// IsActive reports whether s is the user's current subscription.
func (s *Subscription) IsActive() bool { return s.Status == StatusActive }

// Cancel stops the subscription immediately and disables renewal.
func (s *Subscription) Cancel(now time.Time) error {
	if !s.IsActive() {
		return errors.New(errors.ErrCodeSubscriptionNotFound, "no active subscription to cancel")
	}
	now = now.UTC()
	s.Status = StatusCancelled
	s.CancelledAt = &now
	s.AutoRenew = false
	s.UpdatedAt = now
	return nil
}

// ChangePlan switches an active subscription to plan.
func (s *Subscription) ChangePlan(plan user.Plan, now time.Time) error {
	if !s.IsActive() {
		return errors.New(errors.ErrCodeSubscriptionNotFound, "no active subscription")
	}
	if plan != user.PlanFree && plan != user.PlanPro {
		return errors.New(errors.ErrCodePlanInvalid, "invalid plan selected")
	}
	s.Plan = plan
	s.UpdatedAt = now.UTC()
	return nil
}

// Roll handles an elapsed billing period: auto-renewing subscriptions move to
// the next period, the rest expire. It returns false when the current period
// has not ended yet.
func (s *Subscription) Roll(now time.Time) bool {
	now = now.UTC()
	if !s.IsActive() || now.Before(s.CurrentPeriodEnd) {
		return false
	}
	if s.AutoRenew {
		for !now.Before(s.CurrentPeriodEnd) {
			s.CurrentPeriodStart = s.CurrentPeriodEnd
			s.CurrentPeriodEnd = s.CurrentPeriodEnd.Add(BillingPeriod)
		}
	} else {
		s.Status = StatusExpired
	}
	s.UpdatedAt = now
	return true
}

// ChangedEvent is published on subscription.changed.
type ChangedEvent struct {
	common.BaseEvent
	UserID string    `json:"user_id"`
	Plan   user.Plan `json:"plan"`
	Status Status    `json:"status"`
}

func NewChangedEvent(s *Subscription) *ChangedEvent {
	return &ChangedEvent{
		BaseEvent: common.NewBaseEvent(EventChanged, s.ID.String()),
		UserID:    s.UserID.String(),
		Plan:      s.Plan,
		Status:    s.Status,
	}
}
