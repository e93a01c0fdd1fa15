// Package subscription manages a user's plan: starting, cancelling and
// switching subscriptions, plus the periodic sweep that renews or expires
// subscriptions whose billing period has ended.
package subscription

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/internal/application/events"
	domain "github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// Service defines the subscription operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input *CreateInput) (*domain.Subscription, error)
	// Get returns the user's most recent subscription, active or not.
	Get(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	GetActive(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	ChangePlan(ctx context.Context, userID uuid.UUID, plan string) (*domain.Subscription, error)
	// SweepDue renews or expires subscriptions whose period has ended and
	// returns how many were processed.
	SweepDue(ctx context.Context) (int, error)
}

// CreateInput contains input for starting a subscription.
type CreateInput struct {
	Plan          string `json:"plan"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// TxRunner runs fn in one database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// sweepBatch bounds the subscriptions handled in one sweep.
const sweepBatch = 500

type serviceImpl struct {
	subs      domain.Repository
	users     user.Repository
	tx        TxRunner
	emitter   *events.Emitter
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
	trialDays int
	now       func() time.Time
}

// NewService creates the subscription service.
func NewService(
	subs domain.Repository,
	users user.Repository,
	tx TxRunner,
	emitter *events.Emitter,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
	trialDays int,
) Service {
	return &serviceImpl{
		subs:      subs,
		users:     users,
		tx:        tx,
		emitter:   emitter,
		metrics:   metrics,
		logger:    logger.Named("subscription"),
		trialDays: trialDays,
		now:       time.Now,
	}
}

func (s *serviceImpl) Create(ctx context.Context, userID uuid.UUID, input *CreateInput) (*domain.Subscription, error) {
	if input == nil {
		input = &CreateInput{}
	}
	plan, err := user.ParsePlan(input.Plan)
	if err != nil {
		return nil, err
	}
	existing, err := s.subs.GetActiveByUser(ctx, userID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New(errors.ErrCodeSubscriptionExists, "user already has an active subscription")
	}

	sub, err := domain.New(userID, plan, strings.TrimSpace(input.PaymentMethod), s.trialDays, s.now())
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.subs.Create(ctx, sub); err != nil {
			return err
		}
		return s.users.UpdatePlan(ctx, userID, plan)
	})
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, domain.NewChangedEvent(sub))
	return sub, nil
}

func (s *serviceImpl) Get(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return s.subs.GetLatestByUser(ctx, userID)
}

func (s *serviceImpl) GetActive(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return s.subs.GetActiveByUser(ctx, userID)
}

func (s *serviceImpl) Cancel(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.subs.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := sub.Cancel(s.now()); err != nil {
		return nil, err
	}
	// Without an ACTIVE subscription the user is back on the free plan.
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.subs.Update(ctx, sub); err != nil {
			return err
		}
		return s.users.UpdatePlan(ctx, userID, user.PlanFree)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("subscription cancelled", logging.String("user_id", userID.String()))
	s.emitter.Emit(ctx, domain.NewChangedEvent(sub))
	return sub, nil
}

func (s *serviceImpl) ChangePlan(ctx context.Context, userID uuid.UUID, plan string) (*domain.Subscription, error) {
	next, err := user.ParsePlan(plan)
	if err != nil {
		return nil, err
	}
	sub, err := s.subs.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Plan == next {
		return sub, nil
	}
	if err := sub.ChangePlan(next, s.now()); err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.subs.Update(ctx, sub); err != nil {
			return err
		}
		return s.users.UpdatePlan(ctx, userID, next)
	})
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, domain.NewChangedEvent(sub))
	return sub, nil
}

func (s *serviceImpl) SweepDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.subs.ListDue(ctx, now, sweepBatch)
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, sub := range due {
		if !sub.Roll(now) {
			continue
		}
		if err := s.subs.Update(ctx, sub); err != nil {
			s.metrics.RecordExpiry("error")
			s.logger.Error("failed to roll subscription",
				logging.String("subscription_id", sub.ID.String()), logging.Err(err))
			continue
		}
		outcome := "renewed"
		if sub.Status == domain.StatusExpired {
			outcome = "expired"
			if err := s.users.UpdatePlan(ctx, sub.UserID, user.PlanFree); err != nil {
				s.logger.Warn("failed to reset plan of expired subscription",
					logging.String("user_id", sub.UserID.String()), logging.Err(err))
			}
		}
		s.metrics.RecordExpiry(outcome)
		s.emitter.Emit(ctx, domain.NewChangedEvent(sub))
		processed++
	}
	return processed, nil
}
