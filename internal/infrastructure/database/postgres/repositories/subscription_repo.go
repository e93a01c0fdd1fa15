package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

const subscriptionColumns = `id, user_id, plan, status, start_date, current_period_start, current_period_end,
	trial_ends_at, cancelled_at, auto_renew, payment_method, created_at, updated_at`

type postgresSubscriptionRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewSubscriptionRepository returns a subscription.Repository backed by PostgreSQL.
func NewSubscriptionRepository(conn *postgres.Connection, log logging.Logger) subscription.Repository {
	return &postgresSubscriptionRepo{conn: conn, log: log}
}

func (r *postgresSubscriptionRepo) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := executor(ctx, r.conn.Pool()).Exec(ctx, query,
		s.ID, s.UserID, string(s.Plan), string(s.Status), s.StartDate, s.CurrentPeriodStart, s.CurrentPeriodEnd,
		s.TrialEndsAt, s.CancelledAt, s.AutoRenew, s.PaymentMethod, s.CreatedAt, s.UpdatedAt,
	)
	return r.writeError(err, "failed to create subscription")
}

func (r *postgresSubscriptionRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 AND status = 'ACTIVE'`
	return scanSubscription(executor(ctx, r.conn.Pool()).QueryRow(ctx, query, userID))
}

func (r *postgresSubscriptionRepo) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	return scanSubscription(executor(ctx, r.conn.Pool()).QueryRow(ctx, query, userID))
}

func (r *postgresSubscriptionRepo) Update(ctx context.Context, s *subscription.Subscription) error {
	query := `
		UPDATE subscriptions SET
			plan = $2, status = $3, current_period_start = $4, current_period_end = $5,
			trial_ends_at = $6, cancelled_at = $7, auto_renew = $8, payment_method = $9, updated_at = $10
		WHERE id = $1
	`
	tag, err := executor(ctx, r.conn.Pool()).Exec(ctx, query,
		s.ID, string(s.Plan), string(s.Status), s.CurrentPeriodStart, s.CurrentPeriodEnd,
		s.TrialEndsAt, s.CancelledAt, s.AutoRenew, s.PaymentMethod, s.UpdatedAt,
	)
	if err != nil {
		return r.writeError(err, "failed to update subscription")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeSubscriptionNotFound, "subscription not found")
	}
	return nil
}

func (r *postgresSubscriptionRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE status = 'ACTIVE' AND current_period_end <= $1
		ORDER BY current_period_end, id
		LIMIT $2`
	rows, err := executor(ctx, r.conn.Pool()).Query(ctx, query, now, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list due subscriptions")
	}
	defer rows.Close()

	var out []*subscription.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate subscriptions")
	}
	return out, nil
}

func (r *postgresSubscriptionRepo) writeError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := uniqueViolation(err); ok {
		return errors.Wrap(err, errors.ErrCodeSubscriptionExists, "an active subscription already exists")
	}
	r.log.Error(msg, logging.Err(err))
	return errors.Wrap(err, errors.ErrCodeDatabaseError, msg)
}

func scanSubscription(row scanner) (*subscription.Subscription, error) {
	s := &subscription.Subscription{}
	var plan, status string
	err := row.Scan(
		&s.ID, &s.UserID, &plan, &status, &s.StartDate, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.TrialEndsAt, &s.CancelledAt, &s.AutoRenew, &s.PaymentMethod, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeSubscriptionNotFound, "subscription not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan subscription")
	}
	s.Plan = user.Plan(plan)
	s.Status = subscription.Status(status)
	return s, nil
}
