// Package auth registers accounts, checks credentials and issues the bearer
// tokens that every other operation is scoped by.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/turtacn/patentdesk/internal/application/events"
	"github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// ErrInvalidCredentials is returned for an unknown email and a wrong password
// alike.
var ErrInvalidCredentials = errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")

// Service defines the account operations.
type Service interface {
	Register(ctx context.Context, input *RegisterInput) (*AuthPayload, error)
	Login(ctx context.Context, input *LoginInput) (*AuthPayload, error)
	Me(ctx context.Context, userID uuid.UUID) (*user.User, error)
}

// RegisterInput contains input for creating an account.
type RegisterInput struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Company       string `json:"company,omitempty"`
	Plan          string `json:"plan,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// LoginInput contains input for logging in.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload is returned by Register and Login.
type AuthPayload struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, error)
}

// TxRunner runs fn in one database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Options tunes the service. Zero values select the defaults.
type Options struct {
	BcryptCost int
	TrialDays  int
}

type serviceImpl struct {
	users   user.Repository
	subs    subscription.Repository
	tx      TxRunner
	tokens  TokenIssuer
	emitter *events.Emitter
	metrics *prometheus.AppMetrics
	logger  logging.Logger
	cost    int
	trial   int
	now     func() time.Time
}

// NewService creates the auth service.
func NewService(
	users user.Repository,
	subs subscription.Repository,
	tx TxRunner,
	tokens TokenIssuer,
	emitter *events.Emitter,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
	opts Options,
) Service {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &serviceImpl{
		users:   users,
		subs:    subs,
		tx:      tx,
		tokens:  tokens,
		emitter: emitter,
		metrics: metrics,
		logger:  logger.Named("auth"),
		cost:    cost,
		trial:   opts.TrialDays,
		now:     time.Now,
	}
}

func (s *serviceImpl) Register(ctx context.Context, input *RegisterInput) (*AuthPayload, error) {
	payload, err := s.register(ctx, input)
	s.metrics.RecordAuthAttempt("register", err == nil)
	return payload, err
}

func (s *serviceImpl) register(ctx context.Context, input *RegisterInput) (*AuthPayload, error) {
	if input == nil {
		return nil, errors.InvalidParam("input is required")
	}
	email := user.NormalizeEmail(input.Email)
	if err := user.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := user.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	plan, err := user.ParsePlan(input.Plan)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, errors.InvalidParam("first name and last name are required")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New(errors.ErrCodeDuplicateEmail, "user with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}

	u, err := user.NewUser(email, string(hash), user.Profile{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Company:   input.Company,
		Plan:      plan,
	})
	if err != nil {
		return nil, err
	}
	sub, err := subscription.New(u.ID, plan, strings.TrimSpace(input.PaymentMethod), s.trial, s.now())
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		return s.subs.Create(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", logging.String("user_id", u.ID.String()), logging.String("plan", string(plan)))
	s.emitter.Emit(ctx, subscription.NewChangedEvent(sub))
	return &AuthPayload{Token: token, User: u}, nil
}

func (s *serviceImpl) Login(ctx context.Context, input *LoginInput) (*AuthPayload, error) {
	payload, err := s.login(ctx, input)
	s.metrics.RecordAuthAttempt("login", err == nil)
	return payload, err
}

func (s *serviceImpl) login(ctx context.Context, input *LoginInput) (*AuthPayload, error) {
	if input == nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(input.Email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &AuthPayload{Token: token, User: u}, nil
}

func (s *serviceImpl) Me(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	if userID == uuid.Nil {
		return nil, errors.Unauthorized("authentication required")
	}
	return s.users.GetByID(ctx, userID)
}
