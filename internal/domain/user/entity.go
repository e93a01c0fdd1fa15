// Package user holds the account aggregate: credentials, profile and the plan
// a user signed up with.
package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/pkg/errors"
)

// Role is the authorization role of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Plan is the billing plan of an account.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// ParsePlan converts a case-insensitive plan name. An empty name yields
// PlanFree.
func ParsePlan(s string) (Plan, error) {
	switch Plan(strings.ToLower(strings.TrimSpace(s))) {
	case "", PlanFree:
		return PlanFree, nil
	case PlanPro:
		return PlanPro, nil
	default:
		return "", errors.New(errors.ErrCodePlanInvalid, "invalid plan selected").WithDetail("plan=" + s)
	}
}

// Password length bounds in bytes. bcrypt only accepts up to 72.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Company      string    `json:"company,omitempty"`
	Role         Role      `json:"role"`
	Plan         Plan      `json:"plan"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile carries the registration fields other than credentials.
type Profile struct {
	FirstName string
	LastName  string
	Company   string
	Plan      Plan
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports whether email is a bare, well-formed address.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.InvalidParam("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return errors.InvalidParam("email is invalid").WithDetail("email=" + email)
	}
	return nil
}

// ValidatePassword enforces the password length bounds.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return errors.InvalidParam("password must be at least 8 characters")
	case len(password) > MaxPasswordLength:
		return errors.InvalidParam("password must be at most 72 bytes")
	}
	return nil
}

// NewUser builds a validated account. passwordHash must already be hashed.
func NewUser(email, passwordHash string, p Profile) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, errors.InvalidParam("password hash is required")
	}
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	if first == "" || last == "" {
		return nil, errors.InvalidParam("first name and last name are required")
	}
	plan := p.Plan
	if plan == "" {
		plan = PlanFree
	}

	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    first,
		LastName:     last,
		Company:      strings.TrimSpace(p.Company),
		Role:         RoleUser,
		Plan:         plan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
