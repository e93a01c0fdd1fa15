// Package patent holds the Patent aggregate, its documents, the derived search
// report and the search criteria used to query a user's portfolio. Every rule
// about what a patent may contain and which status it may move to lives here;
// persistence and AI analysis are handled by other layers.
package patent

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/pkg/errors"
)

// Status is the prosecution state of a patent.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusFiled    Status = "filed"
	StatusGranted  Status = "granted"
	StatusRejected Status = "rejected"
)

// ParseStatus converts a case-insensitive status name.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := allowedTransitions[st]; !ok {
		return "", errors.New(errors.ErrCodePatentStatusInvalid, "invalid patent status").
			WithDetail(fmt.Sprintf("status=%q", s))
	}
	return st, nil
}

// allowedTransitions lists the statuses reachable from each status.
//
//	draft    ──► pending | filed
//	pending  ──► draft | filed | rejected
//	filed    ──► granted | rejected | pending
//	rejected ──► draft
//	granted     (terminal)
var allowedTransitions = map[Status][]Status{
	StatusDraft:    {StatusPending, StatusFiled},
	StatusPending:  {StatusDraft, StatusFiled, StatusRejected},
	StatusFiled:    {StatusGranted, StatusRejected, StatusPending},
	StatusRejected: {StatusDraft},
	StatusGranted:  {},
}

// CanTransitionTo reports whether s may move to next. Staying in the same
// status is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Patent is the aggregate root. OwnerID is set once at creation and never
// changes.
type Patent struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Inventors      []string   `json:"inventors"`
	Jurisdictions  []string   `json:"jurisdictions"`
	Status         Status     `json:"status"`
	Claims         []string   `json:"claims,omitempty"`
	TechnicalField string     `json:"technical_field,omitempty"`
	BackgroundArt  string     `json:"background_art,omitempty"`
	PatentNumber   string     `json:"patent_number,omitempty"`
	FilingDate     *time.Time `json:"filing_date,omitempty"`
	GrantDate      *time.Time `json:"grant_date,omitempty"`

	UniquenessScore *float64      `json:"uniqueness_score,omitempty"`
	MarketPotential *float64      `json:"market_potential,omitempty"`
	SearchReport    *SearchReport `json:"search_report,omitempty"`

	Documents []*Document `json:"documents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input carries the caller-supplied fields of a new patent.
type Input struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Inventors      []string `json:"inventors"`
	Jurisdictions  []string `json:"jurisdictions"`
	Claims         []string `json:"claims,omitempty"`
	TechnicalField string   `json:"technical_field,omitempty"`
	BackgroundArt  string   `json:"background_art,omitempty"`
	PatentNumber   string   `json:"patent_number,omitempty"`
}

// Update is a partial replacement; nil fields are left unchanged.
type Update struct {
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Inventors      *[]string `json:"inventors,omitempty"`
	Jurisdictions  *[]string `json:"jurisdictions,omitempty"`
	Claims         *[]string `json:"claims,omitempty"`
	TechnicalField *string   `json:"technical_field,omitempty"`
	BackgroundArt  *string   `json:"background_art,omitempty"`
	PatentNumber   *string   `json:"patent_number,omitempty"`
}

// NewPatent builds a draft patent owned by ownerID. Free text is sanitized
// before validation.
func NewPatent(ownerID uuid.UUID, in Input) (*Patent, error) {
	if ownerID == uuid.Nil {
		return nil, errors.InvalidParam("owner is required")
	}
	now := time.Now().UTC()
	p := &Patent{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Title:          SanitizeText(in.Title),
		Description:    SanitizeText(in.Description),
		Inventors:      sanitizeList(in.Inventors),
		Jurisdictions:  NormalizeJurisdictions(in.Jurisdictions),
		Status:         StatusDraft,
		Claims:         sanitizeList(in.Claims),
		TechnicalField: SanitizeText(in.TechnicalField),
		BackgroundArt:  SanitizeText(in.BackgroundArt),
		PatentNumber:   strings.TrimSpace(in.PatentNumber),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply merges u into p and re-validates. On error p is left unchanged.
func (p *Patent) Apply(u Update) error {
	next := *p
	if u.Title != nil {
		next.Title = SanitizeText(*u.Title)
	}
	if u.Description != nil {
		next.Description = SanitizeText(*u.Description)
	}
	if u.Inventors != nil {
		next.Inventors = sanitizeList(*u.Inventors)
	}
	if u.Jurisdictions != nil {
		next.Jurisdictions = NormalizeJurisdictions(*u.Jurisdictions)
	}
	if u.Claims != nil {
		next.Claims = sanitizeList(*u.Claims)
	}
	if u.TechnicalField != nil {
		next.TechnicalField = SanitizeText(*u.TechnicalField)
	}
	if u.BackgroundArt != nil {
		next.BackgroundArt = SanitizeText(*u.BackgroundArt)
	}
	if u.PatentNumber != nil {
		next.PatentNumber = strings.TrimSpace(*u.PatentNumber)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	*p = next
	return nil
}

// Validate enforces the structural invariants of a patent.
func (p *Patent) Validate() error {
	if p.OwnerID == uuid.Nil {
		return errors.InvalidParam("owner is required")
	}
	if p.Title == "" {
		return errors.InvalidParam("title is required")
	}
	if p.Description == "" {
		return errors.InvalidParam("description is required")
	}
	if len(p.Inventors) == 0 {
		return errors.InvalidParam("at least one inventor is required")
	}
	if len(p.Jurisdictions) == 0 {
		return errors.InvalidParam("at least one jurisdiction is required")
	}
	if _, ok := allowedTransitions[p.Status]; !ok {
		return errors.New(errors.ErrCodePatentStatusInvalid, "invalid patent status")
	}
	for _, score := range []*float64{p.UniquenessScore, p.MarketPotential} {
		if score != nil && (*score < 0 || *score > 100) {
			return errors.InvalidParam("scores must be within [0,100]")
		}
	}
	return nil
}

// TransitionTo moves the patent to next, stamping the filing date on the
// first entry into filed and the grant date on entry into granted. It
// reports whether the status actually changed.
func (p *Patent) TransitionTo(next Status, now time.Time) (bool, error) {
	if _, ok := allowedTransitions[next]; !ok {
		return false, errors.New(errors.ErrCodePatentStatusInvalid, "invalid patent status")
	}
	if p.Status == next {
		return false, nil
	}
	if !p.Status.CanTransitionTo(next) {
		return false, errors.New(errors.ErrCodePatentStatusInvalid, "status transition not allowed").
			WithDetail(fmt.Sprintf("%s -> %s", p.Status, next))
	}
	now = now.UTC()
	switch next {
	case StatusFiled:
		if p.FilingDate == nil {
			p.FilingDate = &now
		}
	case StatusGranted:
		p.GrantDate = &now
	}
	p.Status = next
	p.UpdatedAt = now
	return true, nil
}

// IsOwnedBy reports whether userID owns p.
func (p *Patent) IsOwnedBy(userID uuid.UUID) bool {
	return p != nil && p.OwnerID == userID
}

// Text returns the title, description and claims joined for analysis.
func (p *Patent) Text() string {
	var sb strings.Builder
	sb.WriteString(p.Title)
	sb.WriteString(". ")
	sb.WriteString(p.Description)
	for _, c := range p.Claims {
		sb.WriteString(" ")
		sb.WriteString(c)
	}
	return sb.String()
}

// NormalizeJurisdictions upper-cases and trims codes, dropping blanks and
// duplicates while keeping the order of first appearance.
func NormalizeJurisdictions(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, j := range in {
		j = strings.ToUpper(strings.TrimSpace(j))
		if j == "" {
			continue
		}
		if _, dup := seen[j]; dup {
			continue
		}
		seen[j] = struct{}{}
		out = append(out, j)
	}
	return out
}

func sanitizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = SanitizeText(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
