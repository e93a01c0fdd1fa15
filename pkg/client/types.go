package client

import "time"

// Patent status values.
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusFiled    = "filed"
	StatusGranted  = "granted"
	StatusRejected = "rejected"
)

// Subscription plans.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// User is a registered account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthPayload is returned by Register and Login.
type AuthPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type RegisterRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Company       string `json:"company,omitempty"`
	Plan          string `json:"plan,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// Patent is a patent application owned by the caller.
type Patent struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"owner_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Inventors       []string      `json:"inventors"`
	Jurisdictions   []string      `json:"jurisdictions"`
	Status          string        `json:"status"`
	Claims          []string      `json:"claims,omitempty"`
	TechnicalField  string        `json:"technical_field,omitempty"`
	BackgroundArt   string        `json:"background_art,omitempty"`
	PatentNumber    string        `json:"patent_number,omitempty"`
	FilingDate      *time.Time    `json:"filing_date,omitempty"`
	GrantDate       *time.Time    `json:"grant_date,omitempty"`
	UniquenessScore *float64      `json:"uniqueness_score,omitempty"`
	MarketPotential *float64      `json:"market_potential,omitempty"`
	SearchReport    *SearchReport `json:"search_report,omitempty"`
	Documents       []*Document   `json:"documents,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PatentInput creates a patent.
type PatentInput struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Inventors      []string `json:"inventors"`
	Jurisdictions  []string `json:"jurisdictions"`
	Claims         []string `json:"claims,omitempty"`
	TechnicalField string   `json:"technical_field,omitempty"`
	BackgroundArt  string   `json:"background_art,omitempty"`
	PatentNumber   string   `json:"patent_number,omitempty"`
}

// PatentUpdate changes only the non-nil fields.
type PatentUpdate struct {
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Inventors      *[]string `json:"inventors,omitempty"`
	Jurisdictions  *[]string `json:"jurisdictions,omitempty"`
	Claims         *[]string `json:"claims,omitempty"`
	TechnicalField *string   `json:"technical_field,omitempty"`
	BackgroundArt  *string   `json:"background_art,omitempty"`
	PatentNumber   *string   `json:"patent_number,omitempty"`
}

// DateRange bounds the creation date of search results. Dates are
// YYYY-MM-DD or RFC3339.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// SearchRequest filters the caller's patents.
type SearchRequest struct {
	Query          string     `json:"query,omitempty"`
	TechnicalField string     `json:"technical_field,omitempty"`
	Jurisdictions  []string   `json:"jurisdictions,omitempty"`
	Status         []string   `json:"status,omitempty"`
	DateRange      *DateRange `json:"date_range,omitempty"`
	SortBy         string     `json:"sort_by,omitempty"`
	Page           int        `json:"page,omitempty"`
	Limit          int        `json:"limit,omitempty"`
}

// SearchResult is one page of search results.
type SearchResult struct {
	Items      []*Patent `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
}

// Document is a file attached to a patent.
type Document struct {
	ID         string    `json:"id"`
	PatentID   string    `json:"patent_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type PriorArtReference struct {
	PatentNumber    string     `json:"patent_number"`
	Title           string     `json:"title"`
	RelevanceScore  float64    `json:"relevance_score"`
	MatchingClaims  []string   `json:"matching_claims"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

type AIAnalysis struct {
	TechnicalComplexity     float64          `json:"technical_complexity"`
	MarketSizeEstimate      float64          `json:"market_size_estimate"`
	CompetitiveLandscape    []string         `json:"competitive_landscape"`
	InnovationScore         float64          `json:"innovation_score"`
	RiskFactors             []string         `json:"risk_factors"`
	TechnicalClassification []TechnicalClass `json:"technical_classification"`
	KeyFeatures             []string         `json:"key_features"`
	TechnicalSummary        string           `json:"technical_summary"`
}

// TechnicalClass is one technical field with its confidence in [0,1].
type TechnicalClass struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SimilarPatent is a patent ranked by its similarity (0..100) to another.
type SimilarPatent struct {
	Patent
	SimilarityScore float64 `json:"similarity_score"`
}

// SearchStrategy suggests how to search for prior art on a patent.
type SearchStrategy struct {
	Keywords                []string         `json:"keywords"`
	Classifications         []string         `json:"classifications"`
	SearchQueries           []string         `json:"search_queries"`
	KeyFeatures             []string         `json:"key_features"`
	TechnicalClassification []TechnicalClass `json:"technical_classification"`
}

// SearchReport is the prior-art report attached to a patent.
type SearchReport struct {
	SimilarityScore    float64             `json:"similarity_score"`
	PriorArtReferences []PriorArtReference `json:"prior_art_references"`
	AIAnalysis         AIAnalysis          `json:"ai_analysis"`
	Recommendations    []string            `json:"recommendations"`
	GeneratedAt        time.Time           `json:"generated_at"`
}

// Subscription is a user's billing subscription.
type Subscription struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
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
