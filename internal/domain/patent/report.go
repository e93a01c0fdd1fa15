package patent

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// PriorArtReference is one match found while building a search report.
type PriorArtReference struct {
	PatentNumber    string     `json:"patent_number"`
	Title           string     `json:"title"`
	RelevanceScore  float64    `json:"relevance_score"`
	MatchingClaims  []string   `json:"matching_claims"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

// TechnicalClass is one technical field a text was classified into.
type TechnicalClass struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AIAnalysis is the client-facing view of a quality analysis.
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

// MarketSizeMultiplier converts a 0..100 market potential into a USD estimate.
const MarketSizeMultiplier = 1_000_000

// NewAIAnalysis maps quality scores onto the client view. The market size
// estimate is marketPotential scaled to USD; opportunities describe the
// competitive landscape.
func NewAIAnalysis(technicalComplexity, marketPotential, innovationScore float64, opportunities, risks []string) AIAnalysis {
	if opportunities == nil {
		opportunities = []string{}
	}
	if risks == nil {
		risks = []string{}
	}
	return AIAnalysis{
		TechnicalComplexity:     Clamp(technicalComplexity, 0, 100),
		MarketSizeEstimate:      Clamp(marketPotential, 0, 100) * MarketSizeMultiplier,
		CompetitiveLandscape:    opportunities,
		InnovationScore:         Clamp(innovationScore, 0, 100),
		RiskFactors:             risks,
		TechnicalClassification: []TechnicalClass{},
		KeyFeatures:             []string{},
	}
}

// WithTechnicalProfile returns a copy of a carrying the text-model view of
// the patent.
func (a AIAnalysis) WithTechnicalProfile(classes []TechnicalClass, features []string, summary string) AIAnalysis {
	if classes == nil {
		classes = []TechnicalClass{}
	}
	if features == nil {
		features = []string{}
	}
	a.TechnicalClassification = classes
	a.KeyFeatures = features
	a.TechnicalSummary = summary
	return a
}

// SearchStrategy suggests how to look for prior art on a patent.
type SearchStrategy struct {
	Keywords                []string         `json:"keywords"`
	Classifications         []string         `json:"classifications"`
	SearchQueries           []string         `json:"search_queries"`
	KeyFeatures             []string         `json:"key_features"`
	TechnicalClassification []TechnicalClass `json:"technical_classification"`
}

// SimilarPatent is a patent from the owner's portfolio together with its
// similarity (0..100) to the patent being compared.
type SimilarPatent struct {
	*Patent
	SimilarityScore float64 `json:"similarity_score"`
}

// SearchReport is derived on demand and stored on the patent as JSON.
// Regenerating it overwrites the previous copy.
type SearchReport struct {
	SimilarityScore    float64             `json:"similarity_score"`
	PriorArtReferences []PriorArtReference `json:"prior_art_references"`
	AIAnalysis         AIAnalysis          `json:"ai_analysis"`
	Recommendations    []string            `json:"recommendations"`
	GeneratedAt        time.Time           `json:"generated_at"`
}

// UniquenessFromSimilarity is the complement of the overall similarity
// (0..1) on a 0..100 scale.
func UniquenessFromSimilarity(overall float64) float64 {
	return Clamp(100-overall*100, 0, 100)
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AnalysisCachePrefix is shared by every cached analysis of patent id.
func AnalysisCachePrefix(id uuid.UUID) string {
	return "analysis:" + id.String() + ":"
}

// AnalysisCacheKey identifies the analysis of one revision of a patent, so an
// edit that bumps updatedAt makes the old entry unreachable. Microseconds
// match the timestamptz precision updated_at is stored with.
func AnalysisCacheKey(id uuid.UUID, updatedAt time.Time) string {
	return AnalysisCachePrefix(id) + strconv.FormatInt(updatedAt.UnixMicro(), 10)
}
