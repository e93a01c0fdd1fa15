// Package intelligence defines the AI capabilities PatentDesk depends on and
// the adapter that applies the configured failure policy to every call.
// Concrete providers live in the gpt and inference subpackages; a
// deterministic offline model is provided here.
package intelligence

import (
	"context"
	"sort"
	"strings"

	"github.com/turtacn/patentdesk/internal/domain/patent"
)

// Label is one classification result.
type Label = patent.TechnicalClass

// MaxLabels is the number of labels Classify returns at most.
const MaxLabels = 3

// PatentText is the subset of a patent the models look at.
type PatentText struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	TechnicalField string   `json:"technical_field,omitempty"`
	BackgroundArt  string   `json:"background_art,omitempty"`
	Claims         []string `json:"claims,omitempty"`
	Jurisdictions  []string `json:"jurisdictions,omitempty"`
}

// TextOf extracts the analysable text of p.
func TextOf(p *patent.Patent) PatentText {
	return PatentText{
		Title:          p.Title,
		Description:    p.Description,
		TechnicalField: p.TechnicalField,
		BackgroundArt:  p.BackgroundArt,
		Claims:         p.Claims,
		Jurisdictions:  p.Jurisdictions,
	}
}

// Full joins title, description and claims into one document.
func (t PatentText) Full() string {
	var sb strings.Builder
	sb.WriteString(t.Title)
	sb.WriteString(". ")
	sb.WriteString(t.Description)
	for _, c := range t.Claims {
		sb.WriteString(" ")
		sb.WriteString(c)
	}
	return sb.String()
}

// QualityAnalysis scores a patent. Scores are within [0,100].
type QualityAnalysis struct {
	TechnicalComplexity float64  `json:"technical_complexity"`
	MarketPotential     float64  `json:"market_potential"`
	InnovationScore     float64  `json:"innovation_score"`
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
	Opportunities       []string `json:"opportunities"`
	Risks               []string `json:"risks"`
}

// Normalize clamps scores and replaces nil lists with empty ones.
func (q QualityAnalysis) Normalize() QualityAnalysis {
	q.TechnicalComplexity = patent.Clamp(q.TechnicalComplexity, 0, 100)
	q.MarketPotential = patent.Clamp(q.MarketPotential, 0, 100)
	q.InnovationScore = patent.Clamp(q.InnovationScore, 0, 100)
	q.Strengths = nonNil(q.Strengths)
	q.Weaknesses = nonNil(q.Weaknesses)
	q.Opportunities = nonNil(q.Opportunities)
	q.Risks = nonNil(q.Risks)
	return q
}

// DefaultQuality is returned under the fallback policy.
func DefaultQuality() QualityAnalysis {
	return QualityAnalysis{TechnicalComplexity: 50, MarketPotential: 50, InnovationScore: 50}.Normalize()
}

// SimilarityResult is the outcome of comparing a patent with its corpus.
type SimilarityResult struct {
	Overall    float64                    `json:"overall"`
	References []patent.PriorArtReference `json:"references"`
}

// SearchStrategy suggests how to search for prior art.
type SearchStrategy struct {
	Keywords        []string `json:"keywords"`
	Classifications []string `json:"classifications"`
	Queries         []string `json:"queries"`
}

// TextModel covers BERT-style text tasks.
type TextModel interface {
	Classify(ctx context.Context, text string) ([]Label, error)
	Embed(ctx context.Context, text string) ([]float64, error)
	Summarize(ctx context.Context, text string, maxLen int) (string, error)
	ExtractEntities(ctx context.Context, text string) (map[string][]string, error)
}

// LanguageModel covers generative analysis.
type LanguageModel interface {
	AnalyzePatent(ctx context.Context, p PatentText) (QualityAnalysis, error)
	Recommend(ctx context.Context, p PatentText, sim SimilarityResult, q QualityAnalysis) ([]string, error)
	SearchStrategy(ctx context.Context, p PatentText) (SearchStrategy, error)
}

// Analyzer is the single entry point used by application services.
type Analyzer interface {
	TextModel
	LanguageModel
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// KeyFeatures flattens extracted entities into one list ordered by entity
// type, dropping repeats.
func KeyFeatures(entities map[string][]string) []string {
	types := make([]string, 0, len(entities))
	for t := range entities {
		types = append(types, t)
	}
	sort.Strings(types)

	out := []string{}
	seen := map[string]struct{}{}
	for _, t := range types {
		for _, v := range entities[t] {
			v = strings.TrimSpace(v)
			if _, dup := seen[v]; dup || v == "" {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
