package intelligence

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// MockDims is the embedding width of MockModel.
const MockDims = 64

// MockModel is a deterministic offline model. It implements both TextModel
// and LanguageModel and is the default when no provider is configured.
type MockModel struct{}

func NewMockModel() *MockModel { return &MockModel{} }

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {},
	"on": {}, "or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "with": {}, "which": {},
	"said": {}, "wherein": {}, "comprising": {}, "claim": {}, "method": {}, "system": {},
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func contentWords(text string) []string {
	var out []string
	for _, w := range tokenize(text) {
		if _, stop := stopWords[w]; stop || len(w) < 3 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Embed hashes each token into one of MockDims buckets and L2-normalises the
// counts. Empty text yields the zero vector.
func (m *MockModel) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, MockDims)
	for _, w := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%MockDims]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

var classBuckets = map[string][]string{
	"biotechnology":     {"protein", "gene", "cell", "dna", "enzyme", "antibody", "bacteria", "pharmaceutical"},
	"chemistry":         {"compound", "polymer", "catalyst", "molecule", "solvent", "synthesis", "reaction"},
	"electronics":       {"circuit", "semiconductor", "transistor", "voltage", "signal", "sensor", "battery"},
	"mechanical":        {"gear", "shaft", "engine", "valve", "spring", "bearing", "motor", "housing"},
	"software":          {"software", "algorithm", "data", "network", "computer", "processor", "database", "server"},
	"medical devices":   {"medical", "patient", "implant", "surgical", "catheter", "diagnostic"},
	"energy":            {"solar", "turbine", "fuel", "energy", "photovoltaic", "grid"},
	"telecommunication": {"wireless", "antenna", "frequency", "transmission", "radio", "5g"},
}

// Classify scores each keyword bucket by its share of hits and returns the
// top MaxLabels. Text matching no bucket is labelled "general".
func (m *MockModel) Classify(ctx context.Context, text string) ([]Label, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := tokenize(text)
	hits := map[string]int{}
	total := 0
	for _, w := range words {
		for label, kws := range classBuckets {
			for _, kw := range kws {
				if w == kw {
					hits[label]++
					total++
				}
			}
		}
	}
	if total == 0 {
		return []Label{{Label: "general", Score: 1}}, nil
	}
	labels := make([]Label, 0, len(hits))
	for label, n := range hits {
		labels = append(labels, Label{Label: label, Score: float64(n) / float64(total)})
	}
	SortLabels(labels)
	if len(labels) > MaxLabels {
		labels = labels[:MaxLabels]
	}
	return labels, nil
}

// SortLabels orders by score descending, then label.
func SortLabels(labels []Label) {
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Score != labels[j].Score {
			return labels[i].Score > labels[j].Score
		}
		return labels[i].Label < labels[j].Label
	})
}

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

// Summarize keeps whole leading sentences while they fit in maxLen runes. If
// the first sentence alone is too long it is cut at a word boundary.
func (m *MockModel) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if maxLen <= 0 || len([]rune(text)) <= maxLen {
		return text, nil
	}
	var out string
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		candidate := strings.TrimSpace(text[:loc[1]])
		if len([]rune(candidate)) > maxLen {
			break
		}
		out = candidate
	}
	if out == "" {
		out = Truncate(text, maxLen)
	}
	return out, nil
}

var measurement = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:nm|µm|mm|cm|m|kg|mg|g|ml|l|°c|k|%|hz|khz|mhz|ghz|mv|v|mw|kw|w|mah)\b`)

// ExtractEntities returns frequent content words as KEYWORD, measurements as
// QUANTITY and mid-sentence capitalised words as TERM.
func (m *MockModel) ExtractEntities(ctx context.Context, text string) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := map[string][]string{}
	if kw := topWords(text, 5); len(kw) > 0 {
		out["KEYWORD"] = kw
	}
	if q := dedupe(measurement.FindAllString(text, -1)); len(q) > 0 {
		out["QUANTITY"] = q
	}
	var terms []string
	fields := strings.Fields(text)
	for i := 1; i < len(fields); i++ {
		prev := fields[i-1]
		if strings.HasSuffix(prev, ".") {
			continue
		}
		w := strings.TrimFunc(fields[i], func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w != "" && unicode.IsUpper([]rune(w)[0]) {
			terms = append(terms, w)
		}
	}
	if terms = dedupe(terms); len(terms) > 0 {
		out["TERM"] = terms
	}
	return out, nil
}

func topWords(text string, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, w := range contentWords(text) {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// AnalyzePatent derives scores from simple text features: vocabulary size,
// claim count and jurisdiction coverage.
func (m *MockModel) AnalyzePatent(ctx context.Context, p PatentText) (QualityAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return QualityAnalysis{}, err
	}
	words := contentWords(p.Full())
	unique := len(dedupe(words))
	claims := len(p.Claims)
	juris := len(p.Jurisdictions)

	q := QualityAnalysis{
		TechnicalComplexity: 20 + float64(unique)/2 + float64(claims)*3,
		MarketPotential:     30 + float64(juris)*10 + float64(claims)*2,
		InnovationScore:     35 + float64(unique)/3 + float64(claims)*4,
	}

	if claims >= 5 {
		q.Strengths = append(q.Strengths, "Comprehensive claim set")
	} else {
		q.Weaknesses = append(q.Weaknesses, "Few claims; scope may be easy to design around")
	}
	if len([]rune(p.Description)) >= 500 {
		q.Strengths = append(q.Strengths, "Detailed description supports enablement")
	} else {
		q.Weaknesses = append(q.Weaknesses, "Short description may not support broad claims")
	}
	if juris >= 3 {
		q.Strengths = append(q.Strengths, "Broad geographic coverage")
	} else {
		q.Opportunities = append(q.Opportunities, "Extend protection to additional jurisdictions")
	}
	if p.TechnicalField != "" {
		q.Opportunities = append(q.Opportunities, fmt.Sprintf("Licensing within %s", p.TechnicalField))
	}
	if p.BackgroundArt == "" {
		q.Risks = append(q.Risks, "Background art not documented")
	}
	q.Risks = append(q.Risks, "Undiscovered prior art may narrow enforceable scope")
	return q.Normalize(), nil
}

// Recommend applies fixed rules to the similarity and quality results.
func (m *MockModel) Recommend(ctx context.Context, p PatentText, sim SimilarityResult, q QualityAnalysis) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var recs []string
	switch {
	case sim.Overall >= 0.8:
		recs = append(recs, "Claims overlap heavily with existing art; narrow the independent claims")
	case sim.Overall >= 0.5:
		recs = append(recs, "Differentiate the claims from the closest references")
	}
	if n := len(sim.References); n > 0 {
		recs = append(recs, fmt.Sprintf("Review the %d most similar references before filing", n))
	}
	if len(p.Claims) < 3 {
		recs = append(recs, "Add dependent claims to cover fallback positions")
	}
	if q.MarketPotential >= 70 {
		recs = append(recs, "Consider filing in additional jurisdictions")
	}
	if q.TechnicalComplexity < 40 {
		recs = append(recs, "Expand the technical description with implementation detail")
	}
	if len(recs) == 0 {
		recs = append(recs, "Proceed with filing")
	}
	return recs, nil
}

// SearchStrategy builds keyword queries from the most frequent terms.
func (m *MockModel) SearchStrategy(ctx context.Context, p PatentText) (SearchStrategy, error) {
	labels, err := m.Classify(ctx, p.Full())
	if err != nil {
		return SearchStrategy{}, err
	}
	keywords := topWords(p.Full(), 6)
	s := SearchStrategy{Keywords: nonNil(keywords), Classifications: []string{}, Queries: []string{}}
	for _, l := range labels {
		s.Classifications = append(s.Classifications, l.Label)
	}
	for i := 0; i+1 < len(keywords); i += 2 {
		s.Queries = append(s.Queries, keywords[i]+" AND "+keywords[i+1])
	}
	if len(keywords) > 0 {
		s.Queries = append(s.Queries, strings.Join(keywords, " OR "))
	}
	return s, nil
}
