package graphql

import (
	"context"
	"time"

	"github.com/graph-gophers/graphql-go"

	domainPatent "github.com/turtacn/patentdesk/internal/domain/patent"
	domainSub "github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

type userResolver struct {
	u *user.User
}

func (r *userResolver) ID() graphql.ID    { return graphql.ID(r.u.ID.String()) }
func (r *userResolver) Email() string     { return r.u.Email }
func (r *userResolver) FirstName() string { return r.u.FirstName }
func (r *userResolver) LastName() string  { return r.u.LastName }
func (r *userResolver) Company() *string  { return optional(r.u.Company) }
func (r *userResolver) Role() string      { return string(r.u.Role) }
func (r *userResolver) Plan() string      { return string(r.u.Plan) }
func (r *userResolver) CreatedAt() string { return formatTime(r.u.CreatedAt) }
func (r *userResolver) UpdatedAt() string { return formatTime(r.u.UpdatedAt) }

type patentResolver struct {
	p     *domainPatent.Patent
	root  *Resolver
	score *float64
}

func (r *Resolver) patents(in []*domainPatent.Patent) []*patentResolver {
	out := make([]*patentResolver, 0, len(in))
	for _, p := range in {
		out = append(out, &patentResolver{p: p, root: r})
	}
	return out
}

func (r *patentResolver) ID() graphql.ID            { return graphql.ID(r.p.ID.String()) }
func (r *patentResolver) Title() string             { return r.p.Title }
func (r *patentResolver) Description() string       { return r.p.Description }
func (r *patentResolver) Inventors() []string       { return orEmpty(r.p.Inventors) }
func (r *patentResolver) Jurisdictions() []string   { return orEmpty(r.p.Jurisdictions) }
func (r *patentResolver) Status() string            { return string(r.p.Status) }
func (r *patentResolver) UniquenessScore() *float64 { return r.p.UniquenessScore }
func (r *patentResolver) MarketPotential() *float64 { return r.p.MarketPotential }
func (r *patentResolver) FilingDate() *string       { return formatTimePtr(r.p.FilingDate) }
func (r *patentResolver) GrantDate() *string        { return formatTimePtr(r.p.GrantDate) }
func (r *patentResolver) PatentNumber() *string     { return optional(r.p.PatentNumber) }
func (r *patentResolver) CreatedAt() string         { return formatTime(r.p.CreatedAt) }
func (r *patentResolver) UpdatedAt() string         { return formatTime(r.p.UpdatedAt) }
func (r *patentResolver) Claims() []string          { return orEmpty(r.p.Claims) }
func (r *patentResolver) TechnicalField() *string   { return optional(r.p.TechnicalField) }
func (r *patentResolver) BackgroundArt() *string    { return optional(r.p.BackgroundArt) }
func (r *patentResolver) SimilarityScore() *float64 { return r.score }

// Owner loads the owning user. Patents are only ever visible to their
// owner, so this is the caller.
func (r *patentResolver) Owner(ctx context.Context) (*userResolver, error) {
	u, err := r.root.authSvc.Me(ctx, r.p.OwnerID)
	if err != nil {
		return nil, r.root.fail(ctx, "failed to load patent owner", err)
	}
	return &userResolver{u: u}, nil
}

func (r *patentResolver) Documents() []*documentResolver {
	out := make([]*documentResolver, 0, len(r.p.Documents))
	for _, d := range r.p.Documents {
		out = append(out, &documentResolver{d: d})
	}
	return out
}

func (r *patentResolver) SearchReport() *searchReportResolver {
	if r.p.SearchReport == nil {
		return nil
	}
	return &searchReportResolver{rep: r.p.SearchReport}
}

type documentResolver struct {
	d *domainPatent.Document
}

func (r *documentResolver) ID() graphql.ID       { return graphql.ID(r.d.ID.String()) }
func (r *documentResolver) PatentID() graphql.ID { return graphql.ID(r.d.PatentID.String()) }
func (r *documentResolver) Name() string         { return r.d.Name }
func (r *documentResolver) URL() string          { return r.d.URL }
func (r *documentResolver) Type() string         { return r.d.Type }
func (r *documentResolver) Size() float64        { return float64(r.d.Size) }
func (r *documentResolver) UploadedAt() string   { return formatTime(r.d.UploadedAt) }

type searchReportResolver struct {
	rep *domainPatent.SearchReport
}

func (r *searchReportResolver) SimilarityScore() float64 { return r.rep.SimilarityScore }
func (r *searchReportResolver) Recommendations() []string {
	return orEmpty(r.rep.Recommendations)
}
func (r *searchReportResolver) GeneratedAt() string { return formatTime(r.rep.GeneratedAt) }

func (r *searchReportResolver) AIAnalysis() *aiAnalysisResolver {
	return &aiAnalysisResolver{a: &r.rep.AIAnalysis}
}

func (r *searchReportResolver) PriorArtReferences() []*priorArtResolver {
	out := make([]*priorArtResolver, 0, len(r.rep.PriorArtReferences))
	for i := range r.rep.PriorArtReferences {
		out = append(out, &priorArtResolver{ref: &r.rep.PriorArtReferences[i]})
	}
	return out
}

type priorArtResolver struct {
	ref *domainPatent.PriorArtReference
}

func (r *priorArtResolver) PatentNumber() string     { return r.ref.PatentNumber }
func (r *priorArtResolver) Title() string            { return r.ref.Title }
func (r *priorArtResolver) RelevanceScore() float64  { return r.ref.RelevanceScore }
func (r *priorArtResolver) MatchingClaims() []string { return orEmpty(r.ref.MatchingClaims) }
func (r *priorArtResolver) PublicationDate() *string { return formatTimePtr(r.ref.PublicationDate) }

type aiAnalysisResolver struct {
	a *domainPatent.AIAnalysis
}

func (r *aiAnalysisResolver) TechnicalComplexity() float64 { return r.a.TechnicalComplexity }
func (r *aiAnalysisResolver) MarketSizeEstimate() float64  { return r.a.MarketSizeEstimate }
func (r *aiAnalysisResolver) InnovationScore() float64     { return r.a.InnovationScore }
func (r *aiAnalysisResolver) CompetitiveLandscape() []string {
	return orEmpty(r.a.CompetitiveLandscape)
}
func (r *aiAnalysisResolver) RiskFactors() []string { return orEmpty(r.a.RiskFactors) }
func (r *aiAnalysisResolver) KeyFeatures() []string { return orEmpty(r.a.KeyFeatures) }
func (r *aiAnalysisResolver) TechnicalSummary() string {
	return r.a.TechnicalSummary
}
func (r *aiAnalysisResolver) TechnicalClassification() []*technicalClassResolver {
	return technicalClasses(r.a.TechnicalClassification)
}

type technicalClassResolver struct {
	c domainPatent.TechnicalClass
}

func (r *technicalClassResolver) Label() string  { return r.c.Label }
func (r *technicalClassResolver) Score() float64 { return r.c.Score }

func technicalClasses(in []domainPatent.TechnicalClass) []*technicalClassResolver {
	out := make([]*technicalClassResolver, 0, len(in))
	for _, c := range in {
		out = append(out, &technicalClassResolver{c: c})
	}
	return out
}

type searchStrategyResolver struct {
	s *domainPatent.SearchStrategy
}

func (r *searchStrategyResolver) Keywords() []string        { return orEmpty(r.s.Keywords) }
func (r *searchStrategyResolver) Classifications() []string { return orEmpty(r.s.Classifications) }
func (r *searchStrategyResolver) SearchQueries() []string   { return orEmpty(r.s.SearchQueries) }
func (r *searchStrategyResolver) KeyFeatures() []string     { return orEmpty(r.s.KeyFeatures) }
func (r *searchStrategyResolver) TechnicalClassification() []*technicalClassResolver {
	return technicalClasses(r.s.TechnicalClassification)
}

type searchResultResolver struct {
	res  *domainPatent.SearchResult
	root *Resolver
}

func (r *searchResultResolver) Patents() []*patentResolver { return r.root.patents(r.res.Items) }
func (r *searchResultResolver) TotalCount() int32          { return int32(r.res.TotalCount) }
func (r *searchResultResolver) Page() int32                { return int32(r.res.Page) }
func (r *searchResultResolver) TotalPages() int32          { return int32(r.res.TotalPages) }

type authPayloadResolver struct {
	token string
	u     *user.User
}

func (r *authPayloadResolver) Token() string       { return r.token }
func (r *authPayloadResolver) User() *userResolver { return &userResolver{u: r.u} }

type subscriptionResolver struct {
	s *domainSub.Subscription
}

func (r *subscriptionResolver) ID() graphql.ID             { return graphql.ID(r.s.ID.String()) }
func (r *subscriptionResolver) Plan() string               { return string(r.s.Plan) }
func (r *subscriptionResolver) Status() string             { return string(r.s.Status) }
func (r *subscriptionResolver) StartDate() string          { return formatTime(r.s.StartDate) }
func (r *subscriptionResolver) CurrentPeriodStart() string { return formatTime(r.s.CurrentPeriodStart) }
func (r *subscriptionResolver) CurrentPeriodEnd() string   { return formatTime(r.s.CurrentPeriodEnd) }
func (r *subscriptionResolver) TrialEndsAt() *string       { return formatTimePtr(r.s.TrialEndsAt) }
func (r *subscriptionResolver) CancelledAt() *string       { return formatTimePtr(r.s.CancelledAt) }
func (r *subscriptionResolver) AutoRenew() bool            { return r.s.AutoRenew }
func (r *subscriptionResolver) PaymentMethod() *string     { return optional(r.s.PaymentMethod) }
