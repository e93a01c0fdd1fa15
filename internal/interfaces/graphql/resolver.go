package graphql

import (
	"bytes"
	"context"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go"

	"github.com/turtacn/patentdesk/internal/application/auth"
	"github.com/turtacn/patentdesk/internal/application/patent"
	"github.com/turtacn/patentdesk/internal/application/report"
	"github.com/turtacn/patentdesk/internal/application/subscription"
	domainPatent "github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/interfaces/http/middleware"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// Resolver is the root resolver for both Query and Mutation. Apart from
// register and login every operation requires an authenticated caller.
type Resolver struct {
	authSvc   auth.Service
	patentSvc patent.Service
	reportSvc report.Service
	subSvc    subscription.Service
	logger    logging.Logger
}

// NewResolver creates the root resolver.
func NewResolver(
	authSvc auth.Service,
	patentSvc patent.Service,
	reportSvc report.Service,
	subSvc subscription.Service,
	logger logging.Logger,
) *Resolver {
	return &Resolver{
		authSvc:   authSvc,
		patentSvc: patentSvc,
		reportSvc: reportSvc,
		subSvc:    subSvc,
		logger:    logger.Named("graphql"),
	}
}

func (r *Resolver) caller(ctx context.Context) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, newResolverError(errors.Unauthorized("authentication required"))
	}
	return id, nil
}

func parseID(id graphql.ID, field string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(string(id))
	if err != nil {
		return uuid.Nil, newResolverError(errors.InvalidParam("invalid " + field).WithDetail(string(id)))
	}
	return parsed, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int32) int {
	if i == nil {
		return 0
	}
	return int(*i)
}

func derefSlice(s *[]string) []string {
	if s == nil {
		return nil
	}
	return *s
}

// ---------------------------------------------------------------------------
// Input types
// ---------------------------------------------------------------------------

type registerInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Company       *string
	Plan          *string
	PaymentMethod *string
}

type loginInput struct {
	Email    string
	Password string
}

type patentInput struct {
	Title          string
	Description    string
	Inventors      []string
	Jurisdictions  []string
	TechnicalField *string
	BackgroundArt  *string
	PatentNumber   *string
	Claims         *[]string
}

type patentUpdateInput struct {
	Title          *string
	Description    *string
	Inventors      *[]string
	Jurisdictions  *[]string
	TechnicalField *string
	BackgroundArt  *string
	PatentNumber   *string
	Claims         *[]string
}

type dateRangeInput struct {
	From *string
	To   *string
}

type searchInput struct {
	Query          *string
	TechnicalField *string
	DateRange      *dateRangeInput
	Jurisdictions  *[]string
	Status         *[]string
	SortBy         *string
	Page           *int32
	Limit          *int32
}

type documentUploadInput struct {
	PatentID graphql.ID
	Name     string
	Type     string
	Filename string
	Content  string
}

type subscriptionInput struct {
	Plan          string
	PaymentMethod *string
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := r.authSvc.Me(ctx, userID)
	if err != nil {
		return nil, r.fail(ctx, "me failed", err)
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) GetUserPatents(ctx context.Context) ([]*patentResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	list, err := r.patentSvc.ListByOwner(ctx, userID)
	if err != nil {
		return nil, r.fail(ctx, "failed to list patents", err)
	}
	return r.patents(list), nil
}

func (r *Resolver) GetPatent(ctx context.Context, args struct{ ID graphql.ID }) (*patentResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	p, err := r.patentSvc.Get(ctx, userID, id)
	if err != nil {
		return nil, r.fail(ctx, "failed to get patent", err)
	}
	return &patentResolver{p: p, root: r}, nil
}

func (r *Resolver) SearchPatents(ctx context.Context, args struct{ Input searchInput }) (*searchResultResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	in := domainPatent.SearchInput{
		Query:          deref(args.Input.Query),
		TechnicalField: deref(args.Input.TechnicalField),
		Jurisdictions:  derefSlice(args.Input.Jurisdictions),
		Status:         derefSlice(args.Input.Status),
		SortBy:         deref(args.Input.SortBy),
		Page:           derefInt(args.Input.Page),
		Limit:          derefInt(args.Input.Limit),
	}
	if dr := args.Input.DateRange; dr != nil {
		in.DateRange = &domainPatent.DateRange{From: deref(dr.From), To: deref(dr.To)}
	}
	res, err := r.patentSvc.Search(ctx, userID, in)
	if err != nil {
		return nil, r.fail(ctx, "patent search failed", err)
	}
	return &searchResultResolver{res: res, root: r}, nil
}

func (r *Resolver) GetSimilarPatents(ctx context.Context, args struct{ PatentID graphql.ID }) ([]*patentResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.PatentID, "patentId")
	if err != nil {
		return nil, err
	}
	similar, err := r.reportSvc.GetSimilarPatents(ctx, userID, id)
	if err != nil {
		return nil, r.fail(ctx, "failed to find similar patents", err)
	}
	out := make([]*patentResolver, 0, len(similar))
	for _, sp := range similar {
		score := sp.SimilarityScore
		out = append(out, &patentResolver{p: sp.Patent, root: r, score: &score})
	}
	return out, nil
}

func (r *Resolver) GetAIAnalysis(ctx context.Context, args struct{ PatentID graphql.ID }) (*aiAnalysisResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.PatentID, "patentId")
	if err != nil {
		return nil, err
	}
	a, err := r.reportSvc.GetAIAnalysis(ctx, userID, id)
	if err != nil {
		return nil, r.fail(ctx, "AI analysis failed", err)
	}
	return &aiAnalysisResolver{a: a}, nil
}

func (r *Resolver) GetSearchStrategy(ctx context.Context, args struct{ PatentID graphql.ID }) (*searchStrategyResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.PatentID, "patentId")
	if err != nil {
		return nil, err
	}
	s, err := r.reportSvc.GetSearchStrategy(ctx, userID, id)
	if err != nil {
		return nil, r.fail(ctx, "failed to build search strategy", err)
	}
	return &searchStrategyResolver{s: s}, nil
}

func (r *Resolver) ComparePatents(ctx context.Context, args struct {
	PatentID      graphql.ID
	OtherPatentID graphql.ID
}) (float64, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return 0, err
	}
	id, err := parseID(args.PatentID, "patentId")
	if err != nil {
		return 0, err
	}
	otherID, err := parseID(args.OtherPatentID, "otherPatentId")
	if err != nil {
		return 0, err
	}
	score, err := r.reportSvc.ComparePatents(ctx, userID, id, otherID)
	if err != nil {
		return 0, r.fail(ctx, "failed to compare patents", err)
	}
	return score, nil
}

// GetSubscription returns the caller's latest subscription or null.
func (r *Resolver) GetSubscription(ctx context.Context) (*subscriptionResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.subSvc.Get(ctx, userID)
	if errors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fail(ctx, "failed to get subscription", err)
	}
	return &subscriptionResolver{s: s}, nil
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func (r *Resolver) Register(ctx context.Context, args struct{ Input registerInput }) (*authPayloadResolver, error) {
	in := args.Input
	payload, err := r.authSvc.Register(ctx, &auth.RegisterInput{
		Email:         in.Email,
		Password:      in.Password,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Company:       deref(in.Company),
		Plan:          deref(in.Plan),
		PaymentMethod: deref(in.PaymentMethod),
	})
	if err != nil {
		return nil, r.fail(ctx, "registration failed", err)
	}
	return &authPayloadResolver{token: payload.Token, u: payload.User}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct{ Input loginInput }) (*authPayloadResolver, error) {
	payload, err := r.authSvc.Login(ctx, &auth.LoginInput{
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, r.fail(ctx, "login failed", err)
	}
	return &authPayloadResolver{token: payload.Token, u: payload.User}, nil
}

func (r *Resolver) CreatePatent(ctx context.Context, args struct{ Input patentInput }) (*patentResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	p, err := r.patentSvc.Create(ctx, userID, domainPatent.Input{
		Title:          in.Title,
		Description:    in.Description,
		Inventors:      in.Inventors,
		Jurisdictions:  in.Jurisdictions,
		Claims:         derefSlice(in.Claims),
		TechnicalField: deref(in.TechnicalField),
		BackgroundArt:  deref(in.BackgroundArt),
		PatentNumber:   deref(in.PatentNumber),
	})
	if err != nil {
		return nil, r.fail(ctx, "failed to create patent", err)
	}
	return &patentResolver{p: p, root: r}, nil
}

func (r *Resolver) UpdatePatent(ctx context.Context, args struct {
	ID    graphql.ID
	Input patentUpdateInput
}) (*patentResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	in := args.Input
	p, err := r.patentSvc.Update(ctx, userID, id, domainPatent.Update{
		Title:          in.Title,
		Description:    in.Description,
		Inventors:      in.Inventors,
		Jurisdictions:  in.Jurisdictions,
		Claims:         in.Claims,
		TechnicalField: in.TechnicalField,
		BackgroundArt:  in.BackgroundArt,
		PatentNumber:   in.PatentNumber,
	})
	if err != nil {
		return nil, r.fail(ctx, "failed to update patent", err)
	}
	return &patentResolver{p: p, root: r}, nil
}

func (r *Resolver) DeletePatent(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return false, err
	}
	id, err := parseID(args.ID, "id")
	if err != nil {
		return false, err
	}
	if err := r.patentSvc.Delete(ctx, userID, id); err != nil {
		return false, r.fail(ctx, "failed to delete patent", err)
	}
	return true, nil
}

func (r *Resolver) UpdatePatentStatus(ctx context.Context, args struct {
	ID     graphql.ID
	Status string
}) (*patentResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID, "id")
	if err != nil {
		return nil, err
	}
	p, err := r.patentSvc.UpdateStatus(ctx, userID, id, args.Status)
	if err != nil {
		return nil, r.fail(ctx, "failed to update patent status", err)
	}
	return &patentResolver{p: p, root: r}, nil
}

// UploadDocument takes the file body base64-encoded in the content field.
func (r *Resolver) UploadDocument(ctx context.Context, args struct{ Input documentUploadInput }) (*documentResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	patentID, err := parseID(args.Input.PatentID, "patentId")
	if err != nil {
		return nil, err
	}
	content, err := base64.StdEncoding.DecodeString(args.Input.Content)
	if err != nil {
		return nil, newResolverError(errors.InvalidParam("content must be base64 encoded"))
	}
	doc, err := r.patentSvc.UploadDocument(ctx, userID, &patent.UploadInput{
		PatentID: patentID,
		Name:     args.Input.Name,
		Type:     args.Input.Type,
		Filename: args.Input.Filename,
		Reader:   bytes.NewReader(content),
		Size:     int64(len(content)),
	})
	if err != nil {
		return nil, r.fail(ctx, "document upload failed", err)
	}
	return &documentResolver{d: doc}, nil
}

func (r *Resolver) DeleteDocument(ctx context.Context, args struct{ DocumentID graphql.ID }) (bool, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return false, err
	}
	id, err := parseID(args.DocumentID, "documentId")
	if err != nil {
		return false, err
	}
	if err := r.patentSvc.DeleteDocument(ctx, userID, id); err != nil {
		return false, r.fail(ctx, "failed to delete document", err)
	}
	return true, nil
}

func (r *Resolver) GenerateSearchReport(ctx context.Context, args struct{ PatentID graphql.ID }) (*searchReportResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.PatentID, "patentId")
	if err != nil {
		return nil, err
	}
	rep, err := r.reportSvc.GenerateReport(ctx, userID, id)
	if err != nil {
		return nil, r.fail(ctx, "search report generation failed", err)
	}
	return &searchReportResolver{rep: rep}, nil
}

func (r *Resolver) CreateSubscription(ctx context.Context, args struct{ Input subscriptionInput }) (*subscriptionResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.subSvc.Create(ctx, userID, &subscription.CreateInput{
		Plan:          args.Input.Plan,
		PaymentMethod: deref(args.Input.PaymentMethod),
	})
	if err != nil {
		return nil, r.fail(ctx, "failed to create subscription", err)
	}
	return &subscriptionResolver{s: s}, nil
}

func (r *Resolver) CancelSubscription(ctx context.Context) (*subscriptionResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.subSvc.Cancel(ctx, userID)
	if err != nil {
		return nil, r.fail(ctx, "failed to cancel subscription", err)
	}
	return &subscriptionResolver{s: s}, nil
}

func (r *Resolver) ChangeSubscriptionPlan(ctx context.Context, args struct{ Plan string }) (*subscriptionResolver, error) {
	userID, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.subSvc.ChangePlan(ctx, userID, args.Plan)
	if err != nil {
		return nil, r.fail(ctx, "failed to change plan", err)
	}
	return &subscriptionResolver{s: s}, nil
}
