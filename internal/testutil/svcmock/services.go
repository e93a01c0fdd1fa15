// Package svcmock provides testify mocks of the application services for
// transport-layer tests.
package svcmock

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/patentdesk/internal/application/auth"
	"github.com/turtacn/patentdesk/internal/application/patent"
	"github.com/turtacn/patentdesk/internal/application/report"
	"github.com/turtacn/patentdesk/internal/application/subscription"
	domainPatent "github.com/turtacn/patentdesk/internal/domain/patent"
	domainSub "github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
)

type AuthService struct{ mock.Mock }

func (m *AuthService) Register(ctx context.Context, in *auth.RegisterInput) (*auth.AuthPayload, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*auth.AuthPayload)
	return p, args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, in *auth.LoginInput) (*auth.AuthPayload, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*auth.AuthPayload)
	return p, args.Error(1)
}

func (m *AuthService) Me(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

type PatentService struct{ mock.Mock }

func (m *PatentService) Create(ctx context.Context, ownerID uuid.UUID, in domainPatent.Input) (*domainPatent.Patent, error) {
	args := m.Called(ctx, ownerID, in)
	p, _ := args.Get(0).(*domainPatent.Patent)
	return p, args.Error(1)
}

func (m *PatentService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domainPatent.Patent, error) {
	args := m.Called(ctx, ownerID, id)
	p, _ := args.Get(0).(*domainPatent.Patent)
	return p, args.Error(1)
}

func (m *PatentService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domainPatent.Patent, error) {
	args := m.Called(ctx, ownerID)
	p, _ := args.Get(0).([]*domainPatent.Patent)
	return p, args.Error(1)
}

func (m *PatentService) Update(ctx context.Context, ownerID, id uuid.UUID, u domainPatent.Update) (*domainPatent.Patent, error) {
	args := m.Called(ctx, ownerID, id, u)
	p, _ := args.Get(0).(*domainPatent.Patent)
	return p, args.Error(1)
}

func (m *PatentService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *PatentService) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status string) (*domainPatent.Patent, error) {
	args := m.Called(ctx, ownerID, id, status)
	p, _ := args.Get(0).(*domainPatent.Patent)
	return p, args.Error(1)
}

func (m *PatentService) Search(ctx context.Context, ownerID uuid.UUID, in domainPatent.SearchInput) (*domainPatent.SearchResult, error) {
	args := m.Called(ctx, ownerID, in)
	r, _ := args.Get(0).(*domainPatent.SearchResult)
	return r, args.Error(1)
}

func (m *PatentService) UploadDocument(ctx context.Context, ownerID uuid.UUID, in *patent.UploadInput) (*domainPatent.Document, error) {
	args := m.Called(ctx, ownerID, in)
	d, _ := args.Get(0).(*domainPatent.Document)
	return d, args.Error(1)
}

func (m *PatentService) DeleteDocument(ctx context.Context, ownerID, documentID uuid.UUID) error {
	return m.Called(ctx, ownerID, documentID).Error(0)
}

func (m *PatentService) GetDocument(ctx context.Context, ownerID, documentID uuid.UUID) (*domainPatent.Document, error) {
	args := m.Called(ctx, ownerID, documentID)
	d, _ := args.Get(0).(*domainPatent.Document)
	return d, args.Error(1)
}

type ReportService struct{ mock.Mock }

func (m *ReportService) GenerateReport(ctx context.Context, ownerID, id uuid.UUID) (*domainPatent.SearchReport, error) {
	args := m.Called(ctx, ownerID, id)
	r, _ := args.Get(0).(*domainPatent.SearchReport)
	return r, args.Error(1)
}

func (m *ReportService) GetSimilarPatents(ctx context.Context, ownerID, id uuid.UUID) ([]*domainPatent.SimilarPatent, error) {
	args := m.Called(ctx, ownerID, id)
	p, _ := args.Get(0).([]*domainPatent.SimilarPatent)
	return p, args.Error(1)
}

func (m *ReportService) GetAIAnalysis(ctx context.Context, ownerID, id uuid.UUID) (*domainPatent.AIAnalysis, error) {
	args := m.Called(ctx, ownerID, id)
	a, _ := args.Get(0).(*domainPatent.AIAnalysis)
	return a, args.Error(1)
}

func (m *ReportService) ComparePatents(ctx context.Context, ownerID, id, otherID uuid.UUID) (float64, error) {
	args := m.Called(ctx, ownerID, id, otherID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *ReportService) GetSearchStrategy(ctx context.Context, ownerID, id uuid.UUID) (*domainPatent.SearchStrategy, error) {
	args := m.Called(ctx, ownerID, id)
	s, _ := args.Get(0).(*domainPatent.SearchStrategy)
	return s, args.Error(1)
}

type SubscriptionService struct{ mock.Mock }

func (m *SubscriptionService) Create(ctx context.Context, userID uuid.UUID, in *subscription.CreateInput) (*domainSub.Subscription, error) {
	args := m.Called(ctx, userID, in)
	s, _ := args.Get(0).(*domainSub.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionService) Get(ctx context.Context, userID uuid.UUID) (*domainSub.Subscription, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*domainSub.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionService) GetActive(ctx context.Context, userID uuid.UUID) (*domainSub.Subscription, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*domainSub.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*domainSub.Subscription, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*domainSub.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionService) ChangePlan(ctx context.Context, userID uuid.UUID, plan string) (*domainSub.Subscription, error) {
	args := m.Called(ctx, userID, plan)
	s, _ := args.Get(0).(*domainSub.Subscription)
	return s, args.Error(1)
}

func (m *SubscriptionService) SweepDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

var (
	_ auth.Service         = (*AuthService)(nil)
	_ patent.Service       = (*PatentService)(nil)
	_ report.Service       = (*ReportService)(nil)
	_ subscription.Service = (*SubscriptionService)(nil)
)
