package testutil

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/pkg/types/common"
)

// MockUserRepository is a testify mock of user.Repository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan user.Plan) error {
	return m.Called(ctx, id, plan).Error(0)
}

// MockSubscriptionRepository is a testify mock of subscription.Repository.
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSubscriptionRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSubscriptionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

// MockPatentRepository is a testify mock of patent.Repository.
type MockPatentRepository struct {
	mock.Mock
}

func (m *MockPatentRepository) Create(ctx context.Context, p *patent.Patent) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPatentRepository) GetByID(ctx context.Context, id uuid.UUID) (*patent.Patent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patent.Patent), args.Error(1)
}

func (m *MockPatentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*patent.Patent, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*patent.Patent), args.Error(1)
}

func (m *MockPatentRepository) Update(ctx context.Context, p *patent.Patent) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPatentRepository) SaveReport(ctx context.Context, id uuid.UUID, report *patent.SearchReport, uniqueness, marketPotential float64) error {
	return m.Called(ctx, id, report, uniqueness, marketPotential).Error(0)
}

func (m *MockPatentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPatentRepository) Search(ctx context.Context, ownerID uuid.UUID, c patent.SearchCriteria) ([]*patent.Patent, int, error) {
	args := m.Called(ctx, ownerID, c)
	var items []*patent.Patent
	if v := args.Get(0); v != nil {
		items = v.([]*patent.Patent)
	}
	return items, args.Int(1), args.Error(2)
}

func (m *MockPatentRepository) ListCorpus(ctx context.Context, ownerID, excludeID uuid.UUID, limit int) ([]*patent.Patent, error) {
	args := m.Called(ctx, ownerID, excludeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*patent.Patent), args.Error(1)
}

// MockDocumentRepository is a testify mock of patent.DocumentRepository.
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, d *patent.Document) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*patent.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patent.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*patent.Document, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patent.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByPatent(ctx context.Context, patentID uuid.UUID) ([]*patent.Document, error) {
	args := m.Called(ctx, patentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*patent.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockBlobStore is a testify mock of storage.BlobStore. Put drains the reader
// so tests can assert on the uploaded bytes through Uploaded.
type MockBlobStore struct {
	mock.Mock
	Uploaded map[string][]byte
}

func (m *MockBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, _ := io.ReadAll(r)
	if m.Uploaded == nil {
		m.Uploaded = map[string][]byte{}
	}
	m.Uploaded[key] = b
	return m.Called(ctx, key, size, contentType).Error(0)
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockBlobStore) Name() string { return "mock" }

func (m *MockBlobStore) Check(ctx context.Context) error { return nil }

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evt common.DomainEvent) error {
	return m.Called(ctx, evt).Error(0)
}

// EventTypes lists the types of every event passed to Publish, in order.
func (m *MockPublisher) EventTypes() []string {
	var out []string
	for _, c := range m.Calls {
		if c.Method != "Publish" {
			continue
		}
		out = append(out, c.Arguments.Get(1).(common.DomainEvent).EventType())
	}
	return out
}
