// Package patent provides the application-level service for patent operations.
// Every call is scoped to the caller: a patent owned by someone else behaves
// exactly like a patent that does not exist.
package patent

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/internal/application/events"
	domainPatent "github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/internal/infrastructure/storage"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// Service defines the interface for patent application operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input domainPatent.Input) (*domainPatent.Patent, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domainPatent.Patent, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domainPatent.Patent, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, update domainPatent.Update) (*domainPatent.Patent, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status string) (*domainPatent.Patent, error)
	Search(ctx context.Context, ownerID uuid.UUID, input domainPatent.SearchInput) (*domainPatent.SearchResult, error)

	UploadDocument(ctx context.Context, ownerID uuid.UUID, input *UploadInput) (*domainPatent.Document, error)
	DeleteDocument(ctx context.Context, ownerID, documentID uuid.UUID) error
	GetDocument(ctx context.Context, ownerID, documentID uuid.UUID) (*domainPatent.Document, error)
}

// UploadInput contains one file to attach to a patent.
type UploadInput struct {
	PatentID uuid.UUID
	Name     string
	Type     string
	Filename string
	Reader   io.Reader
	Size     int64
}

// CacheEvictor drops cached derived data.
type CacheEvictor interface {
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// Options configures document handling.
type Options struct {
	PublicPrefix  string
	MaxFileSize   int64
	StorageDriver string
}

var errPatentNotFound = errors.New(errors.ErrCodePatentNotFound, "patent not found")

type serviceImpl struct {
	repo    domainPatent.Repository
	docs    domainPatent.DocumentRepository
	blobs   storage.BlobStore
	cache   CacheEvictor
	emitter *events.Emitter
	metrics *prometheus.AppMetrics
	logger  logging.Logger
	opts    Options
}

// NewService creates a new patent application service.
func NewService(
	repo domainPatent.Repository,
	docs domainPatent.DocumentRepository,
	blobs storage.BlobStore,
	cache CacheEvictor,
	emitter *events.Emitter,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
	opts Options,
) Service {
	return &serviceImpl{
		repo:    repo,
		docs:    docs,
		blobs:   blobs,
		cache:   cache,
		emitter: emitter,
		metrics: metrics,
		logger:  logger.Named("patent"),
		opts:    opts,
	}
}

// loadOwned returns the patent only when ownerID owns it.
func (s *serviceImpl) loadOwned(ctx context.Context, ownerID, id uuid.UUID) (*domainPatent.Patent, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(ownerID) {
		return nil, errPatentNotFound
	}
	return p, nil
}

func (s *serviceImpl) Create(ctx context.Context, ownerID uuid.UUID, input domainPatent.Input) (*domainPatent.Patent, error) {
	p, err := domainPatent.NewPatent(ownerID, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create patent", logging.Err(err))
		return nil, err
	}
	s.metrics.RecordPatentOperation("create")
	s.emitter.Emit(ctx, domainPatent.NewPatentEvent(domainPatent.EventPatentCreated, p))
	return p, nil
}

func (s *serviceImpl) Get(ctx context.Context, ownerID, id uuid.UUID) (*domainPatent.Patent, error) {
	p, err := s.loadOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.ListByPatent(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Documents = docs
	return p, nil
}

func (s *serviceImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domainPatent.Patent, error) {
	patents, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if patents == nil {
		patents = []*domainPatent.Patent{}
	}
	return patents, nil
}

func (s *serviceImpl) Update(ctx context.Context, ownerID, id uuid.UUID, update domainPatent.Update) (*domainPatent.Patent, error) {
	p, err := s.loadOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(update); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.metrics.RecordPatentOperation("update")
	s.emitter.Emit(ctx, domainPatent.NewPatentEvent(domainPatent.EventPatentUpdated, p))
	return p, nil
}

func (s *serviceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	p, err := s.loadOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	docs, err := s.docs.ListByPatent(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.blobs.Delete(ctx, d.StorageKey); err != nil {
			s.logger.Warn("failed to remove document file",
				logging.String("document_id", d.ID.String()),
				logging.String("storage_key", d.StorageKey),
				logging.Err(err))
		}
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return err
	}
	if _, err := s.cache.DeleteByPrefix(ctx, domainPatent.AnalysisCachePrefix(p.ID)); err != nil {
		s.logger.Warn("failed to evict cached analysis", logging.String("patent_id", p.ID.String()), logging.Err(err))
	}
	s.metrics.RecordPatentOperation("delete")
	s.emitter.Emit(ctx, domainPatent.NewPatentEvent(domainPatent.EventPatentDeleted, p))
	return nil
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status string) (*domainPatent.Patent, error) {
	next, err := domainPatent.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	p, err := s.loadOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	from := p.Status
	changed, err := p.TransitionTo(next, time.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.metrics.RecordPatentOperation("status")
	s.emitter.Emit(ctx, domainPatent.NewStatusChangedEvent(p, from))
	return p, nil
}

func (s *serviceImpl) Search(ctx context.Context, ownerID uuid.UUID, input domainPatent.SearchInput) (*domainPatent.SearchResult, error) {
	criteria, err := input.Normalize()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	items, total, err := s.repo.Search(ctx, ownerID, criteria)
	s.metrics.RecordSearch(time.Since(start))
	if err != nil {
		return nil, err
	}
	return domainPatent.NewSearchResult(items, total, criteria), nil
}

func (s *serviceImpl) UploadDocument(ctx context.Context, ownerID uuid.UUID, input *UploadInput) (*domainPatent.Document, error) {
	if input == nil || input.Reader == nil {
		return nil, errors.InvalidParam("file is required")
	}
	if s.opts.MaxFileSize > 0 && input.Size > s.opts.MaxFileSize {
		return nil, errors.InvalidParam("file exceeds the maximum upload size")
	}
	p, err := s.loadOwned(ctx, ownerID, input.PatentID)
	if err != nil {
		return nil, err
	}
	doc, err := domainPatent.NewDocument(p.ID, input.Name, input.Type, input.Filename, input.Size, s.opts.PublicPrefix)
	if err != nil {
		return nil, err
	}

	if err := s.blobs.Put(ctx, doc.StorageKey, input.Reader, input.Size, doc.Type); err != nil {
		s.logger.Error("failed to store document", logging.String("patent_id", p.ID.String()), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeUploadFailed, "failed to upload document")
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), doc.StorageKey); derr != nil {
			s.logger.Warn("failed to remove orphaned document file", logging.String("storage_key", doc.StorageKey), logging.Err(derr))
		}
		return nil, err
	}

	s.metrics.RecordUpload(s.opts.StorageDriver, doc.Size)
	s.emitter.Emit(ctx, domainPatent.NewDocumentEvent(domainPatent.EventDocumentUploaded, doc))
	return doc, nil
}

func (s *serviceImpl) DeleteDocument(ctx context.Context, ownerID, documentID uuid.UUID) error {
	doc, err := s.docs.GetForOwner(ctx, documentID, ownerID)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "failed to remove document file")
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return err
	}
	s.emitter.Emit(ctx, domainPatent.NewDocumentEvent(domainPatent.EventDocumentDeleted, doc))
	return nil
}

func (s *serviceImpl) GetDocument(ctx context.Context, ownerID, documentID uuid.UUID) (*domainPatent.Document, error) {
	return s.docs.GetForOwner(ctx, documentID, ownerID)
}
