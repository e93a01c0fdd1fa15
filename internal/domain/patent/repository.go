package patent

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for patents. Implementations
// return ErrCodePatentNotFound for unknown ids and never filter by owner on
// their own; ownership is checked by the caller except in Search, ListByOwner
// and ListCorpus, which are owner-scoped by signature.
type Repository interface {
	Create(ctx context.Context, p *Patent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patent, error)
	// ListByOwner returns the owner's patents newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Patent, error)
	// Update replaces every mutable column of p, including status and dates.
	Update(ctx context.Context, p *Patent) error
	// SaveReport stores the report and its denormalized scores in one write.
	SaveReport(ctx context.Context, id uuid.UUID, report *SearchReport, uniqueness, marketPotential float64) error
	// Delete removes the patent; its document rows cascade.
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, ownerID uuid.UUID, c SearchCriteria) ([]*Patent, int, error)
	// ListCorpus returns up to limit of the owner's patents other than excludeID.
	ListCorpus(ctx context.Context, ownerID, excludeID uuid.UUID, limit int) ([]*Patent, error)
}

// DocumentRepository defines the persistence contract for document records.
// Unknown ids yield ErrCodeDocumentNotFound.
type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// GetForOwner resolves the document through its patent and returns
	// ErrCodeDocumentNotFound when ownerID does not own that patent.
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*Document, error)
	ListByPatent(ctx context.Context, patentID uuid.UUID) ([]*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
