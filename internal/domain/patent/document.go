package patent

import (
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/pkg/errors"
)

// Document is a file attached to a patent. The bytes live in the blob store
// under StorageKey; URL is the storage-relative path served to clients.
type Document struct {
	ID         uuid.UUID `json:"id"`
	PatentID   uuid.UUID `json:"patent_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	StorageKey string    `json:"-"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// StorageKeyFor returns "<id><ext>" with the original extension lower-cased.
func StorageKeyFor(id uuid.UUID, filename string) string {
	return id.String() + strings.ToLower(filepath.Ext(filename))
}

// NewDocument builds the record for an upload of filename. An empty name
// falls back to the filename and an empty type to the extension's MIME type.
func NewDocument(patentID uuid.UUID, name, docType, filename string, size int64, publicPrefix string) (*Document, error) {
	if patentID == uuid.Nil {
		return nil, errors.InvalidParam("patent id is required")
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, errors.InvalidParam("filename is required")
	}
	if size < 0 {
		return nil, errors.InvalidParam("size must not be negative")
	}

	name = SanitizeText(name)
	if name == "" {
		name = filename
	}
	docType = strings.TrimSpace(docType)
	if docType == "" {
		docType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
		if docType == "" {
			docType = "application/octet-stream"
		}
	}

	id := uuid.New()
	key := StorageKeyFor(id, filename)
	if publicPrefix == "" {
		publicPrefix = "/"
	}
	return &Document{
		ID:         id,
		PatentID:   patentID,
		Name:       name,
		Type:       docType,
		URL:        path.Join(publicPrefix, key),
		StorageKey: key,
		Size:       size,
		UploadedAt: time.Now().UTC(),
	}, nil
}
