package repositories

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

const documentColumns = `d.id, d.patent_id, d.name, d.type, d.url, d.storage_key, d.size, d.uploaded_at`

type postgresDocumentRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewDocumentRepository returns a patent.DocumentRepository backed by PostgreSQL.
func NewDocumentRepository(conn *postgres.Connection, log logging.Logger) patent.DocumentRepository {
	return &postgresDocumentRepo{conn: conn, log: log}
}

func (r *postgresDocumentRepo) Create(ctx context.Context, d *patent.Document) error {
	query := `
		INSERT INTO documents (id, patent_id, name, type, url, storage_key, size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := executor(ctx, r.conn.Pool()).Exec(ctx, query,
		d.ID, d.PatentID, d.Name, d.Type, d.URL, d.StorageKey, d.Size, d.UploadedAt)
	if err != nil {
		r.log.Error("failed to create document", logging.Err(err), logging.String("patent_id", d.PatentID.String()))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create document")
	}
	return nil
}

func (r *postgresDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*patent.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = $1`
	return scanDocument(executor(ctx, r.conn.Pool()).QueryRow(ctx, query, id))
}

func (r *postgresDocumentRepo) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*patent.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents d
		JOIN patents p ON p.id = d.patent_id
		WHERE d.id = $1 AND p.owner_id = $2`
	return scanDocument(executor(ctx, r.conn.Pool()).QueryRow(ctx, query, id, ownerID))
}

func (r *postgresDocumentRepo) ListByPatent(ctx context.Context, patentID uuid.UUID) ([]*patent.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.patent_id = $1 ORDER BY d.uploaded_at, d.id`
	rows, err := executor(ctx, r.conn.Pool()).Query(ctx, query, patentID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list documents")
	}
	defer rows.Close()

	out := []*patent.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate documents")
	}
	return out, nil
}

func (r *postgresDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := executor(ctx, r.conn.Pool()).Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete document")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeDocumentNotFound, "document not found")
	}
	return nil
}

func scanDocument(row scanner) (*patent.Document, error) {
	d := &patent.Document{}
	err := row.Scan(&d.ID, &d.PatentID, &d.Name, &d.Type, &d.URL, &d.StorageKey, &d.Size, &d.UploadedAt)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeDocumentNotFound, "document not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan document")
	}
	return d, nil
}
