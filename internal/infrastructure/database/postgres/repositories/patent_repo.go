package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

const patentColumns = `id, owner_id, title, description, inventors, jurisdictions, status, claims,
	technical_field, background_art, patent_number, filing_date, grant_date,
	uniqueness_score, market_potential, search_report, created_at, updated_at`

type postgresPatentRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPatentRepository returns a patent.Repository backed by PostgreSQL.
func NewPatentRepository(conn *postgres.Connection, log logging.Logger) patent.Repository {
	return &postgresPatentRepo{conn: conn, log: log}
}

func (r *postgresPatentRepo) Create(ctx context.Context, p *patent.Patent) error {
	reportJSON, err := marshalReport(p.SearchReport)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO patents (
			id, owner_id, title, description, inventors, jurisdictions, status, claims,
			technical_field, background_art, patent_number, filing_date, grant_date,
			uniqueness_score, market_potential, search_report, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = executor(ctx, r.conn.Pool()).Exec(ctx, query,
		p.ID, p.OwnerID, p.Title, p.Description, emptyIfNil(p.Inventors), emptyIfNil(p.Jurisdictions),
		string(p.Status), emptyIfNil(p.Claims), p.TechnicalField, p.BackgroundArt, p.PatentNumber,
		p.FilingDate, p.GrantDate, p.UniquenessScore, p.MarketPotential, reportJSON,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return errors.Wrap(err, errors.ErrCodeConflict, "patent already exists")
		}
		r.log.Error("failed to create patent", logging.Err(err), logging.String("patent_id", p.ID.String()))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create patent")
	}
	return nil
}

func (r *postgresPatentRepo) GetByID(ctx context.Context, id uuid.UUID) (*patent.Patent, error) {
	query := `SELECT ` + patentColumns + ` FROM patents WHERE id = $1`
	return scanPatent(executor(ctx, r.conn.Pool()).QueryRow(ctx, query, id))
}

func (r *postgresPatentRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*patent.Patent, error) {
	query := `SELECT ` + patentColumns + ` FROM patents WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := executor(ctx, r.conn.Pool()).Query(ctx, query, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list patents")
	}
	return scanPatents(rows)
}

func (r *postgresPatentRepo) Update(ctx context.Context, p *patent.Patent) error {
	query := `
		UPDATE patents SET
			title = $2, description = $3, inventors = $4, jurisdictions = $5, status = $6, claims = $7,
			technical_field = $8, background_art = $9, patent_number = $10, filing_date = $11,
			grant_date = $12, updated_at = $13
		WHERE id = $1
	`
	tag, err := executor(ctx, r.conn.Pool()).Exec(ctx, query,
		p.ID, p.Title, p.Description, emptyIfNil(p.Inventors), emptyIfNil(p.Jurisdictions),
		string(p.Status), emptyIfNil(p.Claims), p.TechnicalField, p.BackgroundArt, p.PatentNumber,
		p.FilingDate, p.GrantDate, p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update patent")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodePatentNotFound, "patent not found")
	}
	return nil
}

// SaveReport leaves updated_at alone: the report is derived from the content
// and does not change it.
func (r *postgresPatentRepo) SaveReport(ctx context.Context, id uuid.UUID, report *patent.SearchReport, uniqueness, marketPotential float64) error {
	reportJSON, err := marshalReport(report)
	if err != nil {
		return err
	}
	tag, err := executor(ctx, r.conn.Pool()).Exec(ctx,
		`UPDATE patents SET search_report = $2, uniqueness_score = $3, market_potential = $4 WHERE id = $1`,
		id, reportJSON, uniqueness, marketPotential,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save search report")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodePatentNotFound, "patent not found")
	}
	return nil
}

func (r *postgresPatentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := executor(ctx, r.conn.Pool()).Exec(ctx, `DELETE FROM patents WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete patent")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodePatentNotFound, "patent not found")
	}
	return nil
}

func (r *postgresPatentRepo) Search(ctx context.Context, ownerID uuid.UUID, c patent.SearchCriteria) ([]*patent.Patent, int, error) {
	countSQL, dataSQL, args := buildSearchQuery(ownerID, c)
	exec := executor(ctx, r.conn.Pool())

	var total int
	if err := exec.QueryRow(ctx, countSQL, args[:len(args)-2]...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count patents")
	}

	rows, err := exec.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to search patents")
	}
	items, err := scanPatents(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *postgresPatentRepo) ListCorpus(ctx context.Context, ownerID, excludeID uuid.UUID, limit int) ([]*patent.Patent, error) {
	query := `SELECT ` + patentColumns + ` FROM patents
		WHERE owner_id = $1 AND id <> $2
		ORDER BY updated_at DESC, id
		LIMIT $3`
	rows, err := executor(ctx, r.conn.Pool()).Query(ctx, query, ownerID, excludeID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list similarity corpus")
	}
	return scanPatents(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Search query building
// ─────────────────────────────────────────────────────────────────────────────

var sortColumns = map[patent.SortField]string{
	patent.SortCreatedAt:       "created_at",
	patent.SortUpdatedAt:       "updated_at",
	patent.SortTitle:           "title",
	patent.SortStatus:          "status",
	patent.SortUniquenessScore: "uniqueness_score",
	patent.SortMarketPotential: "market_potential",
}

func sanitiseSortColumn(f patent.SortField) string {
	if col, ok := sortColumns[f]; ok {
		return col
	}
	return "created_at"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildSearchQuery returns the COUNT and page queries for c. Every filter
// value is a bind parameter; the last two args are LIMIT and OFFSET and are
// only referenced by dataSQL.
func buildSearchQuery(ownerID uuid.UUID, c patent.SearchCriteria) (countSQL, dataSQL string, args []any) {
	args = []any{ownerID}
	nextArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds := []string{"owner_id = $1"}
	if q := strings.TrimSpace(c.Query); q != "" {
		like := nextArg("%" + likeEscaper.Replace(q) + "%")
		fts := nextArg(q)
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE %[1]s OR description ILIKE %[1]s OR to_tsvector('english', title || ' ' || description) @@ plainto_tsquery('english', %[2]s))",
			like, fts))
	}
	if tf := strings.TrimSpace(c.TechnicalField); tf != "" {
		conds = append(conds, "technical_field ILIKE "+nextArg("%"+likeEscaper.Replace(tf)+"%"))
	}
	if len(c.Jurisdictions) > 0 {
		conds = append(conds, "jurisdictions && "+nextArg(c.Jurisdictions)+"::text[]")
	}
	if len(c.Statuses) > 0 {
		statuses := make([]string, len(c.Statuses))
		for i, s := range c.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "status = ANY("+nextArg(statuses)+"::text[])")
	}
	if c.CreatedFrom != nil {
		conds = append(conds, "created_at >= "+nextArg(*c.CreatedFrom))
	}
	if c.CreatedTo != nil {
		conds = append(conds, "created_at <= "+nextArg(*c.CreatedTo))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	dir := "ASC"
	if c.SortDesc {
		dir = "DESC"
	}
	order := fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id %s", sanitiseSortColumn(c.SortField), dir, dir)

	countSQL = "SELECT COUNT(*) FROM patents" + where
	limit := nextArg(c.Limit)
	offset := nextArg(c.Offset())
	dataSQL = "SELECT " + patentColumns + " FROM patents" + where + order + " LIMIT " + limit + " OFFSET " + offset
	return countSQL, dataSQL, args
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func marshalReport(report *patent.SearchReport) ([]byte, error) {
	if report == nil {
		return nil, nil
	}
	b, err := json.Marshal(report)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode search report")
	}
	return b, nil
}

func unmarshalReport(b []byte) (*patent.SearchReport, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	report := &patent.SearchReport{}
	if err := json.Unmarshal(b, report); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search report")
	}
	return report, nil
}

func scanPatent(row scanner) (*patent.Patent, error) {
	p := &patent.Patent{}
	var status string
	var reportJSON []byte
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Inventors, &p.Jurisdictions, &status, &p.Claims,
		&p.TechnicalField, &p.BackgroundArt, &p.PatentNumber, &p.FilingDate, &p.GrantDate,
		&p.UniquenessScore, &p.MarketPotential, &reportJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodePatentNotFound, "patent not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan patent")
	}
	p.Status = patent.Status(status)
	if p.SearchReport, err = unmarshalReport(reportJSON); err != nil {
		return nil, err
	}
	return p, nil
}

func scanPatents(rows pgx.Rows) ([]*patent.Patent, error) {
	defer rows.Close()
	var out []*patent.Patent
	for rows.Next() {
		p, err := scanPatent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate patents")
	}
	return out, nil
}
