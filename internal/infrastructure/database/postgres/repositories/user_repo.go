package repositories

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

const userColumns = `id, email, password_hash, first_name, last_name, company, role, plan, created_at, updated_at`

type postgresUserRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewUserRepository returns a user.Repository backed by PostgreSQL.
func NewUserRepository(conn *postgres.Connection, log logging.Logger) user.Repository {
	return &postgresUserRepo{conn: conn, log: log}
}

func (r *postgresUserRepo) Create(ctx context.Context, u *user.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, company, role, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := executor(ctx, r.conn.Pool()).Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Company,
		string(u.Role), string(u.Plan), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return errors.Wrap(err, errors.ErrCodeDuplicateEmail, "user already exists")
		}
		r.log.Error("failed to create user", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create user")
	}
	return nil
}

func (r *postgresUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(executor(ctx, r.conn.Pool()).QueryRow(ctx, query, id))
}

func (r *postgresUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(executor(ctx, r.conn.Pool()).QueryRow(ctx, query, user.NormalizeEmail(email)))
}

func (r *postgresUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := executor(ctx, r.conn.Pool()).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, user.NormalizeEmail(email)).
		Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check email")
	}
	return exists, nil
}

func (r *postgresUserRepo) UpdatePlan(ctx context.Context, id uuid.UUID, plan user.Plan) error {
	tag, err := executor(ctx, r.conn.Pool()).
		Exec(ctx, `UPDATE users SET plan = $2, updated_at = NOW() WHERE id = $1`, id, string(plan))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update user plan")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeUserNotFound, "user not found")
	}
	return nil
}

func scanUser(row scanner) (*user.User, error) {
	u := &user.User{}
	var role, plan string
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Company,
		&role, &plan, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeUserNotFound, "user not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan user")
	}
	u.Role = user.Role(role)
	u.Plan = user.Plan(plan)
	return u, nil
}
