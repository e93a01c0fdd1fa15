//go:build integration

package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

const migrationsDir = "../../../../../migrations"

func setupTestDB(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "patentdesk_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/patentdesk_test?sslmode=disable", host, port.Port())
	log := logging.NewNopLogger()

	m, err := postgres.NewMigrator(dsn, migrationsDir, log)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
	assert.False(t, dirty)
	require.NoError(t, m.Close())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return postgres.NewConnectionWithPool(pool, log)
}

func createUser(t *testing.T, repo user.Repository, email string) *user.User {
	t.Helper()
	u, err := user.NewUser(email, "hash", user.Profile{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func createPatent(t *testing.T, repo patent.Repository, owner uuid.UUID, title string, jurisdictions ...string) *patent.Patent {
	t.Helper()
	p, err := patent.NewPatent(owner, patent.Input{
		Title:          title,
		Description:    title + " described in detail",
		Inventors:      []string{"Ada Lovelace"},
		Jurisdictions:  jurisdictions,
		TechnicalField: "mechanical engineering",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	conn := setupTestDB(t)
	log := logging.NewNopLogger()
	ctx := context.Background()

	users := NewUserRepository(conn, log)
	patents := NewPatentRepository(conn, log)
	docs := NewDocumentRepository(conn, log)
	subs := NewSubscriptionRepository(conn, log)

	owner := createUser(t, users, "ada@example.com")
	other := createUser(t, users, "bob@example.com")

	t.Run("UserLookupAndDuplicate", func(t *testing.T) {
		got, err := users.GetByEmail(ctx, "  ADA@example.com ")
		require.NoError(t, err)
		assert.Equal(t, owner.ID, got.ID)

		exists, err := users.ExistsByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		dup, err := user.NewUser("ada@example.com", "hash", user.Profile{FirstName: "A", LastName: "B"})
		require.NoError(t, err)
		err = users.Create(ctx, dup)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateEmail))

		_, err = users.GetByID(ctx, uuid.New())
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))

		require.NoError(t, users.UpdatePlan(ctx, owner.ID, user.PlanPro))
		got, err = users.GetByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, user.PlanPro, got.Plan)
	})

	t.Run("PatentCRUDAndReport", func(t *testing.T) {
		p := createPatent(t, patents, owner.ID, "Folding widget", "US")

		got, err := patents.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Title, got.Title)
		assert.Equal(t, []string{"US"}, got.Jurisdictions)
		assert.Nil(t, got.SearchReport)

		_, err = got.TransitionTo(patent.StatusFiled, time.Now())
		require.NoError(t, err)
		require.NoError(t, patents.Update(ctx, got))

		report := &patent.SearchReport{SimilarityScore: 30, GeneratedAt: time.Now().UTC().Truncate(time.Second)}
		require.NoError(t, patents.SaveReport(ctx, p.ID, report, 70, 55))

		got, err = patents.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, patent.StatusFiled, got.Status)
		assert.NotNil(t, got.FilingDate)
		require.NotNil(t, got.SearchReport)
		assert.Equal(t, 30.0, got.SearchReport.SimilarityScore)
		require.NotNil(t, got.UniquenessScore)
		assert.Equal(t, 70.0, *got.UniquenessScore)

		err = patents.SaveReport(ctx, uuid.New(), report, 1, 1)
		assert.True(t, errors.IsCode(err, errors.ErrCodePatentNotFound))
	})

	t.Run("SearchIsOwnerScopedAndPaged", func(t *testing.T) {
		createPatent(t, patents, owner.ID, "Solar panel mount", "EP")
		createPatent(t, patents, owner.ID, "Solar tracker", "US", "JP")
		createPatent(t, patents, other.ID, "Solar roof", "US")

		c, err := patent.SearchInput{Query: "solar", SortBy: "title_ASC", Limit: 1}.Normalize()
		require.NoError(t, err)
		items, total, err := patents.Search(ctx, owner.ID, c)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, items, 1)
		assert.Equal(t, "Solar panel mount", items[0].Title)

		c, err = patent.SearchInput{Jurisdictions: []string{"jp"}}.Normalize()
		require.NoError(t, err)
		items, total, err = patents.Search(ctx, owner.ID, c)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "Solar tracker", items[0].Title)

		// past the last page: no rows, total still reported
		for _, page := range []int{3, 1 << 62} {
			c, err = patent.SearchInput{Query: "solar", Limit: 1, Page: page}.Normalize()
			require.NoError(t, err)
			items, total, err = patents.Search(ctx, owner.ID, c)
			require.NoError(t, err, "page %d", page)
			assert.Empty(t, items)
			assert.Equal(t, 2, total)
		}
	})

	t.Run("CorpusExcludesSelfAndOthers", func(t *testing.T) {
		all, err := patents.ListByOwner(ctx, owner.ID)
		require.NoError(t, err)
		require.NotEmpty(t, all)

		corpus, err := patents.ListCorpus(ctx, owner.ID, all[0].ID, 100)
		require.NoError(t, err)
		assert.Len(t, corpus, len(all)-1)
		for _, p := range corpus {
			assert.NotEqual(t, all[0].ID, p.ID)
			assert.Equal(t, owner.ID, p.OwnerID)
		}
	})

	t.Run("DocumentsCascadeWithPatent", func(t *testing.T) {
		p := createPatent(t, patents, owner.ID, "Document holder", "US")
		d, err := patent.NewDocument(p.ID, "", "", "drawing.PDF", 1024, "/uploads")
		require.NoError(t, err)
		require.NoError(t, docs.Create(ctx, d))

		got, err := docs.GetForOwner(ctx, d.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, d.StorageKey, got.StorageKey)

		_, err = docs.GetForOwner(ctx, d.ID, other.ID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentNotFound))

		list, err := docs.ListByPatent(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, patents.Delete(ctx, p.ID))
		_, err = docs.GetByID(ctx, d.ID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentNotFound))
	})

	t.Run("OneActiveSubscriptionPerUser", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		s, err := subscription.New(owner.ID, user.PlanPro, "card", 0, now.Add(-40*24*time.Hour))
		require.NoError(t, err)
		require.NoError(t, subs.Create(ctx, s))

		second, err := subscription.New(owner.ID, user.PlanFree, "", 0, now)
		require.NoError(t, err)
		err = subs.Create(ctx, second)
		assert.True(t, errors.IsCode(err, errors.ErrCodeSubscriptionExists))

		due, err := subs.ListDue(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, s.ID, due[0].ID)

		require.NoError(t, s.Cancel(now))
		require.NoError(t, subs.Update(ctx, s))
		_, err = subs.GetActiveByUser(ctx, owner.ID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeSubscriptionNotFound))

		require.NoError(t, subs.Create(ctx, second))
		latest, err := subs.GetLatestByUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)
	})

	t.Run("TransactionRollsBack", func(t *testing.T) {
		err := conn.WithinTx(ctx, func(txCtx context.Context) error {
			u, err := user.NewUser("tx@example.com", "hash", user.Profile{FirstName: "T", LastName: "X"})
			require.NoError(t, err)
			require.NoError(t, users.Create(txCtx, u))
			return errors.New(errors.ErrCodeInternal, "abort")
		})
		require.Error(t, err)

		exists, err := users.ExistsByEmail(ctx, "tx@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
