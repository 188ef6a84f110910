package sql

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/dialect"
)

var (
	scope = Scope{Organization: "acme", Project: "sales"}
	clock = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
)

func sqliteStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open(dialect.SQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	s, err := NewStore(OpenDB(dialect.SQLite, db), WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStore_SQLite(t *testing.T) {
	ctx := context.Background()
	s := sqliteStore(t)

	orders := &Document{Scope: scope, Kind: KindModel, Name: "orders", Body: []byte("name: orders\n")}
	require.NoError(t, s.Put(ctx, orders))
	require.NotEmpty(t, orders.ID)
	assert.Equal(t, clock(), orders.UpdatedAt)
	require.NoError(t, s.Put(ctx, &Document{Scope: scope, Kind: KindModel, Name: "customers", Body: []byte("name: customers\n")}))
	require.NoError(t, s.Put(ctx, &Document{Scope: scope, Kind: KindUnified, Name: "sales", Body: []byte("name: sales\n")}))

	got, err := s.Get(ctx, scope, KindModel, "orders")
	require.NoError(t, err)
	assert.Equal(t, orders.ID, got.ID)
	assert.Equal(t, "name: orders\n", string(got.Body))
	assert.Equal(t, clock(), got.UpdatedAt)

	update := &Document{Scope: scope, Kind: KindModel, Name: "orders", Body: []byte("name: orders\nversion: \"2\"\n")}
	require.NoError(t, s.Put(ctx, update))
	assert.Equal(t, orders.ID, update.ID, "replacing keeps the document id")
	got, err = s.Get(ctx, scope, KindModel, "orders")
	require.NoError(t, err)
	assert.Contains(t, string(got.Body), "version")

	docs, err := s.List(ctx, scope, KindModel)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "customers", docs[0].Name)
	assert.Equal(t, "orders", docs[1].Name)

	other, err := s.List(ctx, Scope{Organization: "acme", Project: "other"}, KindModel)
	require.NoError(t, err)
	assert.Empty(t, other)

	sources, err := s.Sources(ctx, scope, []string{"orders", "customers"})
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "orders", sources[0].ID, "selection order is kept")
	assert.Equal(t, "customers", sources[1].ID)

	_, err = s.Sources(ctx, scope, []string{"orders", "nope", "gone"})
	require.Error(t, err)
	var agg *unisem.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errors, 2)

	require.NoError(t, s.Delete(ctx, scope, KindModel, "orders"))
	_, err = s.Get(ctx, scope, KindModel, "orders")
	assert.True(t, unisem.IsNotFound(err))
	assert.ErrorIs(t, s.Delete(ctx, scope, KindModel, "orders"), unisem.ErrNotFound)
}

func TestStore_Migrate_Idempotent(t *testing.T) {
	s := sqliteStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestStore_Put_Invalid(t *testing.T) {
	s := sqliteStore(t)
	ctx := context.Background()
	for _, d := range []*Document{
		{Kind: KindModel, Name: "x"},
		{Scope: scope, Kind: "chart", Name: "x"},
		{Scope: scope, Kind: KindModel, Name: " "},
	} {
		assert.Error(t, s.Put(ctx, d))
	}
}

func TestStore_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s, err := NewStore(OpenDB(dialect.Postgres, db), WithClock(clock))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM unisem_documents WHERE organization = $1 AND project = $2 AND kind = $3 AND name = $4")).
		WithArgs("acme", "sales", "model", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO unisem_documents (id, organization, project, kind, name, body, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)")).
		WithArgs(sqlmock.AnyArg(), "acme", "sales", "model", "orders", "name: orders\n", clock().UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, s.Put(context.Background(), &Document{Scope: scope, Kind: KindModel, Name: "orders", Body: []byte("name: orders\n")}))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM unisem_documents")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("7f1c"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE unisem_documents SET body = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("name: orders\n", clock().UnixMilli(), "7f1c").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	doc := &Document{Scope: scope, Kind: KindModel, Name: "orders", Body: []byte("name: orders\n")}
	require.NoError(t, s.Put(context.Background(), doc))
	assert.Equal(t, "7f1c", doc.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, organization, project, kind, name, body, updated_at FROM unisem_documents WHERE organization = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization", "project", "kind", "name", "body", "updated_at"}))
	_, err = s.Get(context.Background(), scope, KindModel, "missing")
	require.Error(t, err)
	var nf *unisem.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "acme/sales/missing", nf.Name())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Put_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s, err := NewStore(OpenDB(dialect.MySQL, db))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM unisem_documents").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO unisem_documents").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()
	err = s.Put(context.Background(), &Document{Scope: scope, Kind: KindUnified, Name: "sales"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Migrate_MySQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s, err := NewStore(OpenDB(dialect.MySQL, db), WithTable("models"))
	require.NoError(t, err)

	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS models \(.*body LONGTEXT NOT NULL`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStore_Options(t *testing.T) {
	_, err := NewStore(nil, WithTable("bad name; DROP"))
	require.Error(t, err)
	_, err = NewStore(nil, WithClock(nil))
	require.Error(t, err)
}
