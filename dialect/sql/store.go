package sql

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/compiler/load"
	"github.com/syssam/unisem/dialect"
)

// DefaultTable is the name of the document table.
const DefaultTable = "unisem_documents"

// Kind is the kind of a stored document.
type Kind string

// Document kinds.
const (
	KindModel   Kind = "model"   // a single-source semantic model
	KindUnified Kind = "unified" // a composed unified model
)

// Scope is the organization and project a document belongs to.
type Scope struct {
	Organization string `yaml:"organization" json:"organization"`
	Project      string `yaml:"project" json:"project"`
}

// String returns the scope as "organization/project".
func (s Scope) String() string {
	return s.Organization + "/" + s.Project
}

// Document is a stored model document.
type Document struct {
	ID        string
	Scope     Scope
	Kind      Kind
	Name      string
	Body      []byte
	UpdatedAt time.Time
}

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// Store keeps semantic model documents in a SQL database, keyed by scope,
// kind and name. It is safe for concurrent use.
type Store struct {
	drv   dialect.Driver
	table string
	now   func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store) error

// WithTable sets the document table name.
func WithTable(name string) StoreOption {
	return func(s *Store) error {
		if !isValidIdentifier(name) {
			return fmt.Errorf("dialect/sql: invalid table name %q", name)
		}
		s.table = name
		return nil
	}
}

// WithClock sets the clock used for update timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) error {
		if now == nil {
			return errors.New("dialect/sql: clock cannot be nil")
		}
		s.now = now
		return nil
	}
}

// NewStore returns a Store running on drv.
func NewStore(drv dialect.Driver, opts ...StoreOption) (*Store, error) {
	s := &Store{drv: drv, table: DefaultTable, now: time.Now}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Migrate creates the document table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	body := "TEXT"
	if s.drv.Dialect() == dialect.MySQL {
		body = "LONGTEXT"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(36) PRIMARY KEY,
	organization VARCHAR(191) NOT NULL,
	project VARCHAR(191) NOT NULL,
	kind VARCHAR(32) NOT NULL,
	name VARCHAR(191) NOT NULL,
	body %s NOT NULL,
	updated_at BIGINT NOT NULL,
	UNIQUE (organization, project, kind, name)
)`, s.table, body)
	if err := s.drv.Exec(ctx, query, []any{}, nil); err != nil {
		return fmt.Errorf("dialect/sql: migrate %s: %w", s.table, err)
	}
	return nil
}

// Put inserts or replaces the document with the scope, kind and name of
// doc. On success doc.ID and doc.UpdatedAt are set.
func (s *Store) Put(ctx context.Context, doc *Document) (rerr error) {
	if err := checkKey(doc.Scope, doc.Kind, doc.Name); err != nil {
		return err
	}
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: put %s: begin: %w", doc.Name, err)
	}
	defer func() {
		if rerr != nil {
			rerr = errors.Join(rerr, tx.Rollback())
		}
	}()
	id, err := s.lookup(ctx, tx, doc.Scope, doc.Kind, doc.Name)
	if err != nil {
		return err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	if id != "" {
		err = tx.Exec(ctx, fmt.Sprintf("UPDATE %s SET body = ?, updated_at = ? WHERE id = ?", s.table),
			[]any{string(doc.Body), now.UnixMilli(), id}, nil)
	} else {
		id = uuid.NewString()
		err = tx.Exec(ctx, fmt.Sprintf("INSERT INTO %s (id, organization, project, kind, name, body, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table),
			[]any{id, doc.Scope.Organization, doc.Scope.Project, string(doc.Kind), doc.Name, string(doc.Body), now.UnixMilli()}, nil)
	}
	if err != nil {
		return fmt.Errorf("dialect/sql: put %s: %w", doc.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: put %s: commit: %w", doc.Name, err)
	}
	doc.ID, doc.UpdatedAt = id, now
	return nil
}

func (s *Store) lookup(ctx context.Context, q dialect.ExecQuerier, scope Scope, kind Kind, name string) (string, error) {
	var rows Rows
	err := q.Query(ctx, fmt.Sprintf("SELECT id FROM %s WHERE organization = ? AND project = ? AND kind = ? AND name = ?", s.table),
		[]any{scope.Organization, scope.Project, string(kind), name}, &rows)
	if err != nil {
		return "", fmt.Errorf("dialect/sql: lookup %s: %w", name, err)
	}
	defer rows.Close()
	var id string
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("dialect/sql: lookup %s: %w", name, err)
		}
	}
	return id, rows.Err()
}

// Get returns the document with the given key, or a *unisem.NotFoundError.
func (s *Store) Get(ctx context.Context, scope Scope, kind Kind, name string) (*Document, error) {
	docs, err := s.query(ctx, "organization = ? AND project = ? AND kind = ? AND name = ?",
		[]any{scope.Organization, scope.Project, string(kind), name})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, unisem.NewNotFoundError(string(kind), scope.String()+"/"+name)
	}
	return docs[0], nil
}

// List returns the documents of a kind in the scope, ordered by name.
func (s *Store) List(ctx context.Context, scope Scope, kind Kind) ([]*Document, error) {
	return s.query(ctx, "organization = ? AND project = ? AND kind = ?",
		[]any{scope.Organization, scope.Project, string(kind)})
}

func (s *Store) query(ctx context.Context, where string, args []any) ([]*Document, error) {
	var rows Rows
	query := fmt.Sprintf("SELECT id, organization, project, kind, name, body, updated_at FROM %s WHERE %s ORDER BY name", s.table, where)
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*Document
	for rows.Next() {
		var (
			d       Document
			kind    string
			body    string
			updated int64
		)
		if err := rows.Scan(&d.ID, &d.Scope.Organization, &d.Scope.Project, &kind, &d.Name, &body, &updated); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan document: %w", err)
		}
		d.Kind, d.Body, d.UpdatedAt = Kind(kind), []byte(body), time.UnixMilli(updated).UTC()
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// Delete removes the document with the given key. It returns a
// *unisem.NotFoundError if there is none.
func (s *Store) Delete(ctx context.Context, scope Scope, kind Kind, name string) error {
	var res Result
	err := s.drv.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE organization = ? AND project = ? AND kind = ? AND name = ?", s.table),
		[]any{scope.Organization, scope.Project, string(kind), name}, &res)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("dialect/sql: delete %s: %w", name, err)
	}
	if n == 0 {
		return unisem.NewNotFoundError(string(kind), scope.String()+"/"+name)
	}
	return nil
}

// Sources fetches the named model documents of the scope in the given
// order, ready to be composed. Every missing name is reported.
func (s *Store) Sources(ctx context.Context, scope Scope, names []string) ([]load.Document, error) {
	docs := make([]load.Document, 0, len(names))
	var errs []error
	for _, name := range names {
		d, err := s.Get(ctx, scope, KindModel, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, load.Document{ID: name, Raw: d.Body})
	}
	if err := unisem.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return docs, nil
}

func checkKey(scope Scope, kind Kind, name string) error {
	switch {
	case strings.TrimSpace(scope.Organization) == "" || strings.TrimSpace(scope.Project) == "":
		return errors.New("dialect/sql: organization and project are required")
	case kind != KindModel && kind != KindUnified:
		return fmt.Errorf("dialect/sql: unknown document kind %q", kind)
	case strings.TrimSpace(name) == "":
		return errors.New("dialect/sql: document name is required")
	}
	return nil
}
