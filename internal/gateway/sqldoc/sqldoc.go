// Package sqldoc stores gateway documents as JSON rows in PostgreSQL
// (JSONB, via pgx) or SQLite (TEXT with the JSON1 functions).
package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/migrations"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store implements gateway.DocumentStore on a documents table.
type Store struct {
	db      *sql.DB
	dialect dbx.Dialect
	newID   func() string
}

// Open connects to dsn, applies migrations and returns a Store.
func Open(ctx context.Context, dialect dbx.Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if dialect == dbx.SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := migrations.Up(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return New(db, dialect), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, dialect dbx.Dialect) *Store {
	return &Store{db: db, dialect: dialect, newID: uuid.NewString}
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the connection pool, e.g. for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// query collects bind arguments and renders placeholders for the dialect.
type query struct {
	d    dbx.Dialect
	args []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return q.d.Placeholder(len(q.args))
}

func encode(fields map[string]any) ([]byte, map[string]any, error) {
	norm, err := gateway.NormalizeFields(fields)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range norm {
		if v == nil {
			delete(norm, k)
		}
	}
	b, err := json.Marshal(norm)
	if err != nil {
		return nil, nil, err
	}
	return b, norm, nil
}

func decode(id string, body []byte) (gateway.Document, error) {
	fields := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return gateway.Document{}, fmt.Errorf("corrupt document %s: %w", id, err)
		}
	}
	return gateway.Document{ID: id, Fields: fields}, nil
}

func (s *Store) CreateDocument(ctx context.Context, collection string, fields map[string]any) (gateway.Document, error) {
	body, norm, err := encode(fields)
	if err != nil {
		return gateway.Document{}, err
	}

	id := s.newID()
	q := &query{d: s.dialect}
	stmt := fmt.Sprintf(`INSERT INTO documents (collection, id, body) VALUES (%s, %s, %s)`,
		q.arg(collection), q.arg(id), q.arg(string(body)))

	if _, err := s.db.ExecContext(ctx, stmt, q.args...); err != nil {
		return gateway.Document{}, fmt.Errorf("error performing sql request: %w", err)
	}
	return gateway.Document{ID: id, Fields: norm}, nil
}

func (s *Store) SetDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	body, _, err := encode(fields)
	if err != nil {
		return err
	}

	q := &query{d: s.dialect}
	stmt := fmt.Sprintf(`INSERT INTO documents (collection, id, body) VALUES (%s, %s, %s)
		ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body`,
		q.arg(collection), q.arg(id), q.arg(string(body)))

	if _, err := s.db.ExecContext(ctx, stmt, q.args...); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (gateway.Document, error) {
	body, err := s.readBody(ctx, s.db, collection, id, false)
	if err != nil {
		return gateway.Document{}, err
	}
	return decode(id, body)
}

func (s *Store) readBody(ctx context.Context, db dbx.DBTX, collection, id string, lock bool) ([]byte, error) {
	q := &query{d: s.dialect}
	stmt := fmt.Sprintf(`SELECT body FROM documents WHERE collection = %s AND id = %s`, q.arg(collection), q.arg(id))
	if lock && s.dialect == dbx.Postgres {
		stmt += ` FOR UPDATE`
	}

	var body []byte
	err := db.QueryRowContext(ctx, stmt, q.args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gateway.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return body, nil
}

// field renders a JSON field accessor for the dialect.
func (s *Store) field(q *query, name string) (string, error) {
	if !fieldName.MatchString(name) {
		return "", fmt.Errorf("%w: %q", common.ErrorInvalidField, name)
	}
	if s.dialect == dbx.Postgres {
		return fmt.Sprintf("body -> %s::text", q.arg(name)), nil
	}
	return fmt.Sprintf("json_extract(body, %s)", q.arg("$."+name)), nil
}

func (s *Store) buildQuery(collection string, gq gateway.Query) (string, []any, error) {
	q := &query{d: s.dialect}
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT id, body FROM documents WHERE collection = %s`, q.arg(collection))

	for _, f := range gq.Filters {
		lhs, err := s.field(q, f.Field)
		if err != nil {
			return "", nil, err
		}
		v, err := gateway.Normalize(f.Value)
		if err != nil {
			return "", nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", nil, err
		}
		if s.dialect == dbx.Postgres {
			fmt.Fprintf(&sb, ` AND %s = %s::jsonb`, lhs, q.arg(string(b)))
		} else {
			fmt.Fprintf(&sb, ` AND %s = json_extract(%s, '$')`, lhs, q.arg(string(b)))
		}
	}

	insertion := "rowid"
	if s.dialect == dbx.Postgres {
		insertion = "seq"
	}
	if o := gq.OrderBy; o != nil {
		expr, err := s.field(q, o.Field)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if o.Dir == gateway.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY %s %s, %s`, expr, dir, insertion)
	} else {
		fmt.Fprintf(&sb, ` ORDER BY %s`, insertion)
	}
	return sb.String(), q.args, nil
}

func (s *Store) QueryDocuments(ctx context.Context, collection string, gq gateway.Query) ([]gateway.Document, error) {
	stmt, args, err := s.buildQuery(collection, gq)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	out := []gateway.Document{}
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		doc, err := decode(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateDocument merges fields into the stored body inside a transaction.
func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := gateway.NormalizeFields(fields)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		body, err := s.readBody(ctx, tx, collection, id, true)
		if err != nil {
			return err
		}
		doc, err := decode(id, body)
		if err != nil {
			return err
		}
		gateway.Merge(doc.Fields, patch)

		merged, err := json.Marshal(doc.Fields)
		if err != nil {
			return err
		}
		q := &query{d: s.dialect}
		stmt := fmt.Sprintf(`UPDATE documents SET body = %s WHERE collection = %s AND id = %s`,
			q.arg(string(merged)), q.arg(collection), q.arg(id))
		if _, err := tx.ExecContext(ctx, stmt, q.args...); err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	q := &query{d: s.dialect}
	stmt := fmt.Sprintf(`DELETE FROM documents WHERE collection = %s AND id = %s`, q.arg(collection), q.arg(id))
	if _, err := s.db.ExecContext(ctx, stmt, q.args...); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

var _ gateway.DocumentStore = (*Store)(nil)
