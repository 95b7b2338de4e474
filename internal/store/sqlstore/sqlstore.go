// Package sqlstore keeps todos in a PostgreSQL table.
//
// Every call borrows one connection for its own duration and gives it back
// before returning. No transaction spans more than one statement.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"

	"github.com/idilsaglam/todo/internal/model"
)

// ErrNotFound is returned by Update and Delete when no row has the given id.
var ErrNotFound = errors.New("todo not found")

const (
	sqlSelectBase      = "SELECT id, title, description, completed, created_at, updated_at FROM todos"
	sqlOrderNewest     = " ORDER BY created_at DESC, id DESC"
	sqlWhereCompleted  = " WHERE completed = TRUE"
	sqlWhereIncomplete = " WHERE completed = FALSE"
	sqlInsert          = "INSERT INTO todos (title, description, completed) VALUES ($1, $2, $3)"
	sqlUpdate          = "UPDATE todos SET title = $1, description = $2, completed = $3, updated_at = $4 WHERE id = $5"
	sqlDelete          = "DELETE FROM todos WHERE id = $1"

	sqlCreateTable = `CREATE TABLE IF NOT EXISTS todos (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
)

// Store runs the todo statements against a *sql.DB.
type Store struct {
	db  *sql.DB
	log *log.Logger
}

// Open connects to PostgreSQL using dsn and checks the connection.
func Open(ctx context.Context, dsn string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := New(db, logger)
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database. A nil logger discards output.
func New(db *sql.DB, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{db: db, log: logger.WithPrefix("store")}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		return nil
	})
}

// EnsureSchema creates the todos table when it does not exist yet.
// An existing table is left alone.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, sqlCreateTable); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		s.log.Debug("schema ready")
		return nil
	})
}

// ListAll returns every todo, newest first.
func (s *Store) ListAll(ctx context.Context) ([]model.Todo, error) {
	return s.list(ctx, sqlSelectBase+sqlOrderNewest)
}

// ListByStatus returns the todos matching f, newest first. The predicate is
// evaluated by the database.
func (s *Store) ListByStatus(ctx context.Context, f model.Filter) ([]model.Todo, error) {
	where := ""
	switch f {
	case model.FilterCompleted:
		where = sqlWhereCompleted
	case model.FilterIncomplete:
		where = sqlWhereIncomplete
	}
	return s.list(ctx, sqlSelectBase+where+sqlOrderNewest)
}

func (s *Store) list(ctx context.Context, query string) ([]model.Todo, error) {
	var todos []model.Todo
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("query todos: %w", err)
		}
		defer rows.Close()

		todos = []model.Todo{}
		for rows.Next() {
			var (
				t    model.Todo
				desc sql.NullString
			)
			if err := rows.Scan(&t.ID, &t.Title, &desc, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
				return fmt.Errorf("scan todo: %w", err)
			}
			t.Description = desc.String
			todos = append(todos, t)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("read todos: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("listed todos", "count", len(todos))
	return todos, nil
}

// Insert stores d as a new row. The database assigns the id and both
// timestamps.
func (s *Store) Insert(ctx context.Context, d model.Draft) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, sqlInsert, d.Title, d.Description, d.Completed); err != nil {
			return fmt.Errorf("insert todo: %w", err)
		}
		s.log.Debug("inserted todo", "title", d.Title)
		return nil
	})
}

// Update overwrites title, description, completed and updated_at of the row
// with t.ID. CreatedAt is not written.
func (s *Store) Update(ctx context.Context, t model.Todo) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, sqlUpdate, t.Title, t.Description, t.Completed, t.UpdatedAt, t.ID)
		if err != nil {
			return fmt.Errorf("update todo %d: %w", t.ID, err)
		}
		if err := expectOneRow(res, t.ID); err != nil {
			return err
		}
		s.log.Debug("updated todo", "id", t.ID)
		return nil
	})
}

// Delete removes the row with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, sqlDelete, id)
		if err != nil {
			return fmt.Errorf("delete todo %d: %w", id, err)
		}
		if err := expectOneRow(res, id); err != nil {
			return err
		}
		s.log.Debug("deleted todo", "id", id)
		return nil
	})
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("todo %d: %w", id, ErrNotFound)
	}
	return nil
}

// withConn runs fn on a connection that is released when fn returns.
func (s *Store) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}
