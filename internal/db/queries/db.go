package queries

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/gokatarajesh/mentors-mantra/internal/db"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs the application's SQL against either dialect. Statements are
// written with '?' placeholders and rebound for postgres.
type Queries struct {
	db     DBTX
	driver db.Driver
}

func New(conn DBTX, driver db.Driver) *Queries {
	return &Queries{db: conn, driver: driver}
}

// WithTx returns a copy bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, driver: q.driver}
}

func (q *Queries) rebind(query string) string {
	if q.driver != db.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inClause appends "AND column IN (?, ...)" for a non-empty value set.
func inClause(sb *strings.Builder, args []any, column string, values []string) []any {
	if len(values) == 0 {
		return args
	}
	sb.WriteString(" AND ")
	sb.WriteString(column)
	sb.WriteString(" IN (")
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args = append(args, v)
	}
	sb.WriteString(")")
	return args
}
