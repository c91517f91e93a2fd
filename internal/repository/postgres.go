package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// NewPostgresStore builds a Store over JSONB document tables. Key fields used
// for lookup and uniqueness are mirrored into their own columns.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	conn := pgConn{pool: pool}
	return Store{
		Users:     &userRepository{conn: conn},
		Requests:  &bloodRequestRepository{conn: conn},
		Deleted:   &deletedRequestRepository{conn: conn},
		Donations: &donationRepository{conn: conn},
		Tx:        &pgTransactor{pool: pool},
	}
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTxKey struct{}

type pgConn struct {
	pool *pgxpool.Pool
}

// db returns the transaction carried by ctx, or the pool.
func (c pgConn) db(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return c.pool
}

// inTx runs fn in the ambient transaction, or in a new one.
func (c pgConn) inTx(ctx context.Context, fn func(db dbtx) error) error {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(tx)
	}
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// mergePatch applies patch to the single row selected by where. The row is
// locked first so matched and modified are computed against the value that
// is overwritten.
func (c pgConn) mergePatch(ctx context.Context, table, where string, patch Patch, args ...any) (UpdateResult, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("encode patch: %w", err)
	}
	patchArg := len(args) + 1
	args = append(args, string(raw))

	var res UpdateResult
	err = c.inTx(ctx, func(db dbtx) error {
		var id string
		var unchanged bool
		selectSQL := fmt.Sprintf(`SELECT id::text, doc @> $%d::jsonb FROM %s WHERE %s LIMIT 1 FOR UPDATE`, patchArg, table, where)
		if err := db.QueryRow(ctx, selectSQL, args...).Scan(&id, &unchanged); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		res.Matched = 1
		if unchanged {
			return nil
		}
		updateSQL := fmt.Sprintf(`UPDATE %s SET doc = doc || $2::jsonb WHERE id = $1`, table)
		if _, err := db.Exec(ctx, updateSQL, id, string(raw)); err != nil {
			return err
		}
		res.Modified = 1
		return nil
	})
	return res, err
}

type pgTransactor struct {
	pool *pgxpool.Pool
}

func (t *pgTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(MarkTransaction(context.WithValue(ctx, pgTxKey{}, tx)))
	})
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func encodeDoc(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(raw), nil
}

func parseUUID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrMalformedID
	}
	return parsed.String(), nil
}

// collectDocs reads (id, doc) rows into T, assigning the id with setID.
func collectDocs[T any](rows pgx.Rows, setID func(*T, string)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		setID(&item, id)
		out = append(out, item)
	}
	return out, rows.Err()
}

type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) eq(expr string, value string) {
	if value == "" {
		return
	}
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf("%s = $%d", expr, len(w.args)))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	out := " WHERE " + w.clauses[0]
	for _, clause := range w.clauses[1:] {
		out += " AND " + clause
	}
	return out
}
