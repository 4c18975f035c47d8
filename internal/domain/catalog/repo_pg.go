package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinrec/orderentry/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository {
	return &entryRepoPG{pool: pool}
}

func (r *entryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const entryCols = `id, kind, display, sort_order, retired, created_at, updated_at`

func (r *entryRepoPG) scanRow(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Kind, &e.Display, &e.SortOrder, &e.Retired,
		&e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *entryRepoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO order_entry_catalog (id, kind, display, sort_order, retired)
		VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.Kind, e.Display, e.SortOrder, e.Retired)
	return err
}

func (r *entryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryCols+` FROM order_entry_catalog WHERE id = $1`, id))
}

func (r *entryRepoPG) Update(ctx context.Context, e *Entry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE order_entry_catalog SET kind=$2, display=$3, sort_order=$4,
			retired=$5, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.Kind, e.Display, e.SortOrder, e.Retired)
	return err
}

func (r *entryRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM order_entry_catalog WHERE id = $1`, id)
	return err
}

func (r *entryRepoPG) ListByKind(ctx context.Context, kind string, includeRetired bool) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM order_entry_catalog
		WHERE kind = $1 AND (retired = FALSE OR $2)
		ORDER BY sort_order, display`, kind, includeRetired)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *entryRepoPG) ListAll(ctx context.Context, includeRetired bool) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM order_entry_catalog
		WHERE retired = FALSE OR $1
		ORDER BY kind, sort_order, display`, includeRetired)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *entryRepoPG) collect(rows pgx.Rows) ([]*Entry, error) {
	var items []*Entry
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
