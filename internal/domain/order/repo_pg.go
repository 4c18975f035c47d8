package order

import (
	"context"
	"errors"
	"fmt"

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

type orderRepoPG struct{ pool *pgxpool.Pool }

func NewOrderRepoPG(pool *pgxpool.Pool) OrderRepository {
	return &orderRepoPG{pool: pool}
}

func (r *orderRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const orderCols = `id, order_number, drug_id, drug_display, care_setting, orderer, status,
	dosing_type, dose, dosing_unit, route, frequency, duration, duration_unit,
	quantity, quantity_unit, instructions, reason,
	previous_order_id, date_activated, date_stopped, created_at, updated_at`

func (r *orderRepoPG) scanRow(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.DrugID, &o.DrugDisplay, &o.CareSetting,
		&o.Orderer, &o.Status,
		&o.DosingType, &o.Dose, &o.DosingUnit, &o.Route, &o.Frequency,
		&o.Duration, &o.DurationUnit,
		&o.Quantity, &o.QuantityUnit, &o.Instructions, &o.Reason,
		&o.PreviousOrderID, &o.DateActivated, &o.DateStopped,
		&o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *orderRepoPG) Create(ctx context.Context, o *Order) error {
	o.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO drug_order (id, order_number, drug_id, drug_display, care_setting,
			orderer, status, dosing_type, dose, dosing_unit, route, frequency,
			duration, duration_unit, quantity, quantity_unit, instructions, reason,
			previous_order_id, date_activated)
		VALUES ($1, 'ORD-' || nextval('drug_order_number_seq'), $2,$3,$4,$5,$6,$7,
			$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18, NOW())
		RETURNING order_number, date_activated, created_at, updated_at`,
		o.ID, o.DrugID, o.DrugDisplay, o.CareSetting,
		o.Orderer, o.Status, o.DosingType, o.Dose, o.DosingUnit, o.Route,
		o.Frequency, o.Duration, o.DurationUnit, o.Quantity, o.QuantityUnit,
		o.Instructions, o.Reason, o.PreviousOrderID).
		Scan(&o.OrderNumber, &o.DateActivated, &o.CreatedAt, &o.UpdatedAt)
}

func (r *orderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+orderCols+` FROM drug_order WHERE id = $1`, id))
}

func (r *orderRepoPG) FindActiveByDrug(ctx context.Context, drugID uuid.UUID, careSetting string) (*Order, error) {
	o, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+orderCols+` FROM drug_order
		WHERE drug_id = $1 AND care_setting = $2 AND status = $3`,
		drugID, careSetting, StatusActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug_order SET status=$2, date_stopped=NOW(), updated_at=NOW()
		WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found", id)
	}
	return nil
}

func (r *orderRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Order, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	n := 0

	add := func(clause string, v interface{}) {
		n++
		where += fmt.Sprintf(" AND %s = $%d", clause, n)
		args = append(args, v)
	}
	if f.Status != "" {
		add("status", f.Status)
	}
	if f.CareSetting != "" {
		add("care_setting", f.CareSetting)
	}
	if f.Orderer != "" {
		add("orderer", f.Orderer)
	}
	if f.DrugID != uuid.Nil {
		add("drug_id", f.DrugID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM drug_order `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM drug_order %s ORDER BY date_activated DESC LIMIT $%d OFFSET $%d`,
		orderCols, where, n+1, n+2), dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Order
	for rows.Next() {
		o, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}
