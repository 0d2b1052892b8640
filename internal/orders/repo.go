package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, customer_name, status, created_by, updated_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.CustomerName, &status, &o.CreatedBy, &o.UpdatedBy, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	o.Status = Status(status)
	return o, err
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (Order, error) {
	if in.Status == "" {
		in.Status = StatusPending
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO orders(customer_name, status, created_by, updated_by)
		VALUES ($1, $2, $3, $3)
		RETURNING `+orderColumns,
		in.CustomerName, string(in.Status), in.CreatedBy)
	o, err := scanOrder(row)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

// Get returns the order together with its items.
func (r *Repo) Get(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return Order{}, err
	}
	if o.Items, err = r.Items(ctx, id); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) GetStatus(ctx context.Context, id int64) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id int64, status Status, updatedBy string) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_by=$3, updated_at=now()
		WHERE id=$1
		RETURNING `+orderColumns,
		id, string(status), updatedBy)
	return scanOrder(row)
}

func (r *Repo) Items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, batch_number, product, quantity, price, product_type, created_at, updated_at
		FROM order_items WHERE order_id=$1 ORDER BY created_at, batch_number`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.OrderID, &it.BatchNumber, &it.Product, &it.Quantity, &it.Price,
			&it.ProductType, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
