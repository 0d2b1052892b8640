package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/coffee-inventory/internal/orders"
	"github.com/ariefcatur/coffee-inventory/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on PostgreSQL. Table names are interpolated from
// Kind (a fixed whitelist); every value goes through a bind parameter.
type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return postgres.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

const batchColumns = `batch_number, status, order_id, exited_at, updated_by, updated_at`

func scanBatch(kind Kind, row pgx.Row) (Batch, error) {
	b := Batch{Kind: kind}
	var status string
	err := row.Scan(&b.BatchNumber, &status, &b.OrderID, &b.ExitedAt, &b.UpdatedBy, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	if err != nil {
		return Batch{}, err
	}
	b.Status = Status(status)
	return b, nil
}

func collectBatches(kind Kind, rows pgx.Rows) ([]Batch, error) {
	defer rows.Close()
	var out []Batch
	for rows.Next() {
		b, err := scanBatch(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PgStore) GetBatch(ctx context.Context, kind Kind, batchNumber string) (Batch, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE batch_number=$1
		ORDER BY (exited_at IS NULL) DESC, id DESC LIMIT 1`, batchColumns, kind.statusTable())
	b, err := scanBatch(kind, s.DB.QueryRow(ctx, q, batchNumber))
	if err != nil && !errors.Is(err, ErrBatchNotFound) {
		return Batch{}, fmt.Errorf("get batch %s: %w", batchNumber, err)
	}
	return b, err
}

func (s *PgStore) ListBatches(ctx context.Context, kind Kind, status Status) ([]Batch, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		rows, err = s.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE exited_at IS NULL
			ORDER BY updated_at DESC, id DESC LIMIT 500`, batchColumns, kind.statusTable()))
	} else {
		rows, err = s.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE status=$1
			ORDER BY updated_at DESC, id DESC LIMIT 500`, batchColumns, kind.statusTable()), string(status))
	}
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return collectBatches(kind, rows)
}

func (s *PgStore) Movements(ctx context.Context, kind Kind, batchNumber string) ([]Movement, error) {
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
		SELECT id, batch_number, movement_type, order_id, moved_at, created_by
		FROM %s WHERE batch_number=$1 ORDER BY moved_at, id`, kind.movementTable()), batchNumber)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		m := Movement{Kind: kind}
		var mt string
		if err := rows.Scan(&m.ID, &m.BatchNumber, &mt, &m.OrderID, &m.MovedAt, &m.CreatedBy); err != nil {
			return nil, err
		}
		m.MovementType = MovementType(mt)
		out = append(out, m)
	}
	return out, rows.Err()
}

type pgTx struct{ tx pgx.Tx }

// OrderStatus takes a share lock so the order cannot change status while an
// exit that depends on it is in flight.
func (t *pgTx) OrderStatus(ctx context.Context, orderID int64) (orders.Status, error) {
	var s string
	err := t.tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR SHARE`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load order %d: %w", orderID, err)
	}
	return orders.Status(s), nil
}

func (t *pgTx) LockBatch(ctx context.Context, kind Kind, batchNumber string) (Batch, error) {
	// exited rows are returned too so a picked batch reads as a conflict, not a miss
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE batch_number=$1
		ORDER BY (exited_at IS NULL) DESC, id DESC LIMIT 1 FOR UPDATE`, batchColumns, kind.statusTable())
	b, err := scanBatch(kind, t.tx.QueryRow(ctx, q, batchNumber))
	if err != nil && !errors.Is(err, ErrBatchNotFound) {
		return Batch{}, fmt.Errorf("lock batch %s: %w", batchNumber, err)
	}
	return b, err
}

func (t *pgTx) SetStatus(ctx context.Context, tr Transition) error {
	var q string
	switch tr.To {
	case StatusReserved:
		q = `UPDATE %s SET status=$3, order_id=$4, updated_at=$5, updated_by=$6
			WHERE batch_number=$1 AND exited_at IS NULL AND status=$2`
	case StatusPicked:
		q = `UPDATE %s SET status=$3, exited_at=$5, updated_at=$5, updated_by=$6
			WHERE batch_number=$1 AND exited_at IS NULL AND status=$2 AND order_id=$4`
	default:
		return fmt.Errorf("unsupported target status %q", tr.To)
	}
	ct, err := t.tx.Exec(ctx, fmt.Sprintf(q, tr.Kind.statusTable()),
		tr.BatchNumber, string(tr.From), string(tr.To), tr.OrderID, tr.At, tr.UpdatedBy)
	if err != nil {
		return fmt.Errorf("update batch %s: %w", tr.BatchNumber, err)
	}
	if ct.RowsAffected() != 1 {
		return errStaleBatch
	}
	return nil
}

func (t *pgTx) AppendMovement(ctx context.Context, m Movement) error {
	_, err := t.tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s(batch_number, movement_type, order_id, moved_at, created_by)
		VALUES ($1, $2, $3, $4, $5)`, m.Kind.movementTable()),
		m.BatchNumber, string(m.MovementType), m.OrderID, m.MovedAt, m.CreatedBy)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

func (t *pgTx) UpsertOrderItem(ctx context.Context, it orders.Item) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items(order_id, batch_number, product, quantity, price, product_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (order_id, batch_number)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		it.OrderID, it.BatchNumber, it.Product, it.Quantity, it.Price, it.ProductType, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert order item: %w", err)
	}
	return nil
}

func (t *pgTx) InsertTransport(ctx context.Context, tr Transport) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO transport_data(batch_number, order_id, product_type, desa, kecamatan, kabupaten,
			cost, paid_to, farmer_id, payment_method, bank_account, bank_name, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		tr.BatchNumber, tr.OrderID, string(tr.Kind), tr.Desa, tr.Kecamatan, tr.Kabupaten,
		tr.Cost, tr.PaidTo, nullable(tr.FarmerID), tr.PaymentMethod,
		nullable(tr.BankAccount), nullable(tr.BankName), tr.CreatedBy, tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transport: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
