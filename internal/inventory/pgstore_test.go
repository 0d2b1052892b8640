package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/ariefcatur/coffee-inventory/internal/orders"
	"github.com/ariefcatur/coffee-inventory/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run against a real database when TEST_POSTGRES_DSN is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, dsn, 16)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, postgres.Migrate(ctx, db))
	return db
}

func seedOrder(t *testing.T, db *pgxpool.Pool, status orders.Status) int64 {
	t.Helper()
	repo := &orders.Repo{DB: db}
	o, err := repo.Create(context.Background(), orders.CreateInput{CustomerName: "Kopi Lestari", Status: status, CreatedBy: "test"})
	require.NoError(t, err)
	return o.ID
}

func seedBatch(t *testing.T, db *pgxpool.Pool, kind Kind) string {
	t.Helper()
	n := "T-" + uuid.NewString()[:8]
	_, err := db.Exec(context.Background(),
		fmt.Sprintf(`INSERT INTO %s(batch_number, created_by) VALUES ($1, 'test')`, kind.statusTable()), n)
	require.NoError(t, err)
	return n
}

func TestPgStore_reserveAndExit(t *testing.T) {
	db := testPool(t)
	ctx := context.Background()
	svc := &Service{Store: &PgStore{DB: db}}
	repo := &orders.Repo{DB: db}

	orderID := seedOrder(t, db, orders.StatusPending)
	batch := seedBatch(t, db, KindCherry)

	_, err := svc.Reserve(ctx, ReserveInput{
		Kind: KindCherry, OrderID: orderID, BatchNumber: batch,
		Quantity: decimal.NewFromInt(50), CreatedBy: "sari", UpdatedBy: "sari",
	})
	require.NoError(t, err)

	items, err := repo.Items(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(50)))

	_, err = svc.Exit(ctx, ExitInput{Kind: KindCherry, OrderID: orderID, BatchNumber: batch, CreatedBy: "budi", UpdatedBy: "budi"})
	assert.ErrorIs(t, err, ErrOrderNotInTransit)

	_, err = repo.UpdateStatus(ctx, orderID, orders.StatusInTransit, "ops")
	require.NoError(t, err)

	cost := decimal.RequireFromString("75000.50")
	_, err = svc.Exit(ctx, ExitInput{
		Kind: KindCherry, OrderID: orderID, BatchNumber: batch, CreatedBy: "budi", UpdatedBy: "budi",
		Transport: &TransportInput{Desa: "a", Kecamatan: "b", Kabupaten: "c", Cost: &cost, PaidTo: "d", PaymentMethod: "Cash"},
	})
	require.NoError(t, err)

	b, err := svc.Batch(ctx, KindCherry, batch)
	require.NoError(t, err)
	assert.Equal(t, StatusPicked, b.Status)
	assert.NotNil(t, b.ExitedAt)

	_, err = svc.Reserve(ctx, ReserveInput{
		Kind: KindCherry, OrderID: orderID, BatchNumber: batch,
		Quantity: decimal.NewFromInt(1), CreatedBy: "sari", UpdatedBy: "sari",
	})
	assert.ErrorIs(t, err, ErrAlreadyReserved)

	_, err = svc.Exit(ctx, ExitInput{Kind: KindCherry, OrderID: orderID, BatchNumber: batch, CreatedBy: "budi", UpdatedBy: "budi"})
	assert.ErrorIs(t, err, ErrBatchNotFound)

	mvs, err := svc.Movements(ctx, KindCherry, batch)
	require.NoError(t, err)
	require.Len(t, mvs, 2)
	assert.Equal(t, MovementExit, mvs[1].MovementType)

	var transports int
	require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM transport_data WHERE batch_number=$1`, batch).Scan(&transports))
	assert.Equal(t, 1, transports)
}

func TestPgStore_concurrentReserveOnlyOneWins(t *testing.T) {
	db := testPool(t)
	svc := &Service{Store: &PgStore{DB: db}}
	batch := seedBatch(t, db, KindGreenBeans)

	const callers = 6
	orderIDs := make([]int64, callers)
	for i := range orderIDs {
		orderIDs[i] = seedOrder(t, db, orders.StatusPending)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	start := make(chan struct{})
	for _, id := range orderIDs {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			<-start
			_, err := svc.Reserve(context.Background(), ReserveInput{
				Kind: KindGreenBeans, OrderID: orderID, BatchNumber: batch,
				Quantity: decimal.NewFromInt(1), CreatedBy: "race", UpdatedBy: "race",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyReserved):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, conflicts)

	mvs, err := svc.Movements(context.Background(), KindGreenBeans, batch)
	require.NoError(t, err)
	assert.Len(t, mvs, 1)
}
