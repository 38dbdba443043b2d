package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Contenedor PostgreSQL (se omite con -short o sin Docker)
// ──────────────────────────────────────────────────────────────────────────────

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stock_ledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("no se pudo iniciar PostgreSQL (¿Docker disponible?): %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applied, err := postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	assert.NotEmpty(t, applied)

	again, err := postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, again, "las migraciones ya aplicadas no se repiten")
	return pool
}

type stack struct {
	materials *postgres.MaterialRepo
	movements *postgres.MovementRepo
	mutator   *inventory.RecordMovementUseCase
	uc        *usecase.MaterialUseCase
}

func newStack(pool *pgxpool.Pool) *stack {
	materials := postgres.NewMaterialRepository(pool)
	movements := postgres.NewMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	mutator := inventory.NewRecordMovementUseCase(txRunner, nil, nil, "admin")
	return &stack{
		materials: materials,
		movements: movements,
		mutator:   mutator,
		uc:        usecase.NewMaterialUseCase(materials, movements, txRunner, mutator),
	}
}

func (s *stack) create(t *testing.T, name string, qty, min int64) string {
	t.Helper()
	m, err := s.uc.Create(context.Background(), dto.CreateMaterialRequest{
		Name: name, Category: "drug", Unit: "bottle", InitialQuantity: qty, MinQuantity: min,
	})
	require.NoError(t, err)
	return m.ID
}

// ──────────────────────────────────────────────────────────────────────────────
// Casos
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_Ledger(t *testing.T) {
	pool := startPostgres(t)
	s := newStack(pool)
	ctx := context.Background()

	t.Run("consumo, faltante y stock insuficiente", func(t *testing.T) {
		id := s.create(t, "生理食塩液", 10, 5)

		res, err := s.mutator.RecordMovement(ctx, inventory.RecordMovementInput{
			MaterialID: id, Type: entity.MovementTypeOut, Quantity: 7, LoggedBy: "田中",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.UpdatedQuantity)
		assert.Equal(t, int64(3), res.Movement.QuantityAfter)

		_, err = s.mutator.RecordMovement(ctx, inventory.RecordMovementInput{
			MaterialID: id, Type: entity.MovementTypeOut, Quantity: 5, LoggedBy: "田中",
		})
		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, int64(3), stockErr.Current)

		items, err := s.materials.ListBelowMinimum(ctx)
		require.NoError(t, err)
		var found bool
		for _, it := range items {
			if it.Material.ID == id {
				found = true
				assert.Equal(t, int64(2), it.ShortageQuantity)
				assert.Equal(t, "60", it.CoveragePct.String())
			}
		}
		assert.True(t, found)
	})

	t.Run("idempotencia", func(t *testing.T) {
		id := s.create(t, "アドレナリン", 5, 0)
		in := inventory.RecordMovementInput{
			MaterialID: id, Type: entity.MovementTypeIn, Quantity: 2, LoggedBy: "x", IdempotencyKey: "pg-key-1",
		}
		first, err := s.mutator.RecordMovement(ctx, in)
		require.NoError(t, err)
		second, err := s.mutator.RecordMovement(ctx, in)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Movement.ID, second.Movement.ID)
		assert.Equal(t, int64(7), second.UpdatedQuantity)

		in.Quantity = 3
		_, err = s.mutator.RecordMovement(ctx, in)
		assert.ErrorIs(t, err, domain.ErrIdempotencyMismatch)
	})

	t.Run("salidas concurrentes no dejan saldo negativo", func(t *testing.T) {
		id := s.create(t, "手袋 M", 10, 0)
		var ok, short atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.mutator.RecordMovement(ctx, inventory.RecordMovementInput{
					MaterialID: id, Type: entity.MovementTypeOut, Quantity: 1, LoggedBy: "x",
				})
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, domain.ErrInsufficientStock):
					short.Add(1)
				default:
					t.Errorf("error inesperado: %v", err)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(10), ok.Load())
		assert.Equal(t, int32(6), short.Load())

		m, err := s.materials.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), m.CurrentQuantity)
	})

	t.Run("material inexistente en el libro", func(t *testing.T) {
		err := s.movements.Append(ctx, &entity.Movement{
			ID: "5f0c6a57-55ac-4b43-a8f4-2b3a1f0a9d11", MaterialID: "5f0c6a57-55ac-4b43-a8f4-2b3a1f0a9d12",
			Type: entity.MovementTypeIn, Quantity: 1, LoggedBy: "x", LoggedAt: time.Now(), QuantityAfter: 1,
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("el libro es de solo inserción", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE movements SET quantity = quantity + 1`)
		assert.Error(t, err)
		_, err = pool.Exec(ctx, `DELETE FROM movements`)
		assert.Error(t, err)
	})

	t.Run("borrar material con movimientos", func(t *testing.T) {
		id := s.create(t, "ガーゼ", 3, 0)
		_, err := s.mutator.RecordMovement(ctx, inventory.RecordMovementInput{
			MaterialID: id, Type: entity.MovementTypeOut, Quantity: 1, LoggedBy: "x",
		})
		require.NoError(t, err)
		assert.ErrorIs(t, s.uc.Delete(ctx, id), domain.ErrConflict)
		assert.ErrorIs(t, s.materials.Delete(ctx, id), domain.ErrConflict)

		unused := s.create(t, "未使用", 0, 0)
		require.NoError(t, s.uc.Delete(ctx, unused))
		assert.ErrorIs(t, s.materials.Delete(ctx, unused), domain.ErrNotFound)
	})

	t.Run("ajuste y conciliación", func(t *testing.T) {
		id := s.create(t, "酸素マスク", 4, 0)
		res, err := s.mutator.AdjustStock(ctx, inventory.AdjustStockInput{MaterialID: id, NewQuantity: 9})
		require.NoError(t, err)
		require.NotNil(t, res.Movement)
		assert.Equal(t, int64(5), res.Movement.Quantity)
		assert.Equal(t, "admin", res.Movement.LoggedBy)

		sums, err := s.movements.SumByMaterial(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), sums[id])

		list, snap, err := s.materials.LedgerSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), snap[id])
		for _, m := range list {
			assert.Equal(t, m.InitialQuantity+snap[m.ID], m.CurrentQuantity, m.Name)
		}
	})

	t.Run("recientes y conteo por intervalo", func(t *testing.T) {
		recent, err := s.movements.ListRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		for i := 1; i < len(recent); i++ {
			assert.False(t, recent[i].LoggedAt.After(recent[i-1].LoggedAt))
		}
		assert.NotEmpty(t, recent[0].MaterialName)

		now := time.Now()
		total, err := s.movements.CountBetween(ctx, now.Add(-time.Hour), now.Add(time.Hour))
		require.NoError(t, err)
		since, err := s.movements.CountSince(ctx, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, total, since)
		assert.Positive(t, total)

		none, err := s.movements.CountBetween(ctx, now.Add(time.Hour), now.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Zero(t, none)
	})
}
