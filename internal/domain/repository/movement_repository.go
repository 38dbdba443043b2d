package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementRepository define el puerto del libro de movimientos (solo inserción).
// No existe operación de actualización ni de borrado.
type MovementRepository interface {
	Append(ctx context.Context, movement *entity.Movement) error
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Movement, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.MovementWithMaterial, error)
	ListByMaterial(ctx context.Context, materialID string, limit, offset int) ([]*entity.Movement, error)
	// CountBetween cuenta movimientos con logged_at en [from, to).
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountSince(ctx context.Context, from time.Time) (int64, error)
	ExistsForMaterial(ctx context.Context, materialID string) (bool, error)
	// SumByMaterial devuelve la suma con signo de los movimientos por material.
	SumByMaterial(ctx context.Context) (map[string]int64, error)
}

// ErrDuplicateIdempotencyKey lo devuelve Append cuando otra transacción ya registró
// un movimiento con la misma clave de idempotencia.
var ErrDuplicateIdempotencyKey = errors.New("clave de idempotencia duplicada")
