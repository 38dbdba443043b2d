package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// MaterialFilter filtros del listado de materiales.
type MaterialFilter struct {
	Category entity.Category // vacío = todas
}

// MaterialRepository define el puerto de persistencia del catálogo de materiales.
// GetByID y GetForUpdate devuelven (nil, nil) si el material no existe.
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Material, error)
	// Update guarda nombre, categoría, unidad, mínimo y descripción. Nunca toca current_quantity.
	Update(ctx context.Context, material *entity.Material) error
	// ApplyDelta suma delta a current_quantity solo si el resultado no es negativo y
	// devuelve el saldo nuevo. Si la condición falla devuelve domain.ErrInsufficientStock.
	ApplyDelta(ctx context.Context, id string, delta int64) (int64, error)
	List(ctx context.Context, filter MaterialFilter) ([]*entity.Material, error)
	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context) (map[entity.Category]int64, error)
	ListBelowMinimum(ctx context.Context) ([]inventory.ShortageItem, error)
	// LedgerSnapshot devuelve los materiales (por nombre) y la suma con signo del libro
	// de cada uno, leídos de una sola instantánea.
	LedgerSnapshot(ctx context.Context) ([]*entity.Material, map[string]int64, error)
	Delete(ctx context.Context, id string) error
}
