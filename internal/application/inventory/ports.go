package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error no queda nada escrito: ni la entrada del libro ni el cambio de saldo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		materials repository.MaterialRepository,
		movements repository.MovementRepository,
	) error) error
}

// MovementMetrics lo que el motor reporta a métricas. *metrics.Metrics lo implementa.
type MovementMetrics interface {
	RecordMovement(movementType string)
	RecordMovementFailure(reason string)
	RecordReplay()
}

type nopMetrics struct{}

func (nopMetrics) RecordMovement(string)        {}
func (nopMetrics) RecordMovementFailure(string) {}
func (nopMetrics) RecordReplay()                {}
