package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RecordMovementUseCase es el motor de stock: cada movimiento agrega una entrada al
// libro y ajusta current_quantity en la misma transacción, con bloqueo de fila
// (SELECT FOR UPDATE) y actualización condicional.
type RecordMovementUseCase struct {
	txRunner     TxRunner
	log          *logger.Logger
	metrics      MovementMetrics
	defaultActor string
	now          func() time.Time
}

// NewRecordMovementUseCase construye el caso de uso. log y m pueden ser nil.
func NewRecordMovementUseCase(txRunner TxRunner, log *logger.Logger, m MovementMetrics, defaultActor string) *RecordMovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = nopMetrics{}
	}
	if strings.TrimSpace(defaultActor) == "" {
		defaultActor = "admin"
	}
	return &RecordMovementUseCase{
		txRunner:     txRunner,
		log:          log.Component("stock_mutator"),
		metrics:      m,
		defaultActor: defaultActor,
		now:          time.Now,
	}
}

// WithClock reemplaza el reloj usado para logged_at.
func (uc *RecordMovementUseCase) WithClock(now func() time.Time) *RecordMovementUseCase {
	uc.now = now
	return uc
}

// RecordMovementInput entrada de un movimiento de reposición (in) o consumo (out).
type RecordMovementInput struct {
	MaterialID     string
	Type           entity.MovementType
	Quantity       int64
	Note           string
	LoggedBy       string
	IdempotencyKey string
}

// RecordMovementResult resultado del motor. Replayed indica que la clave de
// idempotencia ya estaba registrada y no se escribió nada nuevo.
type RecordMovementResult struct {
	Movement        *entity.Movement
	UpdatedQuantity int64
	Replayed        bool
}

// AdjustStockInput corrección administrativa: fija current_quantity en NewQuantity.
type AdjustStockInput struct {
	MaterialID  string
	NewQuantity int64
	Note        string
	LoggedBy    string
}

// RecordMovement valida, abre una transacción, bloquea el material, agrega la
// entrada al libro, aplica el delta y hace Commit. Cualquier fallo revierte todo.
func (uc *RecordMovementUseCase) RecordMovement(ctx context.Context, in RecordMovementInput) (*RecordMovementResult, error) {
	mov := &entity.Movement{
		MaterialID:     strings.TrimSpace(in.MaterialID),
		Type:           in.Type,
		Quantity:       in.Quantity,
		Note:           strings.TrimSpace(in.Note),
		LoggedBy:       strings.TrimSpace(in.LoggedBy),
		IdempotencyKey: strings.TrimSpace(in.IdempotencyKey),
	}
	if mov.Type != entity.MovementTypeIn && mov.Type != entity.MovementTypeOut {
		uc.metrics.RecordMovementFailure(failureReason(domain.ErrValidation))
		return nil, domain.NewValidationError("type", "debe ser in u out")
	}
	if err := inventory.ValidateMovement(mov); err != nil {
		uc.metrics.RecordMovementFailure(failureReason(err))
		return nil, err
	}

	res, err := uc.record(ctx, mov)
	if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
		// Otra petición con la misma clave ganó la carrera: se reintenta como repetición.
		res, err = uc.record(ctx, mov)
	}
	if err != nil {
		err = domain.WrapPersistence("record movement", err)
		uc.metrics.RecordMovementFailure(failureReason(err))
		uc.log.Warn().Err(err).
			Str("material_id", mov.MaterialID).
			Str("type", string(mov.Type)).
			Int64("quantity", mov.Quantity).
			Msg("movimiento rechazado")
		return nil, err
	}

	if res.Replayed {
		uc.metrics.RecordReplay()
		uc.log.Debug().
			Str("movement_id", res.Movement.ID).
			Str("idempotency_key", mov.IdempotencyKey).
			Msg("movimiento repetido, se devuelve el registrado")
		return res, nil
	}
	uc.metrics.RecordMovement(string(res.Movement.Type))
	uc.log.Info().
		Str("movement_id", res.Movement.ID).
		Str("material_id", res.Movement.MaterialID).
		Str("type", string(res.Movement.Type)).
		Int64("quantity", res.Movement.Quantity).
		Int64("balance", res.UpdatedQuantity).
		Str("logged_by", res.Movement.LoggedBy).
		Msg("movimiento registrado")
	return res, nil
}

func (uc *RecordMovementUseCase) record(ctx context.Context, mov *entity.Movement) (*RecordMovementResult, error) {
	var result *RecordMovementResult
	err := uc.txRunner.Run(ctx, func(
		materials repository.MaterialRepository,
		movements repository.MovementRepository,
	) error {
		if mov.IdempotencyKey != "" {
			prev, err := movements.GetByIdempotencyKey(ctx, mov.IdempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				if !inventory.SameRequest(prev, mov) {
					return domain.ErrIdempotencyMismatch
				}
				mat, err := materials.GetByID(ctx, prev.MaterialID)
				if err != nil {
					return err
				}
				current := prev.QuantityAfter
				if mat != nil {
					current = mat.CurrentQuantity
				}
				result = &RecordMovementResult{Movement: prev, UpdatedQuantity: current, Replayed: true}
				return nil
			}
		}

		mat, err := materials.GetForUpdate(ctx, mov.MaterialID)
		if err != nil {
			return err
		}
		if mat == nil {
			return domain.ErrNotFound
		}
		entry, updated, err := uc.apply(ctx, materials, movements, mat, mov)
		if err != nil {
			return err
		}
		result = &RecordMovementResult{Movement: entry, UpdatedQuantity: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// apply agrega la entrada y aplica el delta sobre un material ya bloqueado.
func (uc *RecordMovementUseCase) apply(
	ctx context.Context,
	materials repository.MaterialRepository,
	movements repository.MovementRepository,
	mat *entity.Material,
	mov *entity.Movement,
) (*entity.Movement, int64, error) {
	next, err := inventory.Apply(mat.CurrentQuantity, mov)
	if err != nil {
		return nil, 0, err
	}
	entry := *mov
	entry.ID = uuid.New().String()
	entry.LoggedAt = uc.now().UTC()
	entry.QuantityAfter = next
	if err := movements.Append(ctx, &entry); err != nil {
		return nil, 0, err
	}
	updated, err := materials.ApplyDelta(ctx, mat.ID, entry.Signed())
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return nil, 0, &domain.InsufficientStockError{
				MaterialID: mat.ID,
				Current:    mat.CurrentQuantity,
				Requested:  mov.Quantity,
			}
		}
		return nil, 0, err
	}
	return &entry, updated, nil
}

// AdjustStock fija current_quantity en NewQuantity registrando un movimiento adjustment
// con el delta. Si el delta es cero no se escribe nada y Movement es nil.
func (uc *RecordMovementUseCase) AdjustStock(ctx context.Context, in AdjustStockInput) (*RecordMovementResult, error) {
	if strings.TrimSpace(in.MaterialID) == "" {
		return nil, domain.NewValidationError("material_id", "es requerido")
	}
	if in.NewQuantity < 0 {
		return nil, domain.NewValidationError("new_quantity", "no puede ser negativa")
	}
	var result *RecordMovementResult
	err := uc.txRunner.Run(ctx, func(
		materials repository.MaterialRepository,
		movements repository.MovementRepository,
	) error {
		mat, err := materials.GetForUpdate(ctx, strings.TrimSpace(in.MaterialID))
		if err != nil {
			return err
		}
		if mat == nil {
			return domain.ErrNotFound
		}
		entry, updated, err := uc.AdjustInTx(ctx, materials, movements, mat, in.NewQuantity, in.Note, in.LoggedBy)
		if err != nil {
			return err
		}
		result = &RecordMovementResult{Movement: entry, UpdatedQuantity: updated}
		return nil
	})
	if err != nil {
		err = domain.WrapPersistence("adjust stock", err)
		uc.metrics.RecordMovementFailure(failureReason(err))
		return nil, err
	}
	if result.Movement != nil {
		uc.metrics.RecordMovement(string(entity.MovementTypeAdjustment))
		uc.log.Info().
			Str("movement_id", result.Movement.ID).
			Str("material_id", result.Movement.MaterialID).
			Int64("delta", result.Movement.Quantity).
			Int64("balance", result.UpdatedQuantity).
			Str("logged_by", result.Movement.LoggedBy).
			Msg("ajuste de stock registrado")
	}
	return result, nil
}

// AdjustInTx aplica la corrección usando los repositorios de una transacción ya abierta
// (la del caller). mat debe estar bloqueado con GetForUpdate.
func (uc *RecordMovementUseCase) AdjustInTx(
	ctx context.Context,
	materials repository.MaterialRepository,
	movements repository.MovementRepository,
	mat *entity.Material,
	newQuantity int64,
	note, actor string,
) (*entity.Movement, int64, error) {
	if newQuantity < 0 {
		return nil, 0, domain.NewValidationError("current_quantity", "no puede ser negativa")
	}
	delta := newQuantity - mat.CurrentQuantity
	if delta == 0 {
		return nil, mat.CurrentQuantity, nil
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = uc.defaultActor
	}
	mov := &entity.Movement{
		MaterialID: mat.ID,
		Type:       entity.MovementTypeAdjustment,
		Quantity:   delta,
		Note:       strings.TrimSpace(note),
		LoggedBy:   actor,
	}
	if err := inventory.ValidateMovement(mov); err != nil {
		return nil, 0, err
	}
	return uc.apply(ctx, materials, movements, mat, mov)
}

// failureReason etiqueta de métricas para un error del motor.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrIdempotencyMismatch):
		return "idempotency_mismatch"
	default:
		return "persistence"
	}
}
