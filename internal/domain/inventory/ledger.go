// Package inventory contiene las reglas puras del libro de stock: validación de
// movimientos, cálculo del nuevo saldo, límites del día civil y reconciliación.
package inventory

import (
	"math"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MaxIdempotencyKeyLength longitud máxima de la clave de idempotencia.
const MaxIdempotencyKeyLength = 255

// ValidateMovement revisa un movimiento antes de cualquier escritura.
func ValidateMovement(m *entity.Movement) error {
	if strings.TrimSpace(m.MaterialID) == "" {
		return domain.NewValidationError("material_id", "es requerido")
	}
	switch m.Type {
	case entity.MovementTypeIn, entity.MovementTypeOut:
		if m.Quantity <= 0 {
			return domain.NewValidationError("quantity", "debe ser mayor que cero")
		}
	case entity.MovementTypeAdjustment:
		if m.Quantity == 0 {
			return domain.NewValidationError("quantity", "un ajuste no puede ser cero")
		}
	default:
		return domain.NewValidationError("type", "no reconocido: "+string(m.Type))
	}
	if strings.TrimSpace(m.LoggedBy) == "" {
		return domain.NewValidationError("logged_by", "es requerido")
	}
	if len(m.IdempotencyKey) > MaxIdempotencyKeyLength {
		return domain.NewValidationError("idempotency_key", "demasiado larga")
	}
	return nil
}

// Apply calcula el saldo resultante de aplicar mov sobre current.
// Devuelve *domain.InsufficientStockError si el saldo quedaría negativo y un
// error de validación si superaría math.MaxInt64.
func Apply(current int64, mov *entity.Movement) (int64, error) {
	delta := mov.Signed()
	if delta > 0 && current > math.MaxInt64-delta {
		return current, domain.NewValidationError("quantity", "el saldo resultante excede el máximo admitido")
	}
	next := current + delta
	if next < 0 {
		requested := mov.Quantity
		if requested < 0 {
			requested = -requested
		}
		return current, &domain.InsufficientStockError{
			MaterialID: mov.MaterialID,
			Current:    current,
			Requested:  requested,
		}
	}
	return next, nil
}

// SameRequest indica si un movimiento ya registrado corresponde a los mismos
// parámetros de una petición repetida con la misma clave de idempotencia.
func SameRequest(stored, req *entity.Movement) bool {
	return stored.MaterialID == req.MaterialID &&
		stored.Type == req.Type &&
		stored.Quantity == req.Quantity
}

// DayBounds devuelve [inicio, fin) del día civil de now en loc, como instantes absolutos.
// La medianoche se calcula en loc (no en la zona del servidor), y el fin usa AddDate
// para que los días con cambio de horario duren lo que corresponde.
func DayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// LoadLocation resuelve la zona horaria; vacía usa def.
func LoadLocation(name, def string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		name = def
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, domain.NewValidationError("timezone", "desconocida: "+name)
	}
	return loc, nil
}
