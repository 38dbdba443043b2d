package entity

import "time"

// MovementType tipo de movimiento del libro de inventario.
type MovementType string

const (
	MovementTypeIn         MovementType = "in"         // 補充 (reposición)
	MovementTypeOut        MovementType = "out"        // 使用 (consumo)
	MovementTypeAdjustment MovementType = "adjustment" // corrección administrativa
)

// Valid indica si el tipo es reconocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment:
		return true
	}
	return false
}

// Movement es una entrada inmutable del libro. Para in/out Quantity es
// estrictamente positiva; para adjustment es el delta con signo (distinto de cero).
type Movement struct {
	ID             string
	MaterialID     string
	Type           MovementType
	Quantity       int64
	Note           string
	LoggedBy       string
	LoggedAt       time.Time
	IdempotencyKey string
	QuantityAfter  int64
}

// Signed devuelve el efecto del movimiento sobre current_quantity.
func (m *Movement) Signed() int64 {
	switch m.Type {
	case MovementTypeIn:
		return m.Quantity
	case MovementTypeOut:
		return -m.Quantity
	default:
		return m.Quantity
	}
}

// MovementWithMaterial es un movimiento con los datos del material leídos al consultar
// (no se copian al escribir: si el material se renombra, el historial muestra el nombre nuevo).
type MovementWithMaterial struct {
	Movement
	MaterialName     string
	MaterialCategory Category
	MaterialUnit     Unit
}
