package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// RecordMovementRequest body para POST /api/inventory/movements.
// La clave de idempotencia llega en el header Idempotency-Key.
type RecordMovementRequest struct {
	MaterialID string `json:"material_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=in out"`
	Quantity   int64  `json:"quantity" validate:"gt=0"`
	Note       string `json:"note,omitempty" validate:"max=500"`
	LoggedBy   string `json:"logged_by" validate:"required,max=100"`
}

// AdjustStockRequest body para POST /api/inventory/adjustments.
type AdjustStockRequest struct {
	MaterialID  string `json:"material_id" validate:"required"`
	NewQuantity *int64 `json:"new_quantity" validate:"required,min=0"`
	Note        string `json:"note,omitempty" validate:"max=500"`
	LoggedBy    string `json:"logged_by,omitempty" validate:"max=100"`
}

// MovementResponse entrada del libro.
type MovementResponse struct {
	ID             string    `json:"id"`
	MaterialID     string    `json:"material_id"`
	Type           string    `json:"type"`
	Quantity       int64     `json:"quantity"`
	QuantityAfter  int64     `json:"quantity_after"`
	Note           string    `json:"note,omitempty"`
	LoggedBy       string    `json:"logged_by"`
	LoggedAt       time.Time `json:"logged_at"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
}

// RecordMovementResponse respuesta del motor de stock.
type RecordMovementResponse struct {
	Movement        MovementResponse `json:"movement"`
	UpdatedQuantity int64            `json:"updated_quantity"`
	Replayed        bool             `json:"replayed"`
}

// AdjustStockResponse Movement es nil si la cantidad no cambió.
type AdjustStockResponse struct {
	Movement        *MovementResponse `json:"movement"`
	UpdatedQuantity int64             `json:"updated_quantity"`
}

// RecentMovementDTO movimiento con los datos actuales del material.
type RecentMovementDTO struct {
	MovementResponse
	MaterialName  string `json:"material_name"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	Unit          string `json:"unit"`
	UnitLabel     string `json:"unit_label"`
}

// MovementListResponse historial de un material.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// DailyCountResponse respuesta de GET /api/inventory/movements/daily-count.
type DailyCountResponse struct {
	Date     string    `json:"date"` // YYYY-MM-DD en Timezone
	Timezone string    `json:"timezone"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Count    int64     `json:"count"`
}

// ShortageItemDTO material bajo mínimo.
type ShortageItemDTO struct {
	MaterialID       string          `json:"material_id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	CategoryLabel    string          `json:"category_label"`
	Unit             string          `json:"unit"`
	UnitLabel        string          `json:"unit_label"`
	CurrentQuantity  int64           `json:"current_quantity"`
	MinQuantity      int64           `json:"min_quantity"`
	ShortageQuantity int64           `json:"shortage_quantity"`
	CoveragePct      decimal.Decimal `json:"coverage_pct"`
}

// DiscrepancyDTO material cuyo saldo no cuadra con el libro.
type DiscrepancyDTO struct {
	MaterialID      string `json:"material_id"`
	MaterialName    string `json:"material_name"`
	InitialQuantity int64  `json:"initial_quantity"`
	LedgerSum       int64  `json:"ledger_sum"`
	Expected        int64  `json:"expected"`
	CurrentQuantity int64  `json:"current_quantity"`
}

// ReconciliationResponse resultado de la verificación del libro.
type ReconciliationResponse struct {
	Checked       int              `json:"checked"`
	Consistent    bool             `json:"consistent"`
	Discrepancies []DiscrepancyDTO `json:"discrepancies"`
}

// NewMovementResponse convierte la entidad.
func NewMovementResponse(m *entity.Movement) *MovementResponse {
	if m == nil {
		return nil
	}
	return &MovementResponse{
		ID:             m.ID,
		MaterialID:     m.MaterialID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		QuantityAfter:  m.QuantityAfter,
		Note:           m.Note,
		LoggedBy:       m.LoggedBy,
		LoggedAt:       m.LoggedAt,
		IdempotencyKey: m.IdempotencyKey,
	}
}

// NewRecentMovementDTO convierte un movimiento con su material.
func NewRecentMovementDTO(m *entity.MovementWithMaterial) RecentMovementDTO {
	return RecentMovementDTO{
		MovementResponse: *NewMovementResponse(&m.Movement),
		MaterialName:     m.MaterialName,
		Category:         string(m.MaterialCategory),
		CategoryLabel:    m.MaterialCategory.Label(),
		Unit:             string(m.MaterialUnit),
		UnitLabel:        m.MaterialUnit.Label(),
	}
}

// NewShortageItemDTO convierte un ítem del listado de faltantes.
func NewShortageItemDTO(it inventory.ShortageItem) ShortageItemDTO {
	return ShortageItemDTO{
		MaterialID:       it.Material.ID,
		Name:             it.Material.Name,
		Category:         string(it.Material.Category),
		CategoryLabel:    it.Material.Category.Label(),
		Unit:             string(it.Material.Unit),
		UnitLabel:        it.Material.Unit.Label(),
		CurrentQuantity:  it.Material.CurrentQuantity,
		MinQuantity:      it.Material.MinQuantity,
		ShortageQuantity: it.ShortageQuantity,
		CoveragePct:      it.CoveragePct,
	}
}
