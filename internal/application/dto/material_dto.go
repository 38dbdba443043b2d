package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CreateMaterialRequest body para POST /api/materials.
// Category y Unit aceptan el código o la etiqueta japonesa.
type CreateMaterialRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	Category        string `json:"category" validate:"required,category"`
	Unit            string `json:"unit" validate:"required,unit"`
	InitialQuantity int64  `json:"initial_quantity" validate:"min=0"`
	MinQuantity     int64  `json:"min_quantity" validate:"min=0"`
	Description     string `json:"description,omitempty" validate:"max=2000"`
}

// UpdateMaterialRequest body para PUT /api/materials/:id (todos los campos opcionales).
// Un cambio de current_quantity se registra como movimiento adjustment a nombre de LoggedBy.
type UpdateMaterialRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Category        *string `json:"category,omitempty" validate:"omitempty,category"`
	Unit            *string `json:"unit,omitempty" validate:"omitempty,unit"`
	MinQuantity     *int64  `json:"min_quantity,omitempty" validate:"omitempty,min=0"`
	CurrentQuantity *int64  `json:"current_quantity,omitempty" validate:"omitempty,min=0"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	LoggedBy        string  `json:"logged_by,omitempty" validate:"max=100"`
	Note            string  `json:"note,omitempty" validate:"max=500"`
}

// MaterialResponse material en respuestas.
type MaterialResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	CategoryLabel   string    `json:"category_label"`
	Unit            string    `json:"unit"`
	UnitLabel       string    `json:"unit_label"`
	CurrentQuantity int64     `json:"current_quantity"`
	MinQuantity     int64     `json:"min_quantity"`
	InitialQuantity int64     `json:"initial_quantity"`
	IsShort         bool      `json:"is_short"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MaterialListResponse listado de materiales.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Total int                `json:"total"`
}

// CategorySummary categoría en uso y cuántos materiales tiene.
type CategorySummary struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Count    int64  `json:"count"`
}

// NewMaterialResponse convierte la entidad.
func NewMaterialResponse(m *entity.Material) *MaterialResponse {
	if m == nil {
		return nil
	}
	return &MaterialResponse{
		ID:              m.ID,
		Name:            m.Name,
		Category:        string(m.Category),
		CategoryLabel:   m.Category.Label(),
		Unit:            string(m.Unit),
		UnitLabel:       m.Unit.Label(),
		CurrentQuantity: m.CurrentQuantity,
		MinQuantity:     m.MinQuantity,
		InitialQuantity: m.InitialQuantity,
		IsShort:         m.IsShort(),
		Description:     m.Description,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
