package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MaterialUseCase registro de materiales. current_quantity no se edita aquí
// directamente: un cambio pasa por el motor de stock como movimiento adjustment.
type MaterialUseCase struct {
	materials repository.MaterialRepository
	movements repository.MovementRepository
	txRunner  inventory.TxRunner
	mutator   *inventory.RecordMovementUseCase
	now       func() time.Time
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(
	materials repository.MaterialRepository,
	movements repository.MovementRepository,
	txRunner inventory.TxRunner,
	mutator *inventory.RecordMovementUseCase,
) *MaterialUseCase {
	return &MaterialUseCase{
		materials: materials,
		movements: movements,
		txRunner:  txRunner,
		mutator:   mutator,
		now:       time.Now,
	}
}

// Create registra un material. InitialQuantity y CurrentQuantity arrancan iguales.
func (uc *MaterialUseCase) Create(ctx context.Context, in dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "es requerido")
	}
	category, _ := entity.ParseCategory(in.Category)
	unit, _ := entity.ParseUnit(in.Unit)

	now := uc.now().UTC()
	m := &entity.Material{
		ID:              uuid.New().String(),
		Name:            name,
		Category:        category,
		Unit:            unit,
		CurrentQuantity: in.InitialQuantity,
		InitialQuantity: in.InitialQuantity,
		MinQuantity:     in.MinQuantity,
		Description:     strings.TrimSpace(in.Description),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.materials.Create(ctx, m); err != nil {
		return nil, domain.WrapPersistence("create material", err)
	}
	return dto.NewMaterialResponse(m), nil
}

// Get obtiene un material por ID.
func (uc *MaterialUseCase) Get(ctx context.Context, id string) (*dto.MaterialResponse, error) {
	m, err := uc.materials.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapPersistence("get material", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return dto.NewMaterialResponse(m), nil
}

// List lista materiales por nombre; category vacía = todas.
func (uc *MaterialUseCase) List(ctx context.Context, category string) (*dto.MaterialListResponse, error) {
	var filter repository.MaterialFilter
	if strings.TrimSpace(category) != "" {
		c, ok := entity.ParseCategory(category)
		if !ok {
			return nil, domain.NewValidationError("category", "categoría no reconocida")
		}
		filter.Category = c
	}
	list, err := uc.materials.List(ctx, filter)
	if err != nil {
		return nil, domain.WrapPersistence("list materials", err)
	}
	items := make([]dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *dto.NewMaterialResponse(m))
	}
	return &dto.MaterialListResponse{Items: items, Total: len(items)}, nil
}

// Categories devuelve las categorías en uso, en el orden de entity.Categories.
func (uc *MaterialUseCase) Categories(ctx context.Context) ([]dto.CategorySummary, error) {
	counts, err := uc.materials.CountByCategory(ctx)
	if err != nil {
		return nil, domain.WrapPersistence("count categories", err)
	}
	out := make([]dto.CategorySummary, 0, len(counts))
	for _, c := range entity.Categories {
		if n := counts[c]; n > 0 {
			out = append(out, dto.CategorySummary{Category: string(c), Label: c.Label(), Count: n})
		}
	}
	return out, nil
}

// Update edita los campos enviados. Si llega current_quantity, el delta se registra
// como movimiento adjustment en la misma transacción que el resto de la edición.
func (uc *MaterialUseCase) Update(ctx context.Context, id string, in dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	var out *entity.Material
	err := uc.txRunner.Run(ctx, func(
		materials repository.MaterialRepository,
		movements repository.MovementRepository,
	) error {
		m, err := materials.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.ErrNotFound
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.NewValidationError("name", "es requerido")
			}
			m.Name = name
		}
		if in.Category != nil {
			c, ok := entity.ParseCategory(*in.Category)
			if !ok {
				return domain.NewValidationError("category", "categoría no reconocida")
			}
			m.Category = c
		}
		if in.Unit != nil {
			u, ok := entity.ParseUnit(*in.Unit)
			if !ok {
				return domain.NewValidationError("unit", "unidad no reconocida")
			}
			m.Unit = u
		}
		if in.MinQuantity != nil {
			m.MinQuantity = *in.MinQuantity
		}
		if in.Description != nil {
			m.Description = strings.TrimSpace(*in.Description)
		}
		m.UpdatedAt = uc.now().UTC()
		if err := materials.Update(ctx, m); err != nil {
			return err
		}
		if in.CurrentQuantity != nil {
			_, updated, err := uc.mutator.AdjustInTx(ctx, materials, movements, m, *in.CurrentQuantity, in.Note, in.LoggedBy)
			if err != nil {
				return err
			}
			m.CurrentQuantity = updated
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, domain.WrapPersistence("update material", err)
	}
	return dto.NewMaterialResponse(out), nil
}

// Delete elimina el material. Con movimientos registrados devuelve ErrConflict:
// borrarlo dejaría entradas del libro sin material.
func (uc *MaterialUseCase) Delete(ctx context.Context, id string) error {
	err := uc.txRunner.Run(ctx, func(
		materials repository.MaterialRepository,
		movements repository.MovementRepository,
	) error {
		m, err := materials.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.ErrNotFound
		}
		used, err := movements.ExistsForMaterial(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return domain.ErrConflict
		}
		return materials.Delete(ctx, id)
	})
	return domain.WrapPersistence("delete material", err)
}

// History movimientos de un material, del más reciente al más antiguo.
func (uc *MaterialUseCase) History(ctx context.Context, id string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	if err := dto.Validate(page); err != nil {
		return nil, err
	}
	page.DefaultPage()
	m, err := uc.materials.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapPersistence("get material", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.movements.ListByMaterial(ctx, id, page.Limit, page.Offset)
	if err != nil {
		return nil, domain.WrapPersistence("list movements", err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, mov := range list {
		items = append(items, *dto.NewMovementResponse(mov))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}
