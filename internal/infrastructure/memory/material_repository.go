package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo catálogo de materiales en memoria.
type MaterialRepo struct {
	store *Store
	tx    *state
}

func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.CurrentQuantity < 0 || m.MinQuantity < 0 || m.InitialQuantity < 0 {
		return domain.NewValidationError("", "restricción de materiales violada")
	}
	return write(r.store, r.tx, func(st *state) error {
		if _, ok := st.materials[m.ID]; ok {
			return domain.ErrConflict
		}
		st.materials[m.ID] = *m
		return nil
	})
}

func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *entity.Material
	read(r.store, r.tx, func(st *state) {
		if m, ok := st.materials[id]; ok {
			out = &m
		}
	})
	return out, nil
}

// GetForUpdate dentro de Run el lock del Store ya serializa la transacción.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	return r.GetByID(ctx, id)
}

func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.MinQuantity < 0 {
		return domain.NewValidationError("", "restricción de materiales violada")
	}
	return write(r.store, r.tx, func(st *state) error {
		cur, ok := st.materials[m.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Name = m.Name
		cur.Category = m.Category
		cur.Unit = m.Unit
		cur.MinQuantity = m.MinQuantity
		cur.Description = m.Description
		cur.UpdatedAt = m.UpdatedAt
		st.materials[m.ID] = cur
		return nil
	})
}

func (r *MaterialRepo) ApplyDelta(ctx context.Context, id string, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var next int64
	err := write(r.store, r.tx, func(st *state) error {
		cur, ok := st.materials[id]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.CurrentQuantity+delta < 0 {
			return domain.ErrInsufficientStock
		}
		cur.CurrentQuantity += delta
		cur.UpdatedAt = time.Now().UTC()
		st.materials[id] = cur
		next = cur.CurrentQuantity
		return nil
	})
	return next, err
}

func (r *MaterialRepo) List(ctx context.Context, filter repository.MaterialFilter) ([]*entity.Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := make([]*entity.Material, 0)
	read(r.store, r.tx, func(st *state) {
		for _, m := range st.materials {
			if filter.Category != "" && m.Category != filter.Category {
				continue
			}
			m := m
			list = append(list, &m)
		}
	})
	sortByName(list)
	return list, nil
}

func sortByName(list []*entity.Material) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}

func (r *MaterialRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	read(r.store, r.tx, func(st *state) { n = int64(len(st.materials)) })
	return n, nil
}

func (r *MaterialRepo) CountByCategory(ctx context.Context) (map[entity.Category]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[entity.Category]int64)
	read(r.store, r.tx, func(st *state) {
		for _, m := range st.materials {
			out[m.Category]++
		}
	})
	return out, nil
}

func (r *MaterialRepo) ListBelowMinimum(ctx context.Context) ([]inventory.ShortageItem, error) {
	list, err := r.List(ctx, repository.MaterialFilter{})
	if err != nil {
		return nil, err
	}
	return inventory.Shortages(list), nil
}

// LedgerSnapshot lee materiales y libro bajo el mismo lock de lectura.
func (r *MaterialRepo) LedgerSnapshot(ctx context.Context) ([]*entity.Material, map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	list := make([]*entity.Material, 0)
	sums := make(map[string]int64)
	read(r.store, r.tx, func(st *state) {
		for _, m := range st.materials {
			m := m
			list = append(list, &m)
		}
		for i := range st.movements {
			sums[st.movements[i].MaterialID] += st.movements[i].Signed()
		}
	})
	sortByName(list)
	return list, sums, nil
}

// Delete se niega si algún movimiento referencia al material (como la FK RESTRICT).
func (r *MaterialRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return write(r.store, r.tx, func(st *state) error {
		if _, ok := st.materials[id]; !ok {
			return domain.ErrNotFound
		}
		for i := range st.movements {
			if st.movements[i].MaterialID == id {
				return domain.ErrConflict
			}
		}
		delete(st.materials, id)
		return nil
	})
}
