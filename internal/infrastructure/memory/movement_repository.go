package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en memoria (solo inserción).
type MovementRepo struct {
	store *Store
	tx    *state
}

func (r *MovementRepo) Append(ctx context.Context, mov *entity.Movement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := inventory.ValidateMovement(mov); err != nil {
		return err
	}
	return write(r.store, r.tx, func(st *state) error {
		if _, ok := st.materials[mov.MaterialID]; !ok {
			return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrNotFound)
		}
		if mov.IdempotencyKey != "" {
			if _, dup := st.keys[mov.IdempotencyKey]; dup {
				return repository.ErrDuplicateIdempotencyKey
			}
			st.keys[mov.IdempotencyKey] = len(st.movements)
		}
		st.movements = append(st.movements, *mov)
		return nil
	})
}

func (r *MovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *entity.Movement
	read(r.store, r.tx, func(st *state) {
		if i, ok := st.keys[key]; ok {
			m := st.movements[i]
			out = &m
		}
	})
	return out, nil
}

// newestFirst ordena por logged_at desc e id desc.
func newestFirst(list []entity.Movement) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].LoggedAt.Equal(list[j].LoggedAt) {
			return list[i].LoggedAt.After(list[j].LoggedAt)
		}
		return list[i].ID > list[j].ID
	})
}

func (r *MovementRepo) ListRecent(ctx context.Context, limit int) ([]*entity.MovementWithMaterial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*entity.MovementWithMaterial, 0)
	read(r.store, r.tx, func(st *state) {
		list := append([]entity.Movement(nil), st.movements...)
		newestFirst(list)
		for _, m := range list {
			if len(out) >= limit {
				break
			}
			mat, ok := st.materials[m.MaterialID]
			if !ok {
				continue
			}
			out = append(out, &entity.MovementWithMaterial{
				Movement:         m,
				MaterialName:     mat.Name,
				MaterialCategory: mat.Category,
				MaterialUnit:     mat.Unit,
			})
		}
	})
	return out, nil
}

func (r *MovementRepo) ListByMaterial(ctx context.Context, materialID string, limit, offset int) ([]*entity.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var list []entity.Movement
	read(r.store, r.tx, func(st *state) {
		for _, m := range st.movements {
			if m.MaterialID == materialID {
				list = append(list, m)
			}
		}
	})
	newestFirst(list)
	out := make([]*entity.Movement, 0)
	for i := offset; i < len(list) && len(out) < limit; i++ {
		m := list[i]
		out = append(out, &m)
	}
	return out, nil
}

func (r *MovementRepo) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	read(r.store, r.tx, func(st *state) {
		for _, m := range st.movements {
			if !m.LoggedAt.Before(from) && m.LoggedAt.Before(to) {
				n++
			}
		}
	})
	return n, nil
}

func (r *MovementRepo) CountSince(ctx context.Context, from time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	read(r.store, r.tx, func(st *state) {
		for _, m := range st.movements {
			if !m.LoggedAt.Before(from) {
				n++
			}
		}
	})
	return n, nil
}

func (r *MovementRepo) ExistsForMaterial(ctx context.Context, materialID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	read(r.store, r.tx, func(st *state) {
		for _, m := range st.movements {
			if m.MaterialID == materialID {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *MovementRepo) SumByMaterial(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	read(r.store, r.tx, func(st *state) {
		for i := range st.movements {
			out[st.movements[i].MaterialID] += st.movements[i].Signed()
		}
	})
	return out, nil
}
