package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `m.id, m.material_id, m.type, m.quantity, COALESCE(m.note, ''), m.logged_by, m.logged_at,
	COALESCE(m.idempotency_key, ''), m.quantity_after`

// MovementRepo implementación del libro de movimientos sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func scanMovement(row pgx.Row, extra ...any) (*entity.Movement, error) {
	var m entity.Movement
	var typ string
	dest := append([]any{&m.ID, &m.MaterialID, &typ, &m.Quantity, &m.Note, &m.LoggedBy, &m.LoggedAt,
		&m.IdempotencyKey, &m.QuantityAfter}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	return &m, nil
}

// Append inserta una entrada del libro.
func (r *MovementRepo) Append(ctx context.Context, mov *entity.Movement) error {
	query := `
		INSERT INTO movements (id, material_id, type, quantity, note, logged_by, logged_at, idempotency_key, quantity_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		mov.ID, mov.MaterialID, string(mov.Type), mov.Quantity, nullableText(mov.Note),
		mov.LoggedBy, mov.LoggedAt, nullableText(mov.IdempotencyKey), mov.QuantityAfter,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return repository.ErrDuplicateIdempotencyKey
		case isForeignKeyViolation(err):
			return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrNotFound)
		case isCheckViolation(err):
			return domain.NewValidationError("quantity", "restricción del libro violada")
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByIdempotencyKey busca el movimiento registrado con la clave; (nil, nil) si no hay.
func (r *MovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Movement, error) {
	mov, err := scanMovement(r.q.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM movements m WHERE m.idempotency_key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement by key: %w", err)
	}
	return mov, nil
}

// ListRecent devuelve los últimos movimientos con los datos actuales del material.
func (r *MovementRepo) ListRecent(ctx context.Context, limit int) ([]*entity.MovementWithMaterial, error) {
	query := `
		SELECT ` + movementColumns + `, mt.name, mt.category, mt.unit
		FROM movements m
		JOIN materials mt ON mt.id = m.material_id
		ORDER BY m.logged_at DESC, m.id DESC
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.MovementWithMaterial, 0, limit)
	for rows.Next() {
		var name, category, unit string
		mov, err := scanMovement(rows, &name, &category, &unit)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &entity.MovementWithMaterial{
			Movement:         *mov,
			MaterialName:     name,
			MaterialCategory: entity.Category(category),
			MaterialUnit:     entity.Unit(unit),
		})
	}
	return list, rows.Err()
}

// ListByMaterial historial de un material, del más reciente al más antiguo.
func (r *MovementRepo) ListByMaterial(ctx context.Context, materialID string, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		WHERE m.material_id = $1
		ORDER BY m.logged_at DESC, m.id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, materialID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements by material: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		mov, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, mov)
	}
	return list, rows.Err()
}

// CountBetween cuenta movimientos con logged_at en [from, to).
func (r *MovementRepo) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM movements WHERE logged_at >= $1 AND logged_at < $2`, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// CountSince cuenta movimientos con logged_at >= from.
func (r *MovementRepo) CountSince(ctx context.Context, from time.Time) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM movements WHERE logged_at >= $1`, from).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements since: %w", err)
	}
	return n, nil
}

// ExistsForMaterial indica si el material tiene al menos un movimiento.
func (r *MovementRepo) ExistsForMaterial(ctx context.Context, materialID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM movements WHERE material_id = $1)`, materialID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists movements: %w", err)
	}
	return exists, nil
}

// SumByMaterial suma con signo los movimientos de cada material.
func (r *MovementRepo) SumByMaterial(ctx context.Context) (map[string]int64, error) {
	query := `
		SELECT material_id,
			SUM(CASE WHEN type = 'out' THEN -quantity ELSE quantity END)::BIGINT
		FROM movements
		GROUP BY material_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var id string
		var sum int64
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, fmt.Errorf("scan movement sum: %w", err)
		}
		out[id] = sum
	}
	return out, rows.Err()
}
