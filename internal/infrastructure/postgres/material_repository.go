package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

const materialColumns = `id, name, category, unit, current_quantity, min_quantity, initial_quantity,
	COALESCE(description, ''), created_at, updated_at`

// MaterialRepo implementación de MaterialRepository sobre PostgreSQL (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

func scanMaterial(row pgx.Row) (*entity.Material, error) {
	var m entity.Material
	var category, unit string
	if err := row.Scan(&m.ID, &m.Name, &category, &unit, &m.CurrentQuantity, &m.MinQuantity,
		&m.InitialQuantity, &m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Category = entity.Category(category)
	m.Unit = entity.Unit(unit)
	return &m, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create persiste un material nuevo.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (id, name, category, unit, current_quantity, min_quantity, initial_quantity, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Name, string(m.Category), string(m.Unit), m.CurrentQuantity, m.MinQuantity,
		m.InitialQuantity, nullableText(m.Description), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		if isCheckViolation(err) {
			return domain.NewValidationError("", "restricción de materiales violada")
		}
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// GetByID obtiene un material por ID; (nil, nil) si no existe.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

// GetForUpdate obtiene el material y bloquea la fila (SELECT FOR UPDATE).
func (r *MaterialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material for update: %w", err)
	}
	return m, nil
}

// Update guarda los campos descriptivos. current_quantity solo cambia vía ApplyDelta.
func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	query := `
		UPDATE materials SET name = $2, category = $3, unit = $4, min_quantity = $5, description = $6, updated_at = $7
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		m.ID, m.Name, string(m.Category), string(m.Unit), m.MinQuantity, nullableText(m.Description), m.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.NewValidationError("", "restricción de materiales violada")
		}
		return fmt.Errorf("update material: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyDelta hace la actualización condicional en el servidor:
// current_quantity = current_quantity + delta solo si el resultado es >= 0.
func (r *MaterialRepo) ApplyDelta(ctx context.Context, id string, delta int64) (int64, error) {
	query := `
		UPDATE materials
		SET current_quantity = current_quantity + $2, updated_at = now()
		WHERE id = $1 AND current_quantity + $2 >= 0
		RETURNING current_quantity`
	var next int64
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exists, exErr := r.GetByID(ctx, id)
			if exErr != nil {
				return 0, exErr
			}
			if exists == nil {
				return 0, domain.ErrNotFound
			}
			return 0, domain.ErrInsufficientStock
		}
		return 0, fmt.Errorf("apply delta: %w", err)
	}
	return next, nil
}

// List lista materiales ordenados por nombre (y id para desempatar).
func (r *MaterialRepo) List(ctx context.Context, filter repository.MaterialFilter) ([]*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials`
	var args []any
	if filter.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Count devuelve el total de materiales registrados.
func (r *MaterialRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM materials`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count materials: %w", err)
	}
	return n, nil
}

// CountByCategory cuenta materiales por categoría (solo categorías en uso).
func (r *MaterialRepo) CountByCategory(ctx context.Context) (map[entity.Category]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT category, COUNT(*) FROM materials GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()
	out := make(map[entity.Category]int64)
	for rows.Next() {
		var c string
		var n int64
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out[entity.Category(c)] = n
	}
	return out, rows.Err()
}

// ListBelowMinimum devuelve los materiales con current_quantity < min_quantity.
// La cobertura se calcula como NUMERIC y se lee con el codec de shopspring/decimal.
func (r *MaterialRepo) ListBelowMinimum(ctx context.Context) ([]inventory.ShortageItem, error) {
	query := `
		SELECT ` + materialColumns + `,
			min_quantity - current_quantity AS shortage_quantity,
			ROUND(current_quantity * 100.0 / min_quantity, 2) AS coverage_pct
		FROM materials
		WHERE current_quantity < min_quantity
		ORDER BY shortage_quantity DESC, name ASC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list below minimum: %w", err)
	}
	defer rows.Close()
	list := make([]inventory.ShortageItem, 0)
	for rows.Next() {
		var item inventory.ShortageItem
		var category, unit string
		m := &item.Material
		if err := rows.Scan(&m.ID, &m.Name, &category, &unit, &m.CurrentQuantity, &m.MinQuantity,
			&m.InitialQuantity, &m.Description, &m.CreatedAt, &m.UpdatedAt,
			&item.ShortageQuantity, &item.CoveragePct); err != nil {
			return nil, fmt.Errorf("scan shortage: %w", err)
		}
		m.Category = entity.Category(category)
		m.Unit = entity.Unit(unit)
		list = append(list, item)
	}
	return list, rows.Err()
}

// LedgerSnapshot lee materiales y sumas del libro en una única sentencia, así un
// movimiento que confirme en medio no aparece en un lado y no en el otro.
func (r *MaterialRepo) LedgerSnapshot(ctx context.Context) ([]*entity.Material, map[string]int64, error) {
	query := `
		SELECT ` + materialColumns + `,
			COALESCE(l.ledger_sum, 0)::BIGINT
		FROM materials
		LEFT JOIN (
			SELECT material_id,
				SUM(CASE WHEN type = 'out' THEN -quantity ELSE quantity END) AS ledger_sum
			FROM movements
			GROUP BY material_id
		) l ON l.material_id = materials.id
		ORDER BY name ASC, id ASC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger snapshot: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Material, 0)
	sums := make(map[string]int64)
	for rows.Next() {
		var m entity.Material
		var category, unit string
		var sum int64
		if err := rows.Scan(&m.ID, &m.Name, &category, &unit, &m.CurrentQuantity, &m.MinQuantity,
			&m.InitialQuantity, &m.Description, &m.CreatedAt, &m.UpdatedAt, &sum); err != nil {
			return nil, nil, fmt.Errorf("scan ledger snapshot: %w", err)
		}
		m.Category = entity.Category(category)
		m.Unit = entity.Unit(unit)
		list = append(list, &m)
		sums[m.ID] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return list, sums, nil
}

// Delete elimina un material. Si tiene movimientos la FK (RESTRICT) lo impide: ErrConflict.
func (r *MaterialRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("delete material: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
