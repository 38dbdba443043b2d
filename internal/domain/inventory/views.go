package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ShortageItem material bajo mínimo con la cantidad faltante.
type ShortageItem struct {
	Material         entity.Material
	ShortageQuantity int64
	CoveragePct      decimal.Decimal // current*100/min, 2 decimales
}

// Coverage devuelve el porcentaje de cobertura del mínimo.
func Coverage(current, min int64) decimal.Decimal {
	if min <= 0 {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(current).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(min)).
		Round(2)
}

// Shortages filtra los materiales con current < min, ordenados por faltante desc y nombre.
func Shortages(materials []*entity.Material) []ShortageItem {
	out := make([]ShortageItem, 0)
	for _, m := range materials {
		if !m.IsShort() {
			continue
		}
		out = append(out, ShortageItem{
			Material:         *m,
			ShortageQuantity: m.Shortage(),
			CoveragePct:      Coverage(m.CurrentQuantity, m.MinQuantity),
		})
	}
	SortShortages(out)
	return out
}

// SortShortages aplica el orden del listado de faltantes.
func SortShortages(items []ShortageItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ShortageQuantity != b.ShortageQuantity {
			return a.ShortageQuantity > b.ShortageQuantity
		}
		return a.Material.Name < b.Material.Name
	})
}

// LedgerDiscrepancy material cuyo saldo no coincide con inicial + Σ movimientos.
type LedgerDiscrepancy struct {
	MaterialID      string
	MaterialName    string
	InitialQuantity int64
	LedgerSum       int64
	Expected        int64
	CurrentQuantity int64
}

// Reconcile compara cada material con la suma con signo de su libro.
func Reconcile(materials []*entity.Material, sums map[string]int64) []LedgerDiscrepancy {
	out := make([]LedgerDiscrepancy, 0)
	for _, m := range materials {
		sum := sums[m.ID]
		expected := m.InitialQuantity + sum
		if expected == m.CurrentQuantity {
			continue
		}
		out = append(out, LedgerDiscrepancy{
			MaterialID:      m.ID,
			MaterialName:    m.Name,
			InitialQuantity: m.InitialQuantity,
			LedgerSum:       sum,
			Expected:        expected,
			CurrentQuantity: m.CurrentQuantity,
		})
	}
	return out
}
