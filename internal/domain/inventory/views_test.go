package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func TestShortages_MembresiaYOrden(t *testing.T) {
	list := []*entity.Material{
		{ID: "1", Name: "包帯", CurrentQuantity: 3, MinQuantity: 5},
		{ID: "2", Name: "ガーゼ", CurrentQuantity: 0, MinQuantity: 10},
		{ID: "3", Name: "注射器", CurrentQuantity: 5, MinQuantity: 5},
		{ID: "4", Name: "アルコール", CurrentQuantity: 1, MinQuantity: 3},
		{ID: "5", Name: "手袋", CurrentQuantity: 0, MinQuantity: 0},
	}
	items := inventory.Shortages(list)
	require.Len(t, items, 3)

	assert.Equal(t, "2", items[0].Material.ID)
	assert.Equal(t, int64(10), items[0].ShortageQuantity)
	// empate en faltante (2): orden por nombre
	assert.Equal(t, "アルコール", items[1].Material.Name)
	assert.Equal(t, "包帯", items[2].Material.Name)
	assert.Equal(t, "60", items[2].CoveragePct.String())
}

func TestCoverage(t *testing.T) {
	assert.Equal(t, "33.33", inventory.Coverage(1, 3).String())
	assert.Equal(t, "100", inventory.Coverage(4, 0).String())
	assert.Equal(t, "0", inventory.Coverage(0, 7).String())
}

func TestReconcile(t *testing.T) {
	list := []*entity.Material{
		{ID: "a", Name: "ok", InitialQuantity: 5, CurrentQuantity: 8},
		{ID: "b", Name: "roto", InitialQuantity: 5, CurrentQuantity: 1},
	}
	out := inventory.Reconcile(list, map[string]int64{"a": 3, "b": -2})
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].MaterialID)
	assert.Equal(t, int64(3), out[0].Expected)
	assert.Equal(t, int64(1), out[0].CurrentQuantity)
}
