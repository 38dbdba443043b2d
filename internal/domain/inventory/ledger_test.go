package inventory_test

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func TestValidateMovement(t *testing.T) {
	ok := entity.Movement{MaterialID: "m1", Type: entity.MovementTypeIn, Quantity: 1, LoggedBy: "x"}
	require.NoError(t, inventory.ValidateMovement(&ok))

	adj := ok
	adj.Type, adj.Quantity = entity.MovementTypeAdjustment, -4
	require.NoError(t, inventory.ValidateMovement(&adj))

	bad := []func(m *entity.Movement){
		func(m *entity.Movement) { m.MaterialID = " " },
		func(m *entity.Movement) { m.Quantity = 0 },
		func(m *entity.Movement) { m.Type = entity.MovementTypeOut; m.Quantity = -1 },
		func(m *entity.Movement) { m.Type = entity.MovementTypeAdjustment; m.Quantity = 0 },
		func(m *entity.Movement) { m.Type = "transfer" },
		func(m *entity.Movement) { m.LoggedBy = "" },
		func(m *entity.Movement) { m.IdempotencyKey = strings.Repeat("k", inventory.MaxIdempotencyKeyLength+1) },
	}
	for i, mutate := range bad {
		m := ok
		mutate(&m)
		err := inventory.ValidateMovement(&m)
		assert.ErrorIs(t, err, domain.ErrValidation, "caso %d", i)
	}
}

func TestApply(t *testing.T) {
	next, err := inventory.Apply(10, &entity.Movement{Type: entity.MovementTypeOut, Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)

	next, err = inventory.Apply(3, &entity.Movement{Type: entity.MovementTypeIn, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(13), next)

	next, err = inventory.Apply(3, &entity.Movement{MaterialID: "m1", Type: entity.MovementTypeOut, Quantity: 5})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), next)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, int64(3), ise.Current)
	assert.Equal(t, int64(5), ise.Requested)

	_, err = inventory.Apply(2, &entity.Movement{Type: entity.MovementTypeAdjustment, Quantity: -3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApply_ReposicionSinDesbordar(t *testing.T) {
	next, err := inventory.Apply(1, &entity.Movement{Type: entity.MovementTypeIn, Quantity: math.MaxInt64 - 1})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), next)

	next, err = inventory.Apply(1, &entity.Movement{MaterialID: "m1", Type: entity.MovementTypeIn, Quantity: math.MaxInt64})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(1), next)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "quantity", ve.Field)

	_, err = inventory.Apply(math.MaxInt64, &entity.Movement{Type: entity.MovementTypeAdjustment, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSameRequest(t *testing.T) {
	a := &entity.Movement{MaterialID: "m1", Type: entity.MovementTypeOut, Quantity: 2, Note: "a"}
	b := &entity.Movement{MaterialID: "m1", Type: entity.MovementTypeOut, Quantity: 2, Note: "b"}
	assert.True(t, inventory.SameRequest(a, b))
	b.Quantity = 3
	assert.False(t, inventory.SameRequest(a, b))
}

func TestDayBounds_SeparaMedianocheLocal(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 23:59:59 y 00:00:01 hora de Tokio, expresados en UTC y en Nueva York.
	before := time.Date(2024, 3, 9, 23, 59, 59, 0, tokyo)
	after := time.Date(2024, 3, 10, 0, 0, 1, 0, tokyo)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	for _, server := range []*time.Location{time.UTC, ny, tokyo} {
		s1, e1 := inventory.DayBounds(before.In(server), tokyo)
		s2, e2 := inventory.DayBounds(after.In(server), tokyo)

		assert.True(t, e1.Equal(s2), "el fin del día anterior es el inicio del siguiente")
		assert.False(t, s1.Equal(s2))
		assert.True(t, !before.Before(s1) && before.Before(e1))
		assert.True(t, !after.Before(s2) && after.Before(e2))
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, tokyo).Unix(), s2.Unix())
		assert.Equal(t, 24*time.Hour, e2.Sub(s2))
	}
}

func TestDayBounds_CambioDeHorario(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start, end := inventory.DayBounds(time.Date(2024, 3, 10, 12, 0, 0, 0, ny), ny)
	assert.Equal(t, 23*time.Hour, end.Sub(start))
}

func TestLoadLocation(t *testing.T) {
	loc, err := inventory.LoadLocation("", "Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())

	_, err = inventory.LoadLocation("Mars/Olympus", "Asia/Tokyo")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
