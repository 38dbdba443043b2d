package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func newMaterialUseCase(s *memory.Store) (*usecase.MaterialUseCase, *inventory.RecordMovementUseCase) {
	mutator := inventory.NewRecordMovementUseCase(s, nil, nil, "admin")
	return usecase.NewMaterialUseCase(s.Materials(), s.Movements(), s, mutator), mutator
}

func ptr[T any](v T) *T { return &v }

func TestMaterialCreate(t *testing.T) {
	uc, _ := newMaterialUseCase(memory.NewStore())
	ctx := context.Background()

	m, err := uc.Create(ctx, dto.CreateMaterialRequest{
		Name: " 生理食塩水 ", Category: "薬品", Unit: "bottle", InitialQuantity: 12, MinQuantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "生理食塩水", m.Name)
	assert.Equal(t, "drug", m.Category)
	assert.Equal(t, "薬品", m.CategoryLabel)
	assert.Equal(t, int64(12), m.CurrentQuantity)
	assert.Equal(t, int64(12), m.InitialQuantity)
	assert.False(t, m.IsShort)

	got, err := uc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}

func TestMaterialCreate_Validacion(t *testing.T) {
	uc, _ := newMaterialUseCase(memory.NewStore())
	ctx := context.Background()

	bad := []dto.CreateMaterialRequest{
		{Name: "", Category: "drug", Unit: "box"},
		{Name: "   ", Category: "drug", Unit: "box"},
		{Name: "x", Category: "food", Unit: "box"},
		{Name: "x", Category: "drug", Unit: "kg"},
		{Name: "x", Category: "drug", Unit: "box", InitialQuantity: -1},
		{Name: "x", Category: "drug", Unit: "box", MinQuantity: -3},
	}
	for i, in := range bad {
		_, err := uc.Create(ctx, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "caso %d", i)
	}
}

func TestMaterialList_OrdenYFiltro(t *testing.T) {
	uc, _ := newMaterialUseCase(memory.NewStore())
	ctx := context.Background()
	for _, in := range []dto.CreateMaterialRequest{
		{Name: "b-包帯", Category: "consumable", Unit: "box"},
		{Name: "a-AED", Category: "equipment", Unit: "set"},
		{Name: "c-ガーゼ", Category: "consumable", Unit: "pack"},
	} {
		_, err := uc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := uc.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	assert.Equal(t, "a-AED", all.Items[0].Name)
	assert.Equal(t, "c-ガーゼ", all.Items[2].Name)

	cons, err := uc.List(ctx, "消耗品")
	require.NoError(t, err)
	assert.Equal(t, 2, cons.Total)

	_, err = uc.List(ctx, "food")
	assert.ErrorIs(t, err, domain.ErrValidation)

	cats, err := uc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "equipment", cats[0].Category)
	assert.Equal(t, int64(2), cats[1].Count)
}

func TestMaterialUpdate_CantidadComoAjuste(t *testing.T) {
	s := memory.NewStore()
	uc, _ := newMaterialUseCase(s)
	ctx := context.Background()
	m, err := uc.Create(ctx, dto.CreateMaterialRequest{Name: "手袋", Category: "consumable", Unit: "box", InitialQuantity: 10, MinQuantity: 2})
	require.NoError(t, err)

	got, err := uc.Update(ctx, m.ID, dto.UpdateMaterialRequest{
		Name: ptr("ニトリル手袋"), MinQuantity: ptr(int64(8)), CurrentQuantity: ptr(int64(6)), LoggedBy: "鈴木",
	})
	require.NoError(t, err)
	assert.Equal(t, "ニトリル手袋", got.Name)
	assert.Equal(t, int64(6), got.CurrentQuantity)
	assert.True(t, got.IsShort)

	hist, err := uc.History(ctx, m.ID, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, string(entity.MovementTypeAdjustment), hist.Items[0].Type)
	assert.Equal(t, int64(-4), hist.Items[0].Quantity)
	assert.Equal(t, "鈴木", hist.Items[0].LoggedBy)

	sums, err := s.Movements().SumByMaterial(ctx)
	require.NoError(t, err)
	assert.Equal(t, got.InitialQuantity+sums[m.ID], got.CurrentQuantity)
}

func TestMaterialUpdate_ErroresNoEscribenNada(t *testing.T) {
	s := memory.NewStore()
	uc, _ := newMaterialUseCase(s)
	ctx := context.Background()
	m, err := uc.Create(ctx, dto.CreateMaterialRequest{Name: "手袋", Category: "consumable", Unit: "box", InitialQuantity: 10})
	require.NoError(t, err)

	_, err = uc.Update(ctx, m.ID, dto.UpdateMaterialRequest{Name: ptr("nuevo"), Category: ptr("food")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.Update(ctx, m.ID, dto.UpdateMaterialRequest{Name: ptr("  ")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.Update(ctx, "nope", dto.UpdateMaterialRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := uc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "手袋", got.Name)
}

func TestMaterialDelete(t *testing.T) {
	s := memory.NewStore()
	uc, mutator := newMaterialUseCase(s)
	ctx := context.Background()
	used, err := uc.Create(ctx, dto.CreateMaterialRequest{Name: "a", Category: "drug", Unit: "box", InitialQuantity: 5})
	require.NoError(t, err)
	unused, err := uc.Create(ctx, dto.CreateMaterialRequest{Name: "b", Category: "drug", Unit: "box"})
	require.NoError(t, err)

	_, err = mutator.RecordMovement(ctx, inventory.RecordMovementInput{
		MaterialID: used.ID, Type: entity.MovementTypeOut, Quantity: 1, LoggedBy: "x",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.Delete(ctx, used.ID), domain.ErrConflict)
	assert.NoError(t, uc.Delete(ctx, unused.ID))
	assert.ErrorIs(t, uc.Delete(ctx, unused.ID), domain.ErrNotFound)
	_, err = uc.Get(ctx, unused.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImportCSV_ShiftJIS(t *testing.T) {
	s := memory.NewStore()
	materials, _ := newMaterialUseCase(s)
	imp := usecase.NewImportUseCase(materials, s.Materials())
	ctx := context.Background()

	csvText := "品名,分類,単位,在庫数,最低数,備考\n" +
		"ガーゼ,消耗品,パック,１２,5,滅菌済み\n" +
		"AED,器材,セット,1,1,\n" +
		"不明,食品,個,1,1,\n" +
		"包帯,消耗品,箱,abc,1,\n"
	sjis, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), csvText)
	require.NoError(t, err)

	res, err := imp.ImportCSV(ctx, strings.NewReader(sjis), usecase.ImportOptions{Encoding: usecase.EncodingShiftJIS})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.Equal(t, 5, res.Errors[1].Row)

	list, err := materials.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "AED", list.Items[0].Name)
	assert.Equal(t, int64(12), list.Items[1].CurrentQuantity)
	assert.Equal(t, "pack", list.Items[1].Unit)

	// segunda pasada: los existentes se omiten
	res, err = imp.ImportCSV(ctx, strings.NewReader(sjis), usecase.ImportOptions{Encoding: "sjis", SkipExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Skipped)
}

func TestImportCSV_DryRunCuentaComoCargaReal(t *testing.T) {
	csvText := "name,category,unit,initial_quantity,min_quantity\n" +
		"ガーゼ,consumable,pack,3,1\n" +
		"ガーゼ,consumable,pack,4,1\n" +
		"AED,equipment,set,1,1\n"
	opts := usecase.ImportOptions{SkipExisting: true}
	ctx := context.Background()

	dry := memory.NewStore()
	dryMaterials, _ := newMaterialUseCase(dry)
	opts.DryRun = true
	dryRes, err := usecase.NewImportUseCase(dryMaterials, dry.Materials()).ImportCSV(ctx, strings.NewReader(csvText), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, dryRes.Created)
	assert.Equal(t, 1, dryRes.Skipped)

	list, err := dryMaterials.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	loaded := memory.NewStore()
	realMaterials, _ := newMaterialUseCase(loaded)
	opts.DryRun = false
	realRes, err := usecase.NewImportUseCase(realMaterials, loaded.Materials()).ImportCSV(ctx, strings.NewReader(csvText), opts)
	require.NoError(t, err)
	assert.Equal(t, dryRes.Created, realRes.Created)
	assert.Equal(t, dryRes.Skipped, realRes.Skipped)
}

func TestImportCSV_EncabezadoIncompleto(t *testing.T) {
	s := memory.NewStore()
	materials, _ := newMaterialUseCase(s)
	imp := usecase.NewImportUseCase(materials, s.Materials())

	_, err := imp.ImportCSV(context.Background(), strings.NewReader("name,unit\nx,box\n"), usecase.ImportOptions{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = imp.ImportCSV(context.Background(), strings.NewReader(""), usecase.ImportOptions{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = imp.ImportCSV(context.Background(), strings.NewReader("a"), usecase.ImportOptions{Encoding: "latin1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
