// Package pdf genera la hoja de reposición (materiales bajo mínimo) con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de emisión (zona del inventario)    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Material | Categoría | Actual | Mínimo | Falta | %   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: total de ítems + casilla de firma                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 178, Green: 34, Blue: 34}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorShade   = &props.Color{Red: 245, Green: 245, Blue: 245}
)

const japaneseFamily = "jp"

var _ analytics.ShortageReportRenderer = (*ShortageReportGenerator)(nil)

// ShortageReportGenerator implementa analytics.ShortageReportRenderer.
// Sin fuente TTF las etiquetas salen como códigos: Helvetica no tiene glifos CJK.
type ShortageReportGenerator struct {
	fonts  []*entity.CustomFont
	family string
}

// NewShortageReportGenerator construye el generador. fontPath es opcional (TTF con CJK).
func NewShortageReportGenerator(fontPath string) (*ShortageReportGenerator, error) {
	g := &ShortageReportGenerator{family: "helvetica"}
	if fontPath == "" {
		return g, nil
	}
	fonts, err := repository.New().
		AddUTF8Font(japaneseFamily, fontstyle.Normal, fontPath).
		AddUTF8Font(japaneseFamily, fontstyle.Bold, fontPath).
		Load()
	if err != nil {
		return nil, fmt.Errorf("pdf: cargar fuente %s: %w", fontPath, err)
	}
	g.fonts = fonts
	g.family = japaneseFamily
	return g, nil
}

func (g *ShortageReportGenerator) japanese() bool { return g.family == japaneseFamily }

// RenderShortageReport genera el PDF y devuelve sus bytes.
func (g *ShortageReportGenerator) RenderShortageReport(_ context.Context, report analytics.ShortageReport) ([]byte, error) {
	b := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: g.family, Size: 9}).
		WithTitle("Shortage report", true)
	if len(g.fonts) > 0 {
		b = b.WithCustomFonts(g.fonts)
	}
	m := maroto.New(b.Build())

	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(g.tableHeaderRow())
	if len(report.Items) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New(g.label("不足している資材はありません", "No materials below minimum"), props.Text{
				Size: 9, Align: align.Center, Top: 3, Color: colorGray,
			}),
		)))
	}
	for i, it := range report.Items {
		m.AddRows(g.itemRow(i, it))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.footerRow(len(report.Items)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *ShortageReportGenerator) headerRow(report analytics.ShortageReport) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(g.label("資材補充リスト", "SHORTAGE REPORT"), props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
			text.New(g.label("最低在庫数を下回っている資材", "Materials below minimum quantity"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(report.GeneratedAt.Format("2006-01-02 15:04"), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 2,
			}),
			text.New(report.Timezone, props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func (g *ShortageReportGenerator) tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h(g.label("資材名", "Material"), 4, align.Left),
		h(g.label("分類", "Category"), 2, align.Left),
		h(g.label("現在", "Current"), 1, align.Right),
		h(g.label("最低", "Min"), 1, align.Right),
		h(g.label("不足", "Short"), 1, align.Right),
		h(g.label("充足率", "Coverage"), 2, align.Right),
		h(g.label("補充", "Done"), 1, align.Center),
	)
}

func (g *ShortageReportGenerator) itemRow(i int, it dto.ShortageItemDTO) core.Row {
	unit := it.Unit
	category := it.Category
	if g.japanese() {
		unit = it.UnitLabel
		category = it.CategoryLabel
	}
	qty := func(n int64) string { return strconv.FormatInt(n, 10) + " " + unit }
	cell := func(s string, size int, a align.Type, style fontstyle.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{
			Size: 8, Align: a, Top: 1.5, Left: 1, Right: 1, Style: style,
		}))
	}
	r := row.New(7).Add(
		cell(it.Name, 4, align.Left, fontstyle.Normal),
		cell(category, 2, align.Left, fontstyle.Normal),
		cell(qty(it.CurrentQuantity), 1, align.Right, fontstyle.Normal),
		cell(qty(it.MinQuantity), 1, align.Right, fontstyle.Normal),
		cell(qty(it.ShortageQuantity), 1, align.Right, fontstyle.Bold),
		cell(it.CoveragePct.StringFixed(1)+"%", 2, align.Right, fontstyle.Normal),
		cell("[  ]", 1, align.Center, fontstyle.Normal),
	)
	if i%2 == 1 {
		r.WithStyle(&props.Cell{BackgroundColor: colorShade})
	}
	return r
}

func (g *ShortageReportGenerator) footerRow(total int) core.Row {
	return row.New(14).Add(
		col.New(6).Add(text.New(
			fmt.Sprintf("%s: %d", g.label("対象資材数", "Items"), total),
			props.Text{Size: 9, Top: 3, Style: fontstyle.Bold},
		)),
		col.New(6).Add(text.New(
			g.label("確認者: ____________________", "Checked by: ____________________"),
			props.Text{Size: 9, Top: 3, Align: align.Right, Color: colorGray},
		)),
	)
}

// label elige el texto japonés si hay fuente que lo pueda dibujar.
func (g *ShortageReportGenerator) label(ja, fallback string) string {
	if g.japanese() {
		return ja
	}
	return fallback
}
