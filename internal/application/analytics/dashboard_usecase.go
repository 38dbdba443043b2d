// Package analytics contiene las vistas derivadas del libro de stock: faltantes,
// conteo diario de movimientos, actividad reciente, resumen y reconciliación.
// Todo se recalcula en cada lectura; no hay caché.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
	defaultTimezone    = "Asia/Tokyo"
)

// ErrReportUnavailable se devuelve si no hay generador de PDF configurado.
var ErrReportUnavailable = errors.New("generador de reportes no configurado")

// ShortageReport datos del reporte imprimible de faltantes.
type ShortageReport struct {
	GeneratedAt time.Time
	Timezone    string
	Items       []dto.ShortageItemDTO
}

// ShortageReportRenderer genera el documento del reporte (PDF).
type ShortageReportRenderer interface {
	RenderShortageReport(ctx context.Context, report ShortageReport) ([]byte, error)
}

// DashboardConfig valores por defecto de las vistas.
type DashboardConfig struct {
	Timezone    string // zona del día civil, por defecto Asia/Tokyo
	RecentLimit int    // tamaño del feed de actividad, por defecto 10
}

// DashboardUseCase vistas derivadas (solo lectura).
type DashboardUseCase struct {
	materials repository.MaterialRepository
	movements repository.MovementRepository
	renderer  ShortageReportRenderer
	cfg       DashboardConfig
	now       func() time.Time
}

// NewDashboardUseCase construye el caso de uso. renderer puede ser nil.
func NewDashboardUseCase(
	materials repository.MaterialRepository,
	movements repository.MovementRepository,
	renderer ShortageReportRenderer,
	cfg DashboardConfig,
) *DashboardUseCase {
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.RecentLimit <= 0 || cfg.RecentLimit > maxRecentLimit {
		cfg.RecentLimit = defaultRecentLimit
	}
	return &DashboardUseCase{
		materials: materials,
		movements: movements,
		renderer:  renderer,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (para calcular "hoy").
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetShortageList materiales con current < min, por faltante desc y nombre.
func (uc *DashboardUseCase) GetShortageList(ctx context.Context) ([]dto.ShortageItemDTO, error) {
	items, err := uc.materials.ListBelowMinimum(ctx)
	if err != nil {
		return nil, domain.WrapPersistence("list shortages", err)
	}
	out := make([]dto.ShortageItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.NewShortageItemDTO(it))
	}
	return out, nil
}

// GetDailyMovementCount cuenta los movimientos del día civil actual en timezone
// (vacío = zona configurada).
func (uc *DashboardUseCase) GetDailyMovementCount(ctx context.Context, timezone string) (*dto.DailyCountResponse, error) {
	loc, err := inventory.LoadLocation(timezone, uc.cfg.Timezone)
	if err != nil {
		return nil, err
	}
	start, end := inventory.DayBounds(uc.now(), loc)
	n, err := uc.movements.CountBetween(ctx, start, end)
	if err != nil {
		return nil, domain.WrapPersistence("count movements", err)
	}
	return &dto.DailyCountResponse{
		Date:     start.Format("2006-01-02"),
		Timezone: loc.String(),
		From:     start,
		To:       end,
		Count:    n,
	}, nil
}

// GetRecentMovements últimos movimientos con los datos actuales del material.
// limit <= 0 usa el valor configurado; el máximo es 100.
func (uc *DashboardUseCase) GetRecentMovements(ctx context.Context, limit int) ([]dto.RecentMovementDTO, error) {
	if limit <= 0 {
		limit = uc.cfg.RecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	list, err := uc.movements.ListRecent(ctx, limit)
	if err != nil {
		return nil, domain.WrapPersistence("list recent movements", err)
	}
	out := make([]dto.RecentMovementDTO, 0, len(list))
	for _, m := range list {
		out = append(out, dto.NewRecentMovementDTO(m))
	}
	return out, nil
}

// GetSummary resumen del tablero. Las cuatro consultas corren en paralelo.
func (uc *DashboardUseCase) GetSummary(ctx context.Context, timezone string) (*dto.DashboardSummaryDTO, error) {
	loc, err := inventory.LoadLocation(timezone, uc.cfg.Timezone)
	if err != nil {
		return nil, err
	}

	type countResult struct {
		n   int64
		err error
	}
	type shortageResult struct {
		items []inventory.ShortageItem
		err   error
	}
	type recentResult struct {
		items []dto.RecentMovementDTO
		err   error
	}
	type dailyResult struct {
		resp *dto.DailyCountResponse
		err  error
	}

	totalCh := make(chan countResult, 1)
	shortCh := make(chan shortageResult, 1)
	dailyCh := make(chan dailyResult, 1)
	recentCh := make(chan recentResult, 1)

	go func() {
		n, err := uc.materials.Count(ctx)
		totalCh <- countResult{n, err}
	}()
	go func() {
		items, err := uc.materials.ListBelowMinimum(ctx)
		shortCh <- shortageResult{items, err}
	}()
	go func() {
		resp, err := uc.GetDailyMovementCount(ctx, loc.String())
		dailyCh <- dailyResult{resp, err}
	}()
	go func() {
		items, err := uc.GetRecentMovements(ctx, uc.cfg.RecentLimit)
		recentCh <- recentResult{items, err}
	}()

	total := <-totalCh
	short := <-shortCh
	daily := <-dailyCh
	recent := <-recentCh

	if total.err != nil {
		return nil, domain.WrapPersistence("dashboard: total de materiales", total.err)
	}
	if short.err != nil {
		return nil, domain.WrapPersistence("dashboard: faltantes", short.err)
	}
	if daily.err != nil {
		return nil, daily.err
	}
	if recent.err != nil {
		return nil, recent.err
	}

	return &dto.DashboardSummaryDTO{
		TotalMaterials:     total.n,
		LowStockCount:      len(short.items),
		TodayMovementCount: daily.resp.Count,
		Date:               daily.resp.Date,
		Timezone:           daily.resp.Timezone,
		RecentMovements:    recent.items,
	}, nil
}

// GetReconciliation compara cada material con initial + Σ movimientos con signo,
// leyendo ambos lados de la misma instantánea.
func (uc *DashboardUseCase) GetReconciliation(ctx context.Context) (*dto.ReconciliationResponse, error) {
	list, sums, err := uc.materials.LedgerSnapshot(ctx)
	if err != nil {
		return nil, domain.WrapPersistence("ledger snapshot", err)
	}
	diffs := inventory.Reconcile(list, sums)
	out := &dto.ReconciliationResponse{
		Checked:       len(list),
		Consistent:    len(diffs) == 0,
		Discrepancies: make([]dto.DiscrepancyDTO, 0, len(diffs)),
	}
	for _, d := range diffs {
		out.Discrepancies = append(out.Discrepancies, dto.DiscrepancyDTO{
			MaterialID:      d.MaterialID,
			MaterialName:    d.MaterialName,
			InitialQuantity: d.InitialQuantity,
			LedgerSum:       d.LedgerSum,
			Expected:        d.Expected,
			CurrentQuantity: d.CurrentQuantity,
		})
	}
	return out, nil
}

// ShortageReportPDF genera la hoja de reposición imprimible.
func (uc *DashboardUseCase) ShortageReportPDF(ctx context.Context, timezone string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, ErrReportUnavailable
	}
	loc, err := inventory.LoadLocation(timezone, uc.cfg.Timezone)
	if err != nil {
		return nil, err
	}
	items, err := uc.GetShortageList(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := uc.renderer.RenderShortageReport(ctx, ShortageReport{
		GeneratedAt: uc.now().In(loc),
		Timezone:    loc.String(),
		Items:       items,
	})
	if err != nil {
		return nil, fmt.Errorf("reporte de faltantes: %w", err)
	}
	return doc, nil
}
