package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/stock-ledger/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del tablero.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve el resumen del tablero.
// GET /api/dashboard/summary?tz=Asia/Tokyo
//
// Respuesta: DashboardSummaryDTO (total_materials, low_stock_count,
// today_movement_count, recent_movements[10]). "Hoy" es el día civil en tz.
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.Context(), c.Query("tz"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
