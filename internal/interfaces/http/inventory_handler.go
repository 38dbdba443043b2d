package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// HeaderIdempotencyKey header opcional de POST /api/inventory/movements.
const HeaderIdempotencyKey = "Idempotency-Key"

// InventoryHandler maneja movimientos, ajustes y vistas derivadas del inventario.
type InventoryHandler struct {
	mutator   *inventory.RecordMovementUseCase
	dashboard *analytics.DashboardUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(mutator *inventory.RecordMovementUseCase, dashboard *analytics.DashboardUseCase) *InventoryHandler {
	return &InventoryHandler{mutator: mutator, dashboard: dashboard}
}

// RecordMovement godoc
// @Summary      Registrar reposición (in) o consumo (out)
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                     false  "clave para reintentos seguros"
// @Param        body             body    dto.RecordMovementRequest  true   "material_id, type, quantity, logged_by"
// @Success      201  {object}  dto.RecordMovementResponse
// @Success      200  {object}  dto.RecordMovementResponse  "repetición de una clave ya registrada"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	res, err := h.mutator.RecordMovement(c.Context(), inventory.RecordMovementInput{
		MaterialID:     in.MaterialID,
		Type:           entity.MovementType(in.Type),
		Quantity:       in.Quantity,
		Note:           in.Note,
		LoggedBy:       in.LoggedBy,
		IdempotencyKey: c.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.RecordMovementResponse{
		Movement:        *dto.NewMovementResponse(res.Movement),
		UpdatedQuantity: res.UpdatedQuantity,
		Replayed:        res.Replayed,
	})
}

// AdjustStock godoc
// @Summary      Corrección administrativa del saldo (movimiento adjustment)
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "material_id, new_quantity"
// @Success      200  {object}  dto.AdjustStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	res, err := h.mutator.AdjustStock(c.Context(), inventory.AdjustStockInput{
		MaterialID:  in.MaterialID,
		NewQuantity: *in.NewQuantity,
		Note:        in.Note,
		LoggedBy:    in.LoggedBy,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AdjustStockResponse{
		Movement:        dto.NewMovementResponse(res.Movement),
		UpdatedQuantity: res.UpdatedQuantity,
	})
}

// ListRecent godoc
// @Summary      Actividad reciente
// @Tags         inventory
// @Produce      json
// @Param        limit  query  int  false  "por defecto 10, máximo 100"
// @Success      200  {array}  dto.RecentMovementDTO
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListRecent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return writeError(c, domain.NewValidationError("limit", "no puede ser negativo"))
	}
	list, err := h.dashboard.GetRecentMovements(c.Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// DailyCount godoc
// @Summary      Movimientos del día civil actual
// @Tags         inventory
// @Produce      json
// @Param        tz  query  string  false  "zona IANA, por defecto la configurada"
// @Success      200  {object}  dto.DailyCountResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/daily-count [get]
func (h *InventoryHandler) DailyCount(c *fiber.Ctx) error {
	resp, err := h.dashboard.GetDailyMovementCount(c.Context(), c.Query("tz"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// Shortages godoc
// @Summary      Materiales bajo mínimo
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/shortages [get]
func (h *InventoryHandler) Shortages(c *fiber.Ctx) error {
	list, err := h.dashboard.GetShortageList(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":     len(list),
		"shortages": list,
	})
}

// ShortageReport godoc
// @Summary      Hoja de reposición en PDF
// @Tags         inventory
// @Produce      application/pdf
// @Param        tz  query  string  false  "zona para la fecha de emisión"
// @Success      200
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/shortages/report.pdf [get]
func (h *InventoryHandler) ShortageReport(c *fiber.Ctx) error {
	doc, err := h.dashboard.ShortageReportPDF(c.Context(), c.Query("tz"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="shortage-report.pdf"`)
	return c.Send(doc)
}

// Reconciliation godoc
// @Summary      Verifica current_quantity == initial + Σ movimientos
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/inventory/reconciliation [get]
func (h *InventoryHandler) Reconciliation(c *fiber.Ctx) error {
	resp, err := h.dashboard.GetReconciliation(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}
