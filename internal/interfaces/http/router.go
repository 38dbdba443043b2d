package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MaterialUC  *usecase.MaterialUseCase
	Mutator     *inventory.RecordMovementUseCase
	DashboardUC *analytics.DashboardUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Materials
	materials := api.Group("/materials")
	materialHandler := NewMaterialHandler(deps.MaterialUC)
	materials.Post("/", materialHandler.Create)
	materials.Get("/", materialHandler.List)
	materials.Get("/categories", materialHandler.Categories)
	materials.Get("/:id", materialHandler.GetByID)
	materials.Put("/:id", materialHandler.Update)
	materials.Delete("/:id", materialHandler.Delete)
	materials.Get("/:id/movements", materialHandler.History)

	// Inventory: motor de stock y vistas derivadas
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Mutator, deps.DashboardUC)
	invGroup.Post("/movements", inventoryHandler.RecordMovement)
	invGroup.Get("/movements", inventoryHandler.ListRecent)
	invGroup.Get("/movements/daily-count", inventoryHandler.DailyCount)
	invGroup.Post("/adjustments", inventoryHandler.AdjustStock)
	invGroup.Get("/shortages", inventoryHandler.Shortages)
	invGroup.Get("/shortages/report.pdf", inventoryHandler.ShortageReport)
	invGroup.Get("/reconciliation", inventoryHandler.Reconciliation)

	// Dashboard
	dashboard := api.Group("/dashboard")
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboard.Get("/summary", dashboardHandler.GetSummary)
}
