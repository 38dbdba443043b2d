package dto

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	TotalMaterials     int64               `json:"total_materials"`
	LowStockCount      int                 `json:"low_stock_count"`
	TodayMovementCount int64               `json:"today_movement_count"`
	Date               string              `json:"date"` // día civil en Timezone
	Timezone           string              `json:"timezone"`
	RecentMovements    []RecentMovementDTO `json:"recent_movements"`
}
