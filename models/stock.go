package models

const defaultLowStockThreshold = 5

// lowStockThresholdOrDefault keeps an explicit zero (alert only when out of
// stock) distinct from an absent threshold.
func lowStockThresholdOrDefault(v *int) int {
	if v != nil {
		return *v
	}
	return defaultLowStockThreshold
}

// ClassifyInventoryStatus maps a quantity and low-stock threshold to a status.
//
// It never yields InventoryStatusDiscontinued: discontinuing is an explicit
// admin action, not something derivable from quantity, so callers that hold a
// discontinued record must skip recomputation.
func ClassifyInventoryStatus(quantity int, lowStockThreshold int) InventoryStatus {
	switch {
	case quantity <= 0:
		return InventoryStatusOutOfStock
	case quantity <= lowStockThreshold:
		return InventoryStatusLowStock
	default:
		return InventoryStatusInStock
	}
}
