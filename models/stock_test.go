package models_test

import (
	"testing"

	"github.com/velastore/tienda_backend/models"
)

func TestClassifyInventoryStatus(t *testing.T) {
	cases := []struct {
		name      string
		quantity  int
		threshold int
		want      models.InventoryStatus
	}{
		{"zero is out of stock", 0, 5, models.InventoryStatusOutOfStock},
		{"negative is out of stock", -3, 5, models.InventoryStatusOutOfStock},
		{"at threshold is low", 5, 5, models.InventoryStatusLowStock},
		{"below threshold is low", 1, 5, models.InventoryStatusLowStock},
		{"above threshold is in stock", 6, 5, models.InventoryStatusInStock},
		{"zero threshold, positive qty", 1, 0, models.InventoryStatusInStock},
		{"zero threshold, zero qty", 0, 0, models.InventoryStatusOutOfStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.ClassifyInventoryStatus(tc.quantity, tc.threshold)
			if got != tc.want {
				t.Fatalf("ClassifyInventoryStatus(%d, %d) = %s, want %s",
					tc.quantity, tc.threshold, got, tc.want)
			}
		})
	}
}

// The classifier must never produce discontinued; that status is only set by
// an explicit admin action and callers preserve it by skipping reclassification.
func TestClassifyInventoryStatus_NeverDiscontinued(t *testing.T) {
	for q := -2; q <= 20; q++ {
		for th := 0; th <= 10; th++ {
			if got := models.ClassifyInventoryStatus(q, th); got == models.InventoryStatusDiscontinued {
				t.Fatalf("ClassifyInventoryStatus(%d, %d) produced discontinued", q, th)
			}
		}
	}
}
