package models

import "testing"

// An explicit zero threshold means "only low when out of stock" and must not
// be promoted to the default.
func TestLowStockThresholdOrDefault(t *testing.T) {
	zero := 0
	three := 3

	if got := lowStockThresholdOrDefault(nil); got != defaultLowStockThreshold {
		t.Fatalf("nil threshold = %d, want %d", got, defaultLowStockThreshold)
	}
	if got := lowStockThresholdOrDefault(&zero); got != 0 {
		t.Fatalf("explicit zero threshold = %d, want 0", got)
	}
	if got := lowStockThresholdOrDefault(&three); got != 3 {
		t.Fatalf("threshold = %d, want 3", got)
	}
}
