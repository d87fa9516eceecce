package models_test

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/velastore/tienda_backend/models"
)

var orderNumberRe = regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestGenerateOrderNumber_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := models.GenerateOrderNumber()
		if !orderNumberRe.MatchString(id) {
			t.Fatalf("order number %q does not match %s", id, orderNumberRe)
		}
		if seen[id] {
			t.Fatalf("duplicate order number generated: %s", id)
		}
		seen[id] = true
	}
}

func TestComputeOrderTotal(t *testing.T) {
	items := []models.OrderItem{
		{Price: decimal.RequireFromString("19.99"), Quantity: 2},
		{Price: decimal.RequireFromString("5.50"), Quantity: 3},
	}
	got := models.ComputeOrderTotal(items)
	want := decimal.RequireFromString("56.48")
	if !got.Equal(want) {
		t.Fatalf("ComputeOrderTotal = %s, want %s", got, want)
	}
}

func TestComputeOrderTotal_Empty(t *testing.T) {
	if got := models.ComputeOrderTotal(nil); !got.IsZero() {
		t.Fatalf("ComputeOrderTotal(nil) = %s, want 0", got)
	}
}

func TestOrderStatusUnmarshal(t *testing.T) {
	var s models.OrderStatus
	if err := json.Unmarshal([]byte(`"processing"`), &s); err != nil {
		t.Fatalf("unmarshal processing: %v", err)
	}
	if s != models.OrderStatusProcessing {
		t.Fatalf("got %s, want processing", s)
	}

	if err := json.Unmarshal([]byte(`"shipped"`), &s); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	if !models.OrderStatusCompleted.IsTerminal() {
		t.Fatal("completed must be terminal")
	}
	if !models.OrderStatusCancelled.IsTerminal() {
		t.Fatal("cancelled must be terminal")
	}
	if models.OrderStatusPending.IsTerminal() || models.OrderStatusProcessing.IsTerminal() {
		t.Fatal("pending/processing must not be terminal")
	}
}
