package workflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the order state
// machine; the stock side effects are covered by the integration regression
// test (requires docker).

func TestValidateStatusTransition(t *testing.T) {
	cases := []struct {
		name    string
		current models.OrderStatus
		next    models.OrderStatus
		wantErr bool
		errIs   error
	}{
		{"pending to processing", models.OrderStatusPending, models.OrderStatusProcessing, false, nil},
		{"pending to completed", models.OrderStatusPending, models.OrderStatusCompleted, false, nil},
		{"pending to cancelled", models.OrderStatusPending, models.OrderStatusCancelled, false, nil},
		{"processing to completed", models.OrderStatusProcessing, models.OrderStatusCompleted, false, nil},
		{"processing to cancelled", models.OrderStatusProcessing, models.OrderStatusCancelled, false, nil},

		{"back to pending", models.OrderStatusProcessing, models.OrderStatusPending, true, nil},
		{"same state", models.OrderStatusProcessing, models.OrderStatusProcessing, true, nil},
		{"completed to cancelled", models.OrderStatusCompleted, models.OrderStatusCancelled, true, utils.ErrorOrderTerminalState},
		{"completed to processing", models.OrderStatusCompleted, models.OrderStatusProcessing, true, utils.ErrorOrderTerminalState},
		{"double completion", models.OrderStatusCompleted, models.OrderStatusCompleted, true, utils.ErrorOrderTerminalState},
		{"cancelled accepts nothing", models.OrderStatusCancelled, models.OrderStatusProcessing, true, utils.ErrorOrderTerminalState},
		{"cancelled to completed", models.OrderStatusCancelled, models.OrderStatusCompleted, true, utils.ErrorOrderTerminalState},
		{"invalid next", models.OrderStatusPending, models.OrderStatus("shipped"), true, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateStatusTransition(tc.current, tc.next)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %s -> %s", tc.current, tc.next)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %s -> %s: %v", tc.current, tc.next, err)
			}
			if tc.errIs != nil && !errors.Is(err, tc.errIs) {
				t.Fatalf("error for %s -> %s = %v, want %v", tc.current, tc.next, err, tc.errIs)
			}
		})
	}
}

func TestTargetQuantity(t *testing.T) {
	t.Setenv("INVENTORY_ALLOW_BACKORDERS", "")

	five := 5
	negTwo := -2

	cases := []struct {
		name   string
		curr   int
		change InventoryChange
		want   int
	}{
		{"absolute set", 10, InventoryChange{SetQuantity: &five}, 5},
		{"positive delta", 10, InventoryChange{AdjustBy: 3}, 13},
		{"negative delta", 10, InventoryChange{AdjustBy: -4}, 6},
		{"oversell clamps to zero", 2, InventoryChange{AdjustBy: -5}, 0},
		{"absolute negative clamps to zero", 10, InventoryChange{SetQuantity: &negTwo}, 0},
		{"restock is uncapped", 2, InventoryChange{AdjustBy: 100}, 102},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := targetQuantity(tc.curr, &tc.change); got != tc.want {
				t.Fatalf("targetQuantity(%d, %+v) = %d, want %d", tc.curr, tc.change, got, tc.want)
			}
		})
	}
}

func TestTargetQuantity_BackordersAllowed(t *testing.T) {
	t.Setenv("INVENTORY_ALLOW_BACKORDERS", "true")

	got := targetQuantity(2, &InventoryChange{AdjustBy: -5})
	if got != -3 {
		t.Fatalf("with backorders allowed, targetQuantity = %d, want -3", got)
	}
}

// Order movements must write a ledger row even when the clamp leaves the
// quantity unchanged; manual no-ops must not.
func TestInventoryChangeAlwaysLogs(t *testing.T) {
	cases := []struct {
		reason models.InventoryLogReason
		want   bool
	}{
		{models.InventoryLogReasonOrder, true},
		{models.InventoryLogReasonReturn, true},
		{models.InventoryLogReasonManual, false},
		{models.InventoryLogReasonAdjustment, false},
	}
	for _, tc := range cases {
		change := InventoryChange{Reason: tc.reason}
		if got := change.alwaysLogs(); got != tc.want {
			t.Errorf("alwaysLogs(%s) = %v, want %v", tc.reason, got, tc.want)
		}
	}
}

func TestIsSkippableStockError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"missing product", fmt.Errorf("product 7: %w", utils.ErrorRecordNotFound), true},
		{"unmanaged variant", fmt.Errorf("variant 3 %w", utils.ErrorInventoryNotTracked), true},
		{"wrong product for variant", errors.New("variant 3 does not belong to product 7"), false},
		{"infrastructure failure", errors.New("driver: bad connection"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isSkippableStockError(tc.err); got != tc.want {
				t.Fatalf("isSkippableStockError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
