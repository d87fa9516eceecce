package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorOrderTerminalState is returned when a status change is attempted on a
// completed or cancelled order. Callers must surface it as a conflict, never
// swallow it.
var ErrorOrderTerminalState = errors.New("order is in a terminal status")

var ErrorEmptyCart = errors.New("cart is empty")

// ErrorInventoryNotTracked is returned by the ledger writer when the target
// product or variant has inventory_managed = false.
var ErrorInventoryNotTracked = errors.New("does not track inventory")
