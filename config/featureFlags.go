package config

import (
	"os"
	"strings"
)

// AllowBackorders disables the global floor-at-zero on the inventory ledger,
// letting a quantity change persist a negative stock level.
//
// Set via env:
// - INVENTORY_ALLOW_BACKORDERS=true
func AllowBackorders() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("INVENTORY_ALLOW_BACKORDERS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// NotificationsEnabled gates outbound Pub/Sub notification publishing.
// Off by default in local/dev environments without a topic configured.
func NotificationsEnabled() bool {
	return strings.TrimSpace(os.Getenv("NOTIFY_TOPIC")) != ""
}
