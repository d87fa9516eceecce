package models_test

import (
	"testing"

	"github.com/velastore/tienda_backend/models"
)

func TestAttributeMapCanonicalKey(t *testing.T) {
	a := models.AttributeMap{"size": "M", "color": "Rojo"}
	b := models.AttributeMap{"color": "rojo", "size": "m"}

	if a.CanonicalKey() != b.CanonicalKey() {
		t.Fatalf("canonical keys differ: %q vs %q", a.CanonicalKey(), b.CanonicalKey())
	}
	if a.CanonicalKey() != "color=rojo;size=m" {
		t.Fatalf("unexpected canonical key: %q", a.CanonicalKey())
	}
}

func TestAttributeMapCanonicalKey_TrimsWhitespace(t *testing.T) {
	a := models.AttributeMap{" size ": " M "}
	if a.CanonicalKey() != "size=m" {
		t.Fatalf("unexpected canonical key: %q", a.CanonicalKey())
	}
}

func TestVariantDisplayName(t *testing.T) {
	v := models.ProductVariant{
		Sku:        "TEE-M-ROJO",
		Attributes: models.AttributeMap{"size": "M", "color": "Rojo"},
	}
	// attribute values joined in key order
	if got := v.DisplayName(); got != "Rojo / M" {
		t.Fatalf("DisplayName = %q, want %q", got, "Rojo / M")
	}

	empty := models.ProductVariant{Sku: "TEE-BASIC"}
	if got := empty.DisplayName(); got != "TEE-BASIC" {
		t.Fatalf("DisplayName fallback = %q, want sku", got)
	}
}
