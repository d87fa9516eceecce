package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
)

// AttributeMap stores variant attributes (e.g. {"size": "M", "color": "rojo"})
// as a JSON column.
type AttributeMap map[string]string

func (m AttributeMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *AttributeMap) Scan(value interface{}) error {
	if value == nil {
		*m = AttributeMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into AttributeMap", value)
	}
}

// CanonicalKey flattens the attribute map into a deterministic string
// ("color=rojo;size=m") used for per-product uniqueness.
func (m AttributeMap) CanonicalKey() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strings.ToLower(strings.TrimSpace(k))+"="+strings.ToLower(strings.TrimSpace(m[k])))
	}
	return strings.Join(parts, ";")
}

type ProductVariant struct {
	ID            int              `gorm:"primary_key" json:"id"`
	ProductId     int              `gorm:"uniqueIndex:idx_variant_attrs;not null" json:"product_id"`
	Attributes    AttributeMap     `gorm:"type:json" json:"attributes"`
	AttributesKey string           `gorm:"uniqueIndex:idx_variant_attrs;size:255;not null" json:"-"`
	Sku           string           `gorm:"uniqueIndex;size:100;not null" json:"sku"`
	Price         *decimal.Decimal `gorm:"type:decimal(20,4)" json:"price,omitempty"`

	InventoryManaged  *bool           `gorm:"not null;default:true" json:"inventory_managed"`
	InventoryQuantity int             `gorm:"not null;default:0" json:"inventory_quantity"`
	LowStockThreshold int             `gorm:"not null;default:5" json:"low_stock_threshold"`
	InventoryStatus   InventoryStatus `gorm:"type:enum('in_stock','low_stock','out_of_stock','discontinued');default:'out_of_stock'" json:"inventory_status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v ProductVariant) DisplayName() string {
	if len(v.Attributes) == 0 {
		return v.Sku
	}
	keys := make([]string, 0, len(v.Attributes))
	for k := range v.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, v.Attributes[k])
	}
	return strings.Join(parts, " / ")
}

type NewProductVariant struct {
	Attributes        AttributeMap     `json:"attributes" binding:"required"`
	Sku               string           `json:"sku" binding:"required"`
	Price             *decimal.Decimal `json:"price"`
	InventoryManaged  *bool            `json:"inventory_managed"`
	InventoryQuantity int              `json:"inventory_quantity"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
}

func validateNewVariants(inputs []NewProductVariant) error {
	seenKeys := make(map[string]bool)
	seenSkus := make(map[string]bool)
	for _, v := range inputs {
		if len(v.Attributes) == 0 {
			return errors.New("variant attributes are required")
		}
		key := v.Attributes.CanonicalKey()
		if seenKeys[key] {
			return errors.New("duplicate variant attributes: " + key)
		}
		seenKeys[key] = true

		if v.Sku == "" {
			return errors.New("variant sku is required")
		}
		if seenSkus[v.Sku] {
			return errors.New("duplicate variant sku: " + v.Sku)
		}
		seenSkus[v.Sku] = true

		if v.InventoryQuantity < 0 {
			return errors.New("variant inventory quantity must not be negative")
		}
		if v.LowStockThreshold != nil && *v.LowStockThreshold < 0 {
			return errors.New("variant low stock threshold must not be negative")
		}
	}
	return nil
}

func mapNewVariants(inputs []NewProductVariant) []ProductVariant {
	variants := make([]ProductVariant, 0, len(inputs))
	for _, v := range inputs {
		managed := v.InventoryManaged
		if managed == nil {
			managed = utils.NewTrue()
		}
		threshold := lowStockThresholdOrDefault(v.LowStockThreshold)
		variants = append(variants, ProductVariant{
			Attributes:        v.Attributes,
			AttributesKey:     v.Attributes.CanonicalKey(),
			Sku:               v.Sku,
			Price:             v.Price,
			InventoryManaged:  managed,
			InventoryQuantity: v.InventoryQuantity,
			LowStockThreshold: threshold,
			InventoryStatus:   ClassifyInventoryStatus(v.InventoryQuantity, threshold),
		})
	}
	return variants
}

func GetVariantById(ctx context.Context, id int) (*ProductVariant, error) {
	db := config.GetDB()
	var variant ProductVariant
	err := db.WithContext(ctx).First(&variant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// CreateProductVariant adds a variant to an existing variant-type product.
func CreateProductVariant(ctx context.Context, productId int, input *NewProductVariant) (*ProductVariant, error) {
	product, err := getProductByIdFromDB(ctx, productId)
	if err != nil {
		return nil, err
	}
	if product.Type != ProductTypeVariant {
		return nil, errors.New("variants are only allowed on variant products")
	}
	if err := validateNewVariants([]NewProductVariant{*input}); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[ProductVariant](ctx, "sku", input.Sku, 0); err != nil {
		return nil, err
	}

	variants := mapNewVariants([]NewProductVariant{*input})
	variant := variants[0]
	variant.ProductId = productId

	db := config.GetDB()
	var count int64
	err = db.WithContext(ctx).Model(&ProductVariant{}).
		Where("product_id = ? AND attributes_key = ?", productId, variant.AttributesKey).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate variant attributes: " + variant.AttributesKey)
	}

	if err := db.WithContext(ctx).Create(&variant).Error; err != nil {
		return nil, err
	}

	InvalidateProductCache(productId)
	return &variant, nil
}

// UpdateProductVariant changes attributes, sku and price. Stock changes go
// through the ledger writer, not here.
func UpdateProductVariant(ctx context.Context, id int, input *NewProductVariant) (*ProductVariant, error) {
	variant, err := GetVariantById(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[ProductVariant](ctx, "sku", input.Sku, id); err != nil {
		return nil, err
	}
	if len(input.Attributes) == 0 {
		return nil, errors.New("variant attributes are required")
	}

	newKey := input.Attributes.CanonicalKey()
	db := config.GetDB()
	var count int64
	err = db.WithContext(ctx).Model(&ProductVariant{}).
		Where("product_id = ? AND attributes_key = ? AND NOT id = ?", variant.ProductId, newKey, id).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate variant attributes: " + newKey)
	}

	variant.Attributes = input.Attributes
	variant.AttributesKey = newKey
	variant.Sku = input.Sku
	variant.Price = input.Price
	if input.InventoryManaged != nil {
		variant.InventoryManaged = input.InventoryManaged
	}
	if input.LowStockThreshold != nil {
		variant.LowStockThreshold = *input.LowStockThreshold
	}
	if variant.InventoryStatus != InventoryStatusDiscontinued {
		variant.InventoryStatus = ClassifyInventoryStatus(variant.InventoryQuantity, variant.LowStockThreshold)
	}

	if err := db.WithContext(ctx).Save(variant).Error; err != nil {
		return nil, err
	}

	InvalidateProductCache(variant.ProductId)
	return variant, nil
}

func DeleteProductVariant(ctx context.Context, id int) error {
	variant, err := GetVariantById(ctx, id)
	if err != nil {
		return err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&ProductVariant{}, id).Error; err != nil {
		return err
	}

	InvalidateProductCache(variant.ProductId)
	return nil
}
