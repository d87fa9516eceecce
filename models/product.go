package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StringList stores a JSON array in a single column (image URLs).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

type Product struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:200;not null" json:"name" binding:"required"`
	Description string          `gorm:"type:text" json:"description"`
	CategoryId  int             `gorm:"index;not null;default:0" json:"category_id"`
	Type        ProductType     `gorm:"type:enum('S','V');default:S" json:"type"`
	Sku         string          `gorm:"uniqueIndex;size:100;not null" json:"sku" binding:"required"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	Images      StringList      `gorm:"type:json" json:"images"`
	Featured    *bool           `gorm:"not null;default:false" json:"featured"`

	// Inventory sub-record. Quantity and status only change through the
	// ledger writer or the product operations below, never by direct update.
	InventoryManaged  *bool           `gorm:"not null;default:true" json:"inventory_managed"`
	InventoryQuantity int             `gorm:"not null;default:0" json:"inventory_quantity"`
	LowStockThreshold int             `gorm:"not null;default:5" json:"low_stock_threshold"`
	InventoryStatus   InventoryStatus `gorm:"type:enum('in_stock','low_stock','out_of_stock','discontinued');default:'out_of_stock'" json:"inventory_status"`

	Variants []ProductVariant `gorm:"foreignkey:ProductId" json:"variants,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p Product) IsDiscontinued() bool {
	return p.InventoryStatus == InventoryStatusDiscontinued
}

type NewProduct struct {
	Name              string            `json:"name" binding:"required"`
	Description       string            `json:"description"`
	CategoryId        int               `json:"category_id"`
	Type              ProductType       `json:"type"`
	Sku               string            `json:"sku" binding:"required"`
	Price             decimal.Decimal   `json:"price"`
	Images            []string          `json:"images"`
	Featured          *bool             `json:"featured"`
	InventoryManaged  *bool             `json:"inventory_managed"`
	InventoryQuantity int               `json:"inventory_quantity"`
	LowStockThreshold *int              `json:"low_stock_threshold"`
	Variants          []NewProductVariant `json:"variants"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, id); err != nil {
		return err
	}
	if input.CategoryId > 0 {
		if err := utils.ValidateResourceId[ProductCategory](ctx, input.CategoryId); err != nil {
			return errors.New("product category not found")
		}
	}
	if input.Type != "" && !input.Type.Valid() {
		return errors.New("invalid product type")
	}
	if input.Type == ProductTypeVariant && len(input.Variants) == 0 {
		return errors.New("variant product requires at least one variant")
	}
	if input.Type != ProductTypeVariant && len(input.Variants) > 0 {
		return errors.New("variants are only allowed on variant products")
	}
	if input.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if input.InventoryQuantity < 0 {
		return errors.New("inventory quantity must not be negative")
	}
	if input.LowStockThreshold != nil && *input.LowStockThreshold < 0 {
		return errors.New("low stock threshold must not be negative")
	}
	return validateNewVariants(input.Variants)
}

func CreateProduct(ctx context.Context, input *NewProduct, userId int, userName string) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	productType := input.Type
	if productType == "" {
		productType = ProductTypeSingle
	}
	managed := input.InventoryManaged
	if managed == nil {
		managed = utils.NewTrue()
	}
	threshold := lowStockThresholdOrDefault(input.LowStockThreshold)

	product := Product{
		Name:              input.Name,
		Description:       input.Description,
		CategoryId:        input.CategoryId,
		Type:              productType,
		Sku:               input.Sku,
		Price:             input.Price,
		Images:            StringList(input.Images),
		Featured:          input.Featured,
		InventoryManaged:  managed,
		InventoryQuantity: input.InventoryQuantity,
		LowStockThreshold: threshold,
		InventoryStatus:   ClassifyInventoryStatus(input.InventoryQuantity, threshold),
		Variants:          mapNewVariants(input.Variants),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return AppendInventoryLog(tx, &InventoryLog{
			ProductId:        product.ID,
			ProductName:      product.Name,
			PreviousQuantity: 0,
			NewQuantity:      product.InventoryQuantity,
			Reason:           InventoryLogReasonProductCreated,
			UserId:           utils.NilIfEmpty(userId),
			AdminName:        userName,
		})
	})
	if err != nil {
		return nil, err
	}

	utils.RemoveRedisList[Product]()
	return &product, nil
}

// UpdateProduct edits the product form fields, including quantity. The read
// and the save run under the same stock lock and row lock as the ledger
// writer so a concurrent order completion cannot be overwritten with a stale
// quantity.
func UpdateProduct(ctx context.Context, id int, input *NewProduct, userId int, userName string) (*Product, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	var product Product
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStockPostingLock(tx, id, nil); err != nil {
			return err
		}
		defer ReleaseStockPostingLock(tx, id, nil)

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		previousQuantity := product.InventoryQuantity

		product.Name = input.Name
		product.Description = input.Description
		product.CategoryId = input.CategoryId
		product.Sku = input.Sku
		product.Price = input.Price
		product.Images = StringList(input.Images)
		if input.Featured != nil {
			product.Featured = input.Featured
		}
		if input.InventoryManaged != nil {
			product.InventoryManaged = input.InventoryManaged
		}
		product.InventoryQuantity = input.InventoryQuantity
		if input.LowStockThreshold != nil {
			product.LowStockThreshold = *input.LowStockThreshold
		}

		// A quantity-only edit must not resurrect a discontinued product.
		if !product.IsDiscontinued() {
			product.InventoryStatus = ClassifyInventoryStatus(product.InventoryQuantity, product.LowStockThreshold)
		}

		if err := tx.Omit("Variants").Save(&product).Error; err != nil {
			return err
		}
		if product.InventoryQuantity == previousQuantity {
			return nil
		}
		return AppendInventoryLog(tx, &InventoryLog{
			ProductId:        product.ID,
			ProductName:      product.Name,
			PreviousQuantity: previousQuantity,
			NewQuantity:      product.InventoryQuantity,
			Reason:           InventoryLogReasonProductUpdated,
			UserId:           utils.NilIfEmpty(userId),
			AdminName:        userName,
		})
	})
	if err != nil {
		return nil, err
	}

	utils.RemoveRedisItem[Product](product.ID)
	utils.RemoveRedisList[Product]()
	return &product, nil
}

// DiscontinueProduct is the soft delete: the row stays so the ledger keeps
// its product reference, but the status becomes discontinued and the public
// catalog stops listing it.
func DiscontinueProduct(ctx context.Context, id int, userId int, userName string) error {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if product.IsDiscontinued() {
			return nil
		}

		previousQuantity := product.InventoryQuantity

		err = tx.Model(&Product{}).
			Where("id = ?", id).
			Update("inventory_status", InventoryStatusDiscontinued).Error
		if err != nil {
			return err
		}
		return AppendInventoryLog(tx, &InventoryLog{
			ProductId:        product.ID,
			ProductName:      product.Name,
			PreviousQuantity: previousQuantity,
			NewQuantity:      previousQuantity,
			Reason:           InventoryLogReasonProductDeleted,
			UserId:           utils.NilIfEmpty(userId),
			AdminName:        userName,
			Details:          "product discontinued",
		})
	})
	if err != nil {
		return err
	}

	utils.RemoveRedisItem[Product](id)
	utils.RemoveRedisList[Product]()
	return nil
}

type ProductFilter struct {
	CategoryId          int    `form:"category_id"`
	SearchTerm          string `form:"search"`
	Featured            *bool  `form:"featured"`
	IncludeDiscontinued bool   `form:"-"`
	Pagination
}

func GetProducts(ctx context.Context, filter *ProductFilter) ([]*Product, *PageInfo, error) {
	filter.Normalize()

	db := config.GetDB()
	query := db.WithContext(ctx).Model(&Product{})
	if !filter.IncludeDiscontinued {
		query = query.Where("inventory_status <> ?", InventoryStatusDiscontinued)
	}
	if filter.CategoryId > 0 {
		query = query.Where("category_id = ?", filter.CategoryId)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.SearchTerm != "" {
		term := "%" + filter.SearchTerm + "%"
		query = query.Where("name LIKE ? OR sku LIKE ? OR description LIKE ?", term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var products []*Product
	err := query.Preload("Variants").
		Order("created_at DESC, id DESC").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, nil, err
	}

	return products, NewPageInfo(filter.Pagination, total), nil
}

func getProductByIdFromDB(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()
	var product Product
	err := db.WithContext(ctx).Preload("Variants").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &product, nil
}

func GetProductById(ctx context.Context, id int) (*Product, error) {
	if cached, err := utils.RetrieveRedis[Product](id); err == nil && cached != nil {
		return cached, nil
	}

	product, err := getProductByIdFromDB(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedis[Product](product, product.ID); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "models", "GetProductById", "cache store", map[string]interface{}{"id": id}, err)
	}
	return product, nil
}

// InvalidateProductCache drops both the item and the list cache. Called after
// any committed stock mutation.
func InvalidateProductCache(productId int) {
	utils.RemoveRedisItem[Product](productId)
	utils.RemoveRedisList[Product]()
}
