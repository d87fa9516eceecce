package models

import (
	"context"
	"errors"
	"time"

	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductCategory struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func CreateProductCategory(ctx context.Context, input *NewProductCategory) (*ProductCategory, error) {
	if err := utils.ValidateUnique[ProductCategory](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	category := ProductCategory{
		Name:        input.Name,
		Description: input.Description,
		SortOrder:   input.SortOrder,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}

	utils.RemoveRedisList[ProductCategory]()
	return &category, nil
}

func UpdateProductCategory(ctx context.Context, id int, input *NewProductCategory) (*ProductCategory, error) {
	if err := utils.ValidateResourceId[ProductCategory](ctx, id); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[ProductCategory](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}

	category := ProductCategory{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		SortOrder:   input.SortOrder,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&category).Updates(map[string]interface{}{
		"name":        input.Name,
		"description": input.Description,
		"sort_order":  input.SortOrder,
	}).Error; err != nil {
		return nil, err
	}

	utils.RemoveRedisItem[ProductCategory](id)
	utils.RemoveRedisList[ProductCategory]()
	return &category, nil
}

func DeleteProductCategory(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[ProductCategory](ctx, id); err != nil {
		return err
	}

	// refuse to orphan products
	count, err := utils.ResourceCountWhere[Product](ctx, "category_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("category is in use by products")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&ProductCategory{}, id).Error; err != nil {
		return err
	}

	utils.RemoveRedisItem[ProductCategory](id)
	utils.RemoveRedisList[ProductCategory]()
	return nil
}

func GetProductCategories(ctx context.Context) ([]*ProductCategory, error) {
	if cached, err := utils.RetrieveRedisList[ProductCategory](); err == nil && cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var categories []*ProductCategory
	err := db.WithContext(ctx).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedisList[ProductCategory](categories); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "models", "GetProductCategories", "cache store", nil, err)
	}
	return categories, nil
}

func GetProductCategoryById(ctx context.Context, id int) (*ProductCategory, error) {
	db := config.GetDB()
	var category ProductCategory
	err := db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &category, nil
}
