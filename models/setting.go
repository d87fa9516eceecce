package models

import (
	"context"
	"errors"
	"time"

	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
)

// Setting is a key/value store for storefront configuration the admin edits
// at runtime (store name, contact info, exchange rate, payment details).
type Setting struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key" binding:"required"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetSettings(ctx context.Context) ([]*Setting, error) {
	if cached, err := utils.RetrieveRedisList[Setting](); err == nil && cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var settings []*Setting
	if err := db.WithContext(ctx).Order("`key` ASC").Find(&settings).Error; err != nil {
		return nil, err
	}

	if err := utils.StoreRedisList[Setting](settings); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "models", "GetSettings", "cache store", nil, err)
	}
	return settings, nil
}

func GetSettingValue(ctx context.Context, key string) (string, error) {
	db := config.GetDB()
	var setting Setting
	err := db.WithContext(ctx).Where("`key` = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", utils.ErrorRecordNotFound
		}
		return "", err
	}
	return setting.Value, nil
}

// UpsertSetting creates the key when missing, overwrites otherwise.
func UpsertSetting(ctx context.Context, key string, value string) (*Setting, error) {
	db := config.GetDB()

	var setting Setting
	err := db.WithContext(ctx).Where("`key` = ?", key).First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		setting = Setting{Key: key, Value: value}
		if err := db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, err
		}
	} else {
		setting.Value = value
		if err := db.WithContext(ctx).Save(&setting).Error; err != nil {
			return nil, err
		}
	}

	utils.RemoveRedisList[Setting]()
	return &setting, nil
}
