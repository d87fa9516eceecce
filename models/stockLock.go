package models

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireStockPostingLock serializes stock mutations per product (or variant)
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction.
func AcquireStockPostingLock(tx *gorm.DB, productId int, variantId *int) error {
	lockName := StockLockName(productId, variantId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire stock lock %s", lockName)
	}
	return nil
}

func ReleaseStockPostingLock(tx *gorm.DB, productId int, variantId *int) {
	lockName := StockLockName(productId, variantId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// StockLockName is also used as the redis guard key so both layers contend
// on the same name.
func StockLockName(productId int, variantId *int) string {
	if variantId != nil {
		return fmt.Sprintf("stock:variant:%d", *variantId)
	}
	return fmt.Sprintf("stock:product:%d", productId)
}

// AcquireOrderPostingLock serializes status transitions per order.
func AcquireOrderPostingLock(tx *gorm.DB, orderId string) error {
	lockName := fmt.Sprintf("order:%s", orderId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire order lock for order_id=%s", orderId)
	}
	return nil
}

func ReleaseOrderPostingLock(tx *gorm.DB, orderId string) {
	lockName := fmt.Sprintf("order:%s", orderId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
