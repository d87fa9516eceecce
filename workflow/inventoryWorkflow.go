package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryChange describes a single stock mutation. Exactly one of
// SetQuantity / AdjustBy applies: SetQuantity when non-nil, otherwise
// AdjustBy is added to the current quantity.
type InventoryChange struct {
	ProductId   int
	VariantId   *int
	SetQuantity *int
	AdjustBy    int
	Reason      models.InventoryLogReason
	OrderId     *string
	UserId      *int
	AdminName   string
	Details     string
}

// alwaysLogs reports whether the change writes a ledger row even when the
// quantity lands where it already was. Order movements do: a sale against a
// clamped-at-zero item still needs its audit row. Manual edits that change
// nothing do not.
func (c *InventoryChange) alwaysLogs() bool {
	return c.Reason == models.InventoryLogReasonOrder ||
		c.Reason == models.InventoryLogReasonReturn
}

// obtainRedisGuard takes a best-effort distributed lock. The MySQL advisory
// lock inside the transaction is the real serialization point; the redis lock
// only short-circuits obviously concurrent requests before they hit the DB.
// A missing locker (redis still connecting) is not an error.
func obtainRedisGuard(ctx context.Context, key string, funcName string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	lock, err := locker.Obtain(ctx, key, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		return nil, errors.New("resource is busy, try again")
	} else if err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "workflow", funcName, "Error obtaining redis lock", key, err)
		return nil, nil
	}
	return lock, nil
}

func releaseRedisGuard(ctx context.Context, lock *redislock.Lock) {
	if lock != nil {
		_ = lock.Release(ctx)
	}
}

// ApplyInventoryChange is the only entry point for stock mutations. It runs
// the quantity update and the ledger insert in one transaction; if the ledger
// row cannot be written the quantity change rolls back with it.
func ApplyInventoryChange(ctx context.Context, change *InventoryChange) (*models.InventoryLog, error) {
	if !change.Reason.Valid() {
		return nil, fmt.Errorf("invalid inventory log reason: %s", change.Reason)
	}

	guard, err := obtainRedisGuard(ctx, models.StockLockName(change.ProductId, change.VariantId), "ApplyInventoryChange")
	if err != nil {
		return nil, err
	}
	defer releaseRedisGuard(ctx, guard)

	db := config.GetDB()
	var entry *models.InventoryLog
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applyInventoryChangeTx(tx, change)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	models.InvalidateProductCache(change.ProductId)
	return entry, nil
}

// applyInventoryChangeTx does the locked read-modify-write inside the
// caller's transaction. Returns a nil log when the change is a no-op.
func applyInventoryChangeTx(tx *gorm.DB, change *InventoryChange) (*models.InventoryLog, error) {
	if err := models.AcquireStockPostingLock(tx, change.ProductId, change.VariantId); err != nil {
		return nil, err
	}
	defer models.ReleaseStockPostingLock(tx, change.ProductId, change.VariantId)

	if change.VariantId != nil {
		return applyVariantChangeTx(tx, change)
	}
	return applyProductChangeTx(tx, change)
}

func targetQuantity(current int, change *InventoryChange) int {
	target := current + change.AdjustBy
	if change.SetQuantity != nil {
		target = *change.SetQuantity
	}
	if target < 0 && !config.AllowBackorders() {
		target = 0
	}
	return target
}

func applyProductChangeTx(tx *gorm.DB, change *InventoryChange) (*models.InventoryLog, error) {
	var product models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, change.ProductId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", change.ProductId, utils.ErrorRecordNotFound)
		}
		return nil, err
	}
	if product.InventoryManaged != nil && !*product.InventoryManaged {
		return nil, fmt.Errorf("product %d %w", change.ProductId, utils.ErrorInventoryNotTracked)
	}

	previous := product.InventoryQuantity
	target := targetQuantity(previous, change)
	if target == previous && !change.alwaysLogs() {
		return nil, nil
	}

	status := product.InventoryStatus
	if status != models.InventoryStatusDiscontinued {
		status = models.ClassifyInventoryStatus(target, product.LowStockThreshold)
	}

	err = tx.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"inventory_quantity": target,
			"inventory_status":   status,
		}).Error
	if err != nil {
		return nil, err
	}

	entry := &models.InventoryLog{
		ProductId:        product.ID,
		ProductName:      product.Name,
		PreviousQuantity: previous,
		NewQuantity:      target,
		Reason:           change.Reason,
		OrderId:          change.OrderId,
		UserId:           change.UserId,
		AdminName:        change.AdminName,
		Details:          change.Details,
	}
	if err := models.AppendInventoryLog(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func applyVariantChangeTx(tx *gorm.DB, change *InventoryChange) (*models.InventoryLog, error) {
	var variant models.ProductVariant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&variant, *change.VariantId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("variant %d: %w", *change.VariantId, utils.ErrorRecordNotFound)
		}
		return nil, err
	}
	if variant.ProductId != change.ProductId {
		return nil, fmt.Errorf("variant %d does not belong to product %d", variant.ID, change.ProductId)
	}
	if variant.InventoryManaged != nil && !*variant.InventoryManaged {
		return nil, fmt.Errorf("variant %d %w", variant.ID, utils.ErrorInventoryNotTracked)
	}

	var product models.Product
	if err := tx.First(&product, change.ProductId).Error; err != nil {
		return nil, err
	}

	previous := variant.InventoryQuantity
	target := targetQuantity(previous, change)
	if target == previous && !change.alwaysLogs() {
		return nil, nil
	}

	status := variant.InventoryStatus
	if status != models.InventoryStatusDiscontinued {
		status = models.ClassifyInventoryStatus(target, variant.LowStockThreshold)
	}

	err = tx.Model(&models.ProductVariant{}).
		Where("id = ?", variant.ID).
		Updates(map[string]interface{}{
			"inventory_quantity": target,
			"inventory_status":   status,
		}).Error
	if err != nil {
		return nil, err
	}

	entry := &models.InventoryLog{
		ProductId:        product.ID,
		ProductName:      product.Name,
		VariantId:        &variant.ID,
		VariantName:      variant.DisplayName(),
		PreviousQuantity: previous,
		NewQuantity:      target,
		Reason:           change.Reason,
		OrderId:          change.OrderId,
		UserId:           change.UserId,
		AdminName:        change.AdminName,
		Details:          change.Details,
	}
	if err := models.AppendInventoryLog(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
