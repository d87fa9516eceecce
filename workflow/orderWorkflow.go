package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/notify"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateOrder validates the checkout input, snapshots the cart against the
// current catalog and stores the order as pending. Stock is NOT touched here;
// it only moves when the order is completed.
func CreateOrder(ctx context.Context, input *models.NewOrder) (*models.Order, error) {
	logger := config.GetLogger()

	if len(input.Items) == 0 {
		return nil, utils.ErrorEmptyCart
	}
	if !input.DeliveryMethod.Valid() {
		return nil, errors.New("invalid delivery method")
	}
	if !input.PaymentMethod.Valid() {
		return nil, errors.New("invalid payment method")
	}
	if input.DeliveryMethod == models.DeliveryMethodDelivery && input.Address == "" {
		return nil, errors.New("address is required for delivery orders")
	}
	if input.DeliveryMethod == models.DeliveryMethodMrw && input.MrwOffice == "" {
		return nil, errors.New("mrw office is required for mrw orders")
	}
	if !utils.IsValidEmail(input.Customer.Email) {
		return nil, errors.New("invalid email address")
	}
	if strings.TrimSpace(input.Customer.Cedula) == "" {
		return nil, errors.New("cedula is required")
	}
	// Phone format problems are logged, not rejected: customers type
	// numbers in all sorts of shapes and a lost sale costs more than a
	// sloppy phone field.
	if err := utils.ValidatePhoneNumber(input.Customer.Phone, utils.CountryCode); err != nil {
		logger.WithField("phone", input.Customer.Phone).
			Warn("checkout phone did not parse, accepting as-is")
	}

	items, err := buildOrderItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		ID:               models.GenerateOrderNumber(),
		CustomerName:     input.Customer.Name,
		Email:            input.Customer.Email,
		Phone:            input.Customer.Phone,
		Cedula:           input.Customer.Cedula,
		DeliveryMethod:   input.DeliveryMethod,
		Address:          input.Address,
		City:             input.City,
		State:            input.State,
		MrwOffice:        input.MrwOffice,
		PaymentMethod:    input.PaymentMethod,
		Notes:            input.Notes,
		Items:            items,
		Total:            models.ComputeOrderTotal(items),
		Status:           models.OrderStatusPending,
		InventoryUpdated: utils.NewFalse(),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	// Notifications are best-effort: the order is already committed.
	if err := notify.SendOrderConfirmationEmail(ctx, &order); err != nil {
		config.LogError(logger, "workflow", "CreateOrder", "order confirmation notify", order.ID, err)
	}
	if err := notify.SendAdminOrderNotification(ctx, &order); err != nil {
		config.LogError(logger, "workflow", "CreateOrder", "admin order notify", order.ID, err)
	}

	return &order, nil
}

func buildOrderItems(ctx context.Context, inputs []models.NewOrderItem) ([]models.OrderItem, error) {
	db := config.GetDB()
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		var product models.Product
		err := db.WithContext(ctx).First(&product, in.ProductId).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("product %d not found", in.ProductId)
			}
			return nil, err
		}
		if product.IsDiscontinued() {
			return nil, fmt.Errorf("product %q is no longer available", product.Name)
		}

		item := models.OrderItem{
			ProductId:   product.ID,
			ProductName: product.Name,
			Sku:         product.Sku,
			Price:       product.Price,
			Quantity:    in.Quantity,
		}

		if in.VariantId != nil {
			var variant models.ProductVariant
			err := db.WithContext(ctx).First(&variant, *in.VariantId).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("variant %d not found", *in.VariantId)
				}
				return nil, err
			}
			if variant.ProductId != product.ID {
				return nil, fmt.Errorf("variant %d does not belong to product %d", variant.ID, product.ID)
			}
			if variant.InventoryStatus == models.InventoryStatusDiscontinued {
				return nil, fmt.Errorf("variant %q is no longer available", variant.DisplayName())
			}
			item.VariantId = in.VariantId
			item.VariantName = variant.DisplayName()
			item.Sku = variant.Sku
			if variant.Price != nil {
				item.Price = *variant.Price
			}
		}

		items = append(items, item)
	}
	return items, nil
}

// validateStatusTransition is the order state machine. Completed and
// cancelled accept nothing; pending is entry-only; same-state transitions are
// rejected so the inventory side effects cannot fire twice through this path.
func validateStatusTransition(current, next models.OrderStatus) error {
	if !next.Valid() {
		return errors.New("invalid order status")
	}
	if current.IsTerminal() {
		return utils.ErrorOrderTerminalState
	}
	if next == models.OrderStatusPending {
		return errors.New("orders cannot return to pending")
	}
	if next == current {
		return fmt.Errorf("order is already %s", current)
	}
	return nil
}

// TransitionOrderStatus moves an order through its lifecycle. Completing an
// order decrements stock for every managed item exactly once. Cancelling an
// order whose stock was already taken out restocks the same quantities; the
// restock branch keys on the inventory_updated flag, not on the previous
// status. Both run in the same transaction as the status update.
func TransitionOrderStatus(ctx context.Context, orderId string, next models.OrderStatus, userId int, userName string) (*models.Order, error) {
	logger := config.GetLogger()

	guard, err := obtainRedisGuard(ctx, "orderlock:"+orderId, "TransitionOrderStatus")
	if err != nil {
		return nil, err
	}
	defer releaseRedisGuard(ctx, guard)

	db := config.GetDB()
	var order models.Order
	touchedProducts := make([]int, 0)

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.AcquireOrderPostingLock(tx, orderId); err != nil {
			return err
		}
		defer models.ReleaseOrderPostingLock(tx, orderId)

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").
			Where("id = ?", orderId).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		if err := validateStatusTransition(order.Status, next); err != nil {
			return err
		}

		updates := map[string]interface{}{"status": next}

		inventoryUpdated := order.InventoryUpdated != nil && *order.InventoryUpdated
		switch {
		case next == models.OrderStatusCompleted && !inventoryUpdated:
			touched, err := decrementOrderStock(tx, &order, userId, userName)
			if err != nil {
				return err
			}
			touchedProducts = touched
			updates["inventory_updated"] = true
		case next == models.OrderStatusCancelled && inventoryUpdated:
			touched, err := restockOrder(tx, &order, userId, userName)
			if err != nil {
				return err
			}
			touchedProducts = touched
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", orderId).Updates(updates).Error; err != nil {
			return err
		}

		order.Status = next
		if v, ok := updates["inventory_updated"]; ok {
			b := v.(bool)
			order.InventoryUpdated = &b
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, productId := range touchedProducts {
		models.InvalidateProductCache(productId)
	}

	if err := notify.SendOrderStatusUpdateEmail(ctx, &order); err != nil {
		config.LogError(logger, "workflow", "TransitionOrderStatus", "status update notify", order.ID, err)
	}

	return &order, nil
}

// decrementOrderStock takes stock out for every managed line item. Items
// whose product or variant has vanished or stopped tracking inventory are
// skipped with a warning rather than blocking completion.
func decrementOrderStock(tx *gorm.DB, order *models.Order, userId int, userName string) ([]int, error) {
	logger := config.GetLogger()
	touched := make([]int, 0, len(order.Items))
	for _, item := range order.Items {
		change := &InventoryChange{
			ProductId: item.ProductId,
			VariantId: item.VariantId,
			AdjustBy:  -item.Quantity,
			Reason:    models.InventoryLogReasonOrder,
			OrderId:   &order.ID,
			UserId:    utils.NilIfEmpty(userId),
			AdminName: userName,
		}
		entry, err := applyInventoryChangeTx(tx, change)
		if err != nil {
			if isSkippableStockError(err) {
				logger.WithField("order_id", order.ID).
					WithField("product_id", item.ProductId).
					Warn("skipping stock decrement: " + err.Error())
				continue
			}
			return nil, err
		}
		if entry != nil {
			touched = append(touched, item.ProductId)
		}
	}
	return touched, nil
}

// restockOrder puts the order quantities back, uncapped. The ledger reason
// is "return" so restocks are distinguishable from the original sale.
func restockOrder(tx *gorm.DB, order *models.Order, userId int, userName string) ([]int, error) {
	logger := config.GetLogger()
	touched := make([]int, 0, len(order.Items))
	for _, item := range order.Items {
		change := &InventoryChange{
			ProductId: item.ProductId,
			VariantId: item.VariantId,
			AdjustBy:  item.Quantity,
			Reason:    models.InventoryLogReasonReturn,
			OrderId:   &order.ID,
			UserId:    utils.NilIfEmpty(userId),
			AdminName: userName,
			Details:   "restock on cancellation",
		}
		entry, err := applyInventoryChangeTx(tx, change)
		if err != nil {
			if isSkippableStockError(err) {
				logger.WithField("order_id", order.ID).
					WithField("product_id", item.ProductId).
					Warn("skipping restock: " + err.Error())
				continue
			}
			return nil, err
		}
		if entry != nil {
			touched = append(touched, item.ProductId)
		}
	}
	return touched, nil
}

// isSkippableStockError marks the ledger-writer failures that must not block
// an order transition: the line item's product or variant was removed or
// stopped tracking inventory since the order was placed.
func isSkippableStockError(err error) bool {
	return errors.Is(err, utils.ErrorRecordNotFound) ||
		errors.Is(err, utils.ErrorInventoryNotTracked)
}
