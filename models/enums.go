package models

import (
	"encoding/json"
	"errors"
)

type ProductType string

const (
	ProductTypeSingle  ProductType = "S"
	ProductTypeVariant ProductType = "V"
)

func (t ProductType) Valid() bool {
	return t == ProductTypeSingle || t == ProductTypeVariant
}

type InventoryStatus string

const (
	InventoryStatusInStock      InventoryStatus = "in_stock"
	InventoryStatusLowStock     InventoryStatus = "low_stock"
	InventoryStatusOutOfStock   InventoryStatus = "out_of_stock"
	InventoryStatusDiscontinued InventoryStatus = "discontinued"
)

func (s *InventoryStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("inventory status must be string")
	}
	switch InventoryStatus(str) {
	case InventoryStatusInStock, InventoryStatusLowStock, InventoryStatusOutOfStock, InventoryStatusDiscontinued:
		*s = InventoryStatus(str)
	default:
		return errors.New("invalid inventory status")
	}
	return nil
}

type InventoryLogReason string

const (
	InventoryLogReasonOrder          InventoryLogReason = "order"
	InventoryLogReasonManual         InventoryLogReason = "manual"
	InventoryLogReasonReturn         InventoryLogReason = "return"
	InventoryLogReasonAdjustment     InventoryLogReason = "adjustment"
	InventoryLogReasonProductCreated InventoryLogReason = "product_created"
	InventoryLogReasonProductUpdated InventoryLogReason = "product_updated"
	InventoryLogReasonProductDeleted InventoryLogReason = "product_deleted"
)

func (r InventoryLogReason) Valid() bool {
	switch r {
	case InventoryLogReasonOrder, InventoryLogReasonManual, InventoryLogReasonReturn,
		InventoryLogReasonAdjustment, InventoryLogReasonProductCreated,
		InventoryLogReasonProductUpdated, InventoryLogReasonProductDeleted:
		return true
	}
	return false
}

func (r *InventoryLogReason) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("inventory log reason must be string")
	}
	if !InventoryLogReason(str).Valid() {
		return errors.New("invalid inventory log reason")
	}
	*r = InventoryLogReason(str)
	return nil
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsTerminal reports whether no further status transition is accepted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("order status must be string")
	}
	if !OrderStatus(str).Valid() {
		return errors.New("invalid order status")
	}
	*s = OrderStatus(str)
	return nil
}

type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodMrw      DeliveryMethod = "mrw"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryMethodDelivery || m == DeliveryMethodMrw || m == DeliveryMethodPickup
}

func (m *DeliveryMethod) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("delivery method must be string")
	}
	if !DeliveryMethod(str).Valid() {
		return errors.New("invalid delivery method")
	}
	*m = DeliveryMethod(str)
	return nil
}

type PaymentMethod string

const (
	PaymentMethodZelle     PaymentMethod = "zelle"
	PaymentMethodPagoMovil PaymentMethod = "pago_movil"
	PaymentMethodBinance   PaymentMethod = "binance"
	PaymentMethodCash      PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodZelle, PaymentMethodPagoMovil, PaymentMethodBinance, PaymentMethodCash:
		return true
	}
	return false
}

func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("payment method must be string")
	}
	if !PaymentMethod(str).Valid() {
		return errors.New("invalid payment method")
	}
	*m = PaymentMethod(str)
	return nil
}
