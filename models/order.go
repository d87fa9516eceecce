package models

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
)

type Order struct {
	ID string `gorm:"primary_key;size:30" json:"id"`

	CustomerName string `gorm:"size:100;not null" json:"customer_name"`
	Email        string `gorm:"size:100;not null" json:"email"`
	Phone        string `gorm:"size:30;not null" json:"phone"`
	Cedula       string `gorm:"size:20" json:"cedula"`

	DeliveryMethod DeliveryMethod `gorm:"type:enum('delivery','mrw','pickup');not null" json:"delivery_method"`
	Address        string         `gorm:"size:255" json:"address,omitempty"`
	City           string         `gorm:"size:100" json:"city,omitempty"`
	State          string         `gorm:"size:100" json:"state,omitempty"`
	MrwOffice      string         `gorm:"size:150" json:"mrw_office,omitempty"`

	PaymentMethod PaymentMethod `gorm:"type:enum('zelle','pago_movil','binance','cash');not null" json:"payment_method"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`

	Items []OrderItem     `gorm:"foreignkey:OrderId" json:"items"`
	Total decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`

	Status OrderStatus `gorm:"type:enum('pending','processing','completed','cancelled');default:'pending';index" json:"status"`

	// InventoryUpdated guards against double decrement: set once the stock
	// for this order has been taken out, never reset (a cancelled order
	// restocks instead).
	InventoryUpdated *bool `gorm:"not null;default:false" json:"inventory_updated"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItem snapshots name, sku and price at purchase time so later product
// edits do not rewrite order history.
type OrderItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OrderId     string          `gorm:"index;size:30;not null" json:"order_id"`
	ProductId   int             `gorm:"index;not null" json:"product_id"`
	VariantId   *int            `gorm:"index" json:"variant_id,omitempty"`
	ProductName string          `gorm:"size:200;not null" json:"product_name"`
	VariantName string          `gorm:"size:200" json:"variant_name,omitempty"`
	Sku         string          `gorm:"size:100" json:"sku"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type NewCustomerInfo struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Phone  string `json:"phone" binding:"required"`
	Cedula string `json:"cedula" binding:"required"`
}

type NewOrderItem struct {
	ProductId int  `json:"product_id" binding:"required"`
	VariantId *int `json:"variant_id"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

type NewOrder struct {
	Customer       NewCustomerInfo `json:"customer" binding:"required"`
	DeliveryMethod DeliveryMethod  `json:"delivery_method" binding:"required"`
	Address        string          `json:"address"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	MrwOffice      string          `json:"mrw_office"`
	PaymentMethod  PaymentMethod   `json:"payment_method" binding:"required"`
	Notes          string          `json:"notes"`
	Items          []NewOrderItem  `json:"items"`
}

// GenerateOrderNumber produces ids like ORD-MBQW3K2J-0F7A2M: a base36
// timestamp plus a base36 random suffix, both uppercased. Collisions within
// the same millisecond are covered by the random part.
func GenerateOrderNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	max := big.NewInt(0).Exp(big.NewInt(36), big.NewInt(6), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 2176782336)
	}
	suffix := strconv.FormatInt(n.Int64(), 36)
	for len(suffix) < 6 {
		suffix = "0" + suffix
	}

	return strings.ToUpper("ORD-" + ts + "-" + suffix)
}

func ComputeOrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

type OrderFilter struct {
	Status     *OrderStatus `form:"status"`
	SearchTerm string       `form:"search"`
	DateFrom   *time.Time   `form:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time   `form:"date_to" time_format:"2006-01-02"`
	Pagination
}

func GetOrders(ctx context.Context, filter *OrderFilter) ([]*Order, *PageInfo, error) {
	filter.Normalize()

	db := config.GetDB()
	query := db.WithContext(ctx).Model(&Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at < ?", filter.DateTo.AddDate(0, 0, 1))
	}
	if filter.SearchTerm != "" {
		term := "%" + filter.SearchTerm + "%"
		query = query.Where("id LIKE ? OR customer_name LIKE ? OR email LIKE ? OR phone LIKE ?", term, term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var orders []*Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, nil, err
	}

	return orders, NewPageInfo(filter.Pagination, total), nil
}

func GetOrderById(ctx context.Context, id string) (*Order, error) {
	db := config.GetDB()
	var order Order
	err := db.WithContext(ctx).Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &order, nil
}
