package models

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velastore/tienda_backend/config"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// InventoryLog is the append-only stock movement ledger. Rows are only ever
// inserted, and only through AppendInventoryLog inside the same transaction
// that mutates the product quantity.
type InventoryLog struct {
	ID               string             `gorm:"primary_key;size:36" json:"id"`
	ProductId        int                `gorm:"index;not null" json:"product_id"`
	ProductName      string             `gorm:"size:200;not null" json:"product_name"`
	VariantId        *int               `gorm:"index" json:"variant_id,omitempty"`
	VariantName      string             `gorm:"size:200" json:"variant_name,omitempty"`
	PreviousQuantity int                `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int                `gorm:"not null" json:"new_quantity"`
	Reason           InventoryLogReason `gorm:"index;size:30;not null" json:"reason"`
	OrderId          *string            `gorm:"index;size:30" json:"order_id,omitempty"`
	UserId           *int               `gorm:"index" json:"user_id,omitempty"`
	AdminName        string             `gorm:"size:100" json:"admin_name,omitempty"`
	Details          string             `gorm:"type:text" json:"details,omitempty"`
	CreatedAt        time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
}

// QuantityDelta is derived, never stored.
func (l InventoryLog) QuantityDelta() int {
	return l.NewQuantity - l.PreviousQuantity
}

// AppendInventoryLog inserts a ledger row in the caller's transaction.
// A failed insert must fail the surrounding stock mutation too, so the
// error is returned as-is for the caller to roll back on.
func AppendInventoryLog(tx *gorm.DB, entry *InventoryLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if !entry.Reason.Valid() {
		return fmt.Errorf("invalid inventory log reason: %s", entry.Reason)
	}
	return tx.Create(entry).Error
}

type InventoryLogFilter struct {
	ProductId  int                 `form:"product_id"`
	Reason     *InventoryLogReason `form:"reason"`
	UserId     int                 `form:"user_id"`
	OrderId    string              `form:"order_id"`
	DateFrom   *time.Time          `form:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time          `form:"date_to" time_format:"2006-01-02"`
	SearchTerm string              `form:"search"`
	Pagination
}

func (f *InventoryLogFilter) apply(db *gorm.DB) *gorm.DB {
	if f.ProductId > 0 {
		db = db.Where("product_id = ?", f.ProductId)
	}
	if f.Reason != nil {
		db = db.Where("reason = ?", *f.Reason)
	}
	if f.UserId > 0 {
		db = db.Where("user_id = ?", f.UserId)
	}
	if f.OrderId != "" {
		db = db.Where("order_id = ?", f.OrderId)
	}
	if f.DateFrom != nil {
		db = db.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		// inclusive end of day
		db = db.Where("created_at < ?", f.DateTo.AddDate(0, 0, 1))
	}
	if f.SearchTerm != "" {
		term := "%" + f.SearchTerm + "%"
		db = db.Where("product_name LIKE ? OR variant_name LIKE ? OR admin_name LIKE ? OR details LIKE ?", term, term, term, term)
	}
	return db
}

func GetInventoryLogs(ctx context.Context, filter *InventoryLogFilter) ([]*InventoryLog, *PageInfo, error) {
	filter.Normalize()

	db := config.GetDB()
	query := filter.apply(db.WithContext(ctx).Model(&InventoryLog{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var logs []*InventoryLog
	err := query.
		Order("created_at DESC, id DESC").
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&logs).Error
	if err != nil {
		return nil, nil, err
	}

	return logs, NewPageInfo(filter.Pagination, total), nil
}

var inventoryLogExportHeaders = []string{
	"Date", "Product", "Variant", "Previous Qty", "New Qty", "Change", "Reason", "Order", "Admin", "Details",
}

// ExportInventoryLogsExcel renders the filtered ledger as an xlsx workbook.
// Pagination on the filter is ignored; the export covers every matching row.
func ExportInventoryLogsExcel(ctx context.Context, filter *InventoryLogFilter) (*bytes.Buffer, error) {
	db := config.GetDB()
	var logs []*InventoryLog
	err := filter.apply(db.WithContext(ctx).Model(&InventoryLog{})).
		Order("created_at DESC, id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Inventory Logs"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range inventoryLogExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(inventoryLogExportHeaders), 1)
		f.SetCellStyle(sheet, "A1", endCell, headerStyle)
	}

	for i, log := range logs {
		row := i + 2
		values := []interface{}{
			log.CreatedAt.Format("2006-01-02 15:04:05"),
			log.ProductName,
			log.VariantName,
			log.PreviousQuantity,
			log.NewQuantity,
			log.QuantityDelta(),
			string(log.Reason),
			"",
			log.AdminName,
			log.Details,
		}
		if log.OrderId != nil {
			values[7] = *log.OrderId
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}
