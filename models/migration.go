package models

import "gorm.io/gorm"

// MigrateTable runs the schema migrations for every table.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&ProductCategory{},
		&Product{},
		&ProductVariant{},
		&InventoryLog{},
		&Order{},
		&OrderItem{},
		&User{},
		&Setting{},
	)
}
