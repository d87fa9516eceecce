// inventory-rebuild recomputes the inventory status of every product and
// variant from its stored quantity and threshold. Useful after changing
// thresholds in bulk or repairing rows edited outside the API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/models"
	"gorm.io/gorm"
)

func main() {
	productID := flag.Int("product-id", 0, "Optional: rebuild only one product")
	dryRun := flag.Bool("dry-run", false, "Report what would change without writing")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	changed, err := rebuildProducts(db, logger, *productID, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "product rebuild failed: %v\n", err)
		os.Exit(1)
	}

	variantChanged, err := rebuildVariants(db, logger, *productID, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "variant rebuild failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("done: %d products, %d variants reclassified (dry-run=%v)\n", changed, variantChanged, *dryRun)
}

func rebuildProducts(db *gorm.DB, logger *logrus.Logger, productID int, dryRun bool) (int, error) {
	query := db.Model(&models.Product{}).
		Where("inventory_status <> ?", models.InventoryStatusDiscontinued)
	if productID > 0 {
		query = query.Where("id = ?", productID)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return 0, err
	}

	changed := 0
	for _, p := range products {
		want := models.ClassifyInventoryStatus(p.InventoryQuantity, p.LowStockThreshold)
		if want == p.InventoryStatus {
			continue
		}
		changed++
		logger.WithFields(logrus.Fields{
			"product_id": p.ID,
			"quantity":   p.InventoryQuantity,
			"from":       p.InventoryStatus,
			"to":         want,
		}).Info("reclassifying product")
		if dryRun {
			continue
		}
		err := db.Model(&models.Product{}).
			Where("id = ?", p.ID).
			Update("inventory_status", want).Error
		if err != nil {
			return changed, err
		}
		models.InvalidateProductCache(p.ID)
	}
	return changed, nil
}

func rebuildVariants(db *gorm.DB, logger *logrus.Logger, productID int, dryRun bool) (int, error) {
	query := db.Model(&models.ProductVariant{}).
		Where("inventory_status <> ?", models.InventoryStatusDiscontinued)
	if productID > 0 {
		query = query.Where("product_id = ?", productID)
	}

	var variants []models.ProductVariant
	if err := query.Find(&variants).Error; err != nil {
		return 0, err
	}

	changed := 0
	for _, v := range variants {
		want := models.ClassifyInventoryStatus(v.InventoryQuantity, v.LowStockThreshold)
		if want == v.InventoryStatus {
			continue
		}
		changed++
		logger.WithFields(logrus.Fields{
			"variant_id": v.ID,
			"product_id": v.ProductId,
			"quantity":   v.InventoryQuantity,
			"from":       v.InventoryStatus,
			"to":         want,
		}).Info("reclassifying variant")
		if dryRun {
			continue
		}
		err := db.Model(&models.ProductVariant{}).
			Where("id = ?", v.ID).
			Update("inventory_status", want).Error
		if err != nil {
			return changed, err
		}
		models.InvalidateProductCache(v.ProductId)
	}
	return changed, nil
}
