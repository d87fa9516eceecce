package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/utils"
	"github.com/velastore/tienda_backend/workflow"
	"gorm.io/gorm"
)

// Regression: completing an order must decrement stock exactly once and write
// exactly one ledger row per item; re-completing must be rejected; cancelling
// a completed order must restock the same quantities.
func TestOrderLifecycle_StockMovesExactlyOnce(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "tienda_test")
	t.Setenv("NOTIFY_TOPIC", "")
	t.Setenv("INVENTORY_ALLOW_BACKORDERS", "")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	lowStock := 5
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:              "Camiseta Basica",
		Sku:               "TEE-001",
		Price:             decimal.RequireFromString("12.50"),
		InventoryQuantity: 10,
		LowStockThreshold: &lowStock,
	}, 1, "Test")
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	order, err := workflow.CreateOrder(ctx, &models.NewOrder{
		Customer: models.NewCustomerInfo{
			Name:   "Maria Perez",
			Email:  "maria@example.com",
			Phone:  "+584121234567",
			Cedula: "V-12345678",
		},
		DeliveryMethod: models.DeliveryMethodPickup,
		PaymentMethod:  models.PaymentMethodZelle,
		Items: []models.NewOrderItem{
			{ProductId: product.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("new order status = %s, want pending", order.Status)
	}
	if !order.Total.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("order total = %s, want 25.00", order.Total)
	}

	// pending -> processing: no stock movement
	if _, err := workflow.TransitionOrderStatus(ctx, order.ID, models.OrderStatusProcessing, 1, "Test"); err != nil {
		t.Fatalf("transition to processing: %v", err)
	}
	assertProductQty(t, db, product.ID, 10)

	// processing -> completed: decrement once
	completed, err := workflow.TransitionOrderStatus(ctx, order.ID, models.OrderStatusCompleted, 1, "Test")
	if err != nil {
		t.Fatalf("transition to completed: %v", err)
	}
	if completed.InventoryUpdated == nil || !*completed.InventoryUpdated {
		t.Fatal("inventory_updated must be true after completion")
	}
	assertProductQty(t, db, product.ID, 8)

	var orderLogs int64
	err = db.Model(&models.InventoryLog{}).
		Where("order_id = ? AND reason = ?", order.ID, models.InventoryLogReasonOrder).
		Count(&orderLogs).Error
	if err != nil {
		t.Fatalf("count order logs: %v", err)
	}
	if orderLogs != 1 {
		t.Fatalf("order ledger rows = %d, want exactly 1", orderLogs)
	}

	// completed -> completed: rejected, no second decrement
	_, err = workflow.TransitionOrderStatus(ctx, order.ID, models.OrderStatusCompleted, 1, "Test")
	if !errors.Is(err, utils.ErrorOrderTerminalState) {
		t.Fatalf("double completion error = %v, want ErrorOrderTerminalState", err)
	}
	assertProductQty(t, db, product.ID, 8)

	// completed is terminal: cancellation is rejected too
	_, err = workflow.TransitionOrderStatus(ctx, order.ID, models.OrderStatusCancelled, 1, "Test")
	if !errors.Is(err, utils.ErrorOrderTerminalState) {
		t.Fatalf("cancel after completion error = %v, want ErrorOrderTerminalState", err)
	}
	assertProductQty(t, db, product.ID, 8)

	// Restock keys on inventory_updated, not on the previous status: put the
	// order back to processing by hand (the flag stays true) and cancel.
	err = db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", models.OrderStatusProcessing).Error
	if err != nil {
		t.Fatalf("reset order status: %v", err)
	}
	if _, err := workflow.TransitionOrderStatus(ctx, order.ID, models.OrderStatusCancelled, 1, "Test"); err != nil {
		t.Fatalf("transition to cancelled: %v", err)
	}
	assertProductQty(t, db, product.ID, 10)

	var returnLogs int64
	err = db.Model(&models.InventoryLog{}).
		Where("order_id = ? AND reason = ?", order.ID, models.InventoryLogReasonReturn).
		Count(&returnLogs).Error
	if err != nil {
		t.Fatalf("count return logs: %v", err)
	}
	if returnLogs != 1 {
		t.Fatalf("return ledger rows = %d, want exactly 1", returnLogs)
	}

	// cancelled is terminal
	_, err = workflow.TransitionOrderStatus(ctx, order.ID, models.OrderStatusProcessing, 1, "Test")
	if !errors.Is(err, utils.ErrorOrderTerminalState) {
		t.Fatalf("transition from cancelled error = %v, want ErrorOrderTerminalState", err)
	}

	// Manual oversell clamps at zero and still writes a ledger row.
	entry, err := workflow.ApplyInventoryChange(ctx, &workflow.InventoryChange{
		ProductId: product.ID,
		AdjustBy:  -100,
		Reason:    models.InventoryLogReasonManual,
		AdminName: "Test",
	})
	if err != nil {
		t.Fatalf("ApplyInventoryChange oversell: %v", err)
	}
	if entry == nil || entry.NewQuantity != 0 {
		t.Fatalf("oversell entry = %+v, want new_quantity 0", entry)
	}
	assertProductQty(t, db, product.ID, 0)

	var p models.Product
	if err := db.First(&p, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.InventoryStatus != models.InventoryStatusOutOfStock {
		t.Fatalf("product status = %s, want out_of_stock", p.InventoryStatus)
	}

	// Completing an order against an already-empty shelf clamps at zero but
	// still writes the audit row for the sale.
	zeroOrder, err := workflow.CreateOrder(ctx, &models.NewOrder{
		Customer: models.NewCustomerInfo{
			Name:   "Jose Gomez",
			Email:  "jose@example.com",
			Phone:  "+584141234567",
			Cedula: "V-87654321",
		},
		DeliveryMethod: models.DeliveryMethodPickup,
		PaymentMethod:  models.PaymentMethodCash,
		Items: []models.NewOrderItem{
			{ProductId: product.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder on empty shelf: %v", err)
	}
	if _, err := workflow.TransitionOrderStatus(ctx, zeroOrder.ID, models.OrderStatusCompleted, 1, "Test"); err != nil {
		t.Fatalf("complete order on empty shelf: %v", err)
	}
	assertProductQty(t, db, product.ID, 0)

	var clampedLog models.InventoryLog
	err = db.Where("order_id = ? AND reason = ?", zeroOrder.ID, models.InventoryLogReasonOrder).
		First(&clampedLog).Error
	if err != nil {
		t.Fatalf("load clamped ledger row: %v", err)
	}
	if clampedLog.PreviousQuantity != 0 || clampedLog.NewQuantity != 0 {
		t.Fatalf("clamped ledger row = %d -> %d, want 0 -> 0",
			clampedLog.PreviousQuantity, clampedLog.NewQuantity)
	}

	// Product form edits go through the same locks as the ledger writer and
	// record the real previous quantity.
	threshold := 2
	updated, err := models.UpdateProduct(ctx, product.ID, &models.NewProduct{
		Name:              "Camiseta Basica",
		Sku:               "TEE-001",
		Price:             decimal.RequireFromString("12.50"),
		InventoryQuantity: 7,
		LowStockThreshold: &threshold,
	}, 1, "Test")
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.InventoryQuantity != 7 || updated.InventoryStatus != models.InventoryStatusInStock {
		t.Fatalf("updated product = qty %d status %s, want 7 in_stock",
			updated.InventoryQuantity, updated.InventoryStatus)
	}

	var editLog models.InventoryLog
	err = db.Where("product_id = ? AND reason = ?", product.ID, models.InventoryLogReasonProductUpdated).
		Order("created_at DESC, id DESC").
		First(&editLog).Error
	if err != nil {
		t.Fatalf("load product_updated ledger row: %v", err)
	}
	if editLog.PreviousQuantity != 0 || editLog.NewQuantity != 7 {
		t.Fatalf("product_updated ledger row = %d -> %d, want 0 -> 7",
			editLog.PreviousQuantity, editLog.NewQuantity)
	}
}

func assertProductQty(t *testing.T, db *gorm.DB, productId int, want int) {
	t.Helper()
	var p models.Product
	if err := db.First(&p, productId).Error; err != nil {
		t.Fatalf("load product %d: %v", productId, err)
	}
	if p.InventoryQuantity != want {
		t.Fatalf("product %d quantity = %d, want %d", productId, p.InventoryQuantity, want)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("tienda-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("tienda-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=tienda_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
