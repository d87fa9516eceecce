package notify

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/utils"
)

const (
	EventOrderConfirmation = "order_confirmation"
	EventAdminNewOrder     = "admin_new_order"
	EventOrderStatusUpdate = "order_status_update"
)

const publishTimeout = 30 * time.Second

type orderPayload struct {
	OrderNumber    string             `json:"order_number"`
	CustomerName   string             `json:"customer_name"`
	Status         models.OrderStatus `json:"status"`
	Total          string             `json:"total"`
	DeliveryMethod string             `json:"delivery_method"`
	PaymentMethod  string             `json:"payment_method"`
	Items          []itemPayload      `json:"items"`
}

type itemPayload struct {
	Name     string `json:"name"`
	Variant  string `json:"variant,omitempty"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

func buildOrderPayload(order *models.Order) ([]byte, error) {
	items := make([]itemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemPayload{
			Name:     item.ProductName,
			Variant:  item.VariantName,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
		})
	}
	return json.Marshal(orderPayload{
		OrderNumber:    order.ID,
		CustomerName:   order.CustomerName,
		Status:         order.Status,
		Total:          order.Total.StringFixed(2),
		DeliveryMethod: string(order.DeliveryMethod),
		PaymentMethod:  string(order.PaymentMethod),
		Items:          items,
	})
}

func correlationId(ctx context.Context) string {
	if id, ok := utils.GetCorrelationIdFromContext(ctx); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func publish(ctx context.Context, event string, order *models.Order, recipient string) error {
	if !config.NotificationsEnabled() {
		return nil
	}

	payload, err := buildOrderPayload(order)
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	_, err = config.PublishNotification(pubCtx, config.NotificationMessage{
		Event:         event,
		OrderNumber:   order.ID,
		Recipient:     recipient,
		Payload:       payload,
		CorrelationId: correlationId(ctx),
		CreatedAt:     time.Now().UTC(),
	})
	return err
}

// SendOrderConfirmationEmail queues the customer confirmation for a new order.
func SendOrderConfirmationEmail(ctx context.Context, order *models.Order) error {
	return publish(ctx, EventOrderConfirmation, order, order.Email)
}

// SendAdminOrderNotification queues the shop-owner alert for a new order.
func SendAdminOrderNotification(ctx context.Context, order *models.Order) error {
	recipient := os.Getenv("ADMIN_NOTIFY_EMAIL")
	if recipient == "" {
		return nil
	}
	return publish(ctx, EventAdminNewOrder, order, recipient)
}

// SendOrderStatusUpdateEmail queues the customer email for a status change.
func SendOrderStatusUpdateEmail(ctx context.Context, order *models.Order) error {
	return publish(ctx, EventOrderStatusUpdate, order, order.Email)
}
