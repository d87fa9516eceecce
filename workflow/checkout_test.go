package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/utils"
	"github.com/velastore/tienda_backend/workflow"
)

// Input validation runs before any catalog lookup, so these cases need no DB.

func validCheckoutInput() *models.NewOrder {
	return &models.NewOrder{
		Customer: models.NewCustomerInfo{
			Name:   "Maria Perez",
			Email:  "maria@example.com",
			Phone:  "+584121234567",
			Cedula: "V-12345678",
		},
		DeliveryMethod: models.DeliveryMethodPickup,
		PaymentMethod:  models.PaymentMethodZelle,
		Items: []models.NewOrderItem{
			{ProductId: 1, Quantity: 1},
		},
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	input := validCheckoutInput()
	input.Items = nil

	_, err := workflow.CreateOrder(context.Background(), input)
	if !errors.Is(err, utils.ErrorEmptyCart) {
		t.Fatalf("err = %v, want ErrorEmptyCart", err)
	}
}

func TestCreateOrder_DeliveryRequiresAddress(t *testing.T) {
	input := validCheckoutInput()
	input.DeliveryMethod = models.DeliveryMethodDelivery
	input.Address = ""

	_, err := workflow.CreateOrder(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for delivery order without address")
	}
}

func TestCreateOrder_MrwRequiresOffice(t *testing.T) {
	input := validCheckoutInput()
	input.DeliveryMethod = models.DeliveryMethodMrw
	input.MrwOffice = ""

	_, err := workflow.CreateOrder(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for mrw order without office")
	}
}

func TestCreateOrder_InvalidDeliveryMethod(t *testing.T) {
	input := validCheckoutInput()
	input.DeliveryMethod = models.DeliveryMethod("drone")

	_, err := workflow.CreateOrder(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for unknown delivery method")
	}
}

func TestCreateOrder_InvalidPaymentMethod(t *testing.T) {
	input := validCheckoutInput()
	input.PaymentMethod = models.PaymentMethod("cheque")

	_, err := workflow.CreateOrder(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for unknown payment method")
	}
}

func TestCreateOrder_MissingCedula(t *testing.T) {
	input := validCheckoutInput()
	input.Customer.Cedula = "  "

	_, err := workflow.CreateOrder(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for missing cedula")
	}
}

func TestCreateOrder_InvalidEmail(t *testing.T) {
	input := validCheckoutInput()
	input.Customer.Email = "not-an-email"

	_, err := workflow.CreateOrder(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for invalid email")
	}
}
