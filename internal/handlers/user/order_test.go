package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vestia_back_end/internal/gateway"
	"vestia_back_end/internal/models"
)

func stubGateway(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	prev := Gateway
	Gateway = gateway.NewClient(gateway.Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
	t.Cleanup(func() { Gateway = prev })
}

func newCardOrder() *models.Order {
	return &models.Order{
		OrderNumber: "VST-202608-000042",
		Status:      models.OrderPending,
		Payment: models.OrderPayment{
			Method: models.MethodCreditCard,
			Status: models.PaymentPending,
		},
	}
}

func TestChargeCardConfirmedMarksOrderPaid(t *testing.T) {
	stubGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gateway.Payment{ID: "pay_1", Status: gateway.StatusConfirmed, Value: 200})
	})
	order := newCardOrder()

	err := chargeCard(context.Background(), order, gateway.ChargeRequest{CustomerID: "cus_1", Value: 200},
		gateway.CardDetails{HolderName: "Ana Silva", Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: "2030", CCV: "123"},
		models.User{Email: "ana@example.com", CPF: "12345678909"}, 1)
	require.NoError(t, err)

	assert.Equal(t, "pay_1", order.Payment.TransactionID)
	assert.Equal(t, models.PaymentPaid, order.Payment.Status)
	require.NotNil(t, order.Payment.PaidAt)
	assert.Equal(t, models.OrderPaid, order.Status)
	require.NotEmpty(t, order.StatusHistory)
	last := order.StatusHistory[len(order.StatusHistory)-1]
	assert.Equal(t, models.OrderPaid, last.Status)
	assert.Equal(t, "Pagamento confirmado", last.Note)
}

func TestChargeCardUnderAnalysisStaysProcessing(t *testing.T) {
	stubGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gateway.Payment{ID: "pay_2", Status: gateway.StatusPending, Value: 200})
	})
	order := newCardOrder()

	err := chargeCard(context.Background(), order, gateway.ChargeRequest{CustomerID: "cus_1", Value: 200},
		gateway.CardDetails{HolderName: "Ana Silva", Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: "2030", CCV: "123"},
		models.User{Email: "ana@example.com", CPF: "12345678909"}, 1)
	require.NoError(t, err)

	// En analyse : le webhook PAYMENT_CONFIRMED fera la transition.
	assert.Equal(t, models.PaymentProcessing, order.Payment.Status)
	assert.Nil(t, order.Payment.PaidAt)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Empty(t, order.StatusHistory)
}
