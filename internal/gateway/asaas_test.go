package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestCreatePixChargeFetchesQrCode(t *testing.T) {
	var gotAuth string
	var gotBody chargeBody

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("access_token")
		switch r.URL.Path {
		case "/payments":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(Payment{ID: "pay_123", Status: StatusPending, Value: 180})
		case "/payments/pay_123/pixQrCode":
			json.NewEncoder(w).Encode(PixDetail{Payload: "00020126...", EncodedImage: "iVBOR..."})
		default:
			t.Fatalf("chemin inattendu: %s", r.URL.Path)
		}
	})

	pix, err := client.CreatePixCharge(context.Background(), ChargeRequest{
		CustomerID:        "cus_1",
		Value:             180,
		ExternalReference: "order-42",
	})
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, "PIX", gotBody.BillingType)
	assert.Equal(t, "order-42", gotBody.ExternalReference)
	assert.Equal(t, "pay_123", pix.ID)
	assert.Equal(t, "00020126...", pix.Pix.Payload)
	assert.Equal(t, "iVBOR...", pix.Pix.EncodedImage)
}

func TestCreatePixChargeSurvivesQrFetchFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/payments" {
			json.NewEncoder(w).Encode(Payment{ID: "pay_9", Status: StatusPending})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	pix, err := client.CreatePixCharge(context.Background(), ChargeRequest{CustomerID: "cus_1", Value: 50})
	require.NoError(t, err)
	assert.Equal(t, "pay_9", pix.ID)
	assert.Empty(t, pix.Pix.Payload)
}

func TestCreateCardChargeInstallments(t *testing.T) {
	var gotBody chargeBody
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Payment{ID: "pay_c", Status: StatusConfirmed, Value: 300})
	})

	payment, err := client.CreateCardCharge(context.Background(),
		ChargeRequest{CustomerID: "cus_1", Value: 300, ExternalReference: "order-7"},
		CardDetails{HolderName: "Ana Silva", Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: "2030", CCV: "123"},
		CardHolderInfo{Name: "Ana Silva", Email: "ana@example.com", CpfCnpj: "12345678909", PostalCode: "01310-100", AddressNumber: "100"},
		3)
	require.NoError(t, err)

	assert.Equal(t, "CREDIT_CARD", gotBody.BillingType)
	assert.Equal(t, 3, gotBody.InstallmentCount)
	assert.Equal(t, "100.00", gotBody.InstallmentValue)
	require.NotNil(t, gotBody.CreditCard)
	assert.Equal(t, "4111111111111111", gotBody.CreditCard.Number)
	assert.Equal(t, StatusConfirmed, payment.Status)
}

func TestCreateBoletoChargeDefaultDueDate(t *testing.T) {
	var gotBody chargeBody
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Payment{
			ID:                  "pay_b",
			Status:              StatusPending,
			BankSlipURL:         "https://asaas/b/pay_b",
			IdentificationField: "34191.79001 01043.510047",
		})
	})

	payment, err := client.CreateBoletoCharge(context.Background(), ChargeRequest{CustomerID: "cus_1", Value: 99.9})
	require.NoError(t, err)

	assert.Equal(t, "BOLETO", gotBody.BillingType)
	wantDue := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	assert.Equal(t, wantDue, gotBody.DueDate)
	assert.Equal(t, "https://asaas/b/pay_b", payment.BankSlipURL)
	assert.NotEmpty(t, payment.IdentificationField)
}

func TestProviderRejectionIsTypedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{
				{"code": "invalid_creditCard", "description": "Cartão recusado"},
			},
		})
	})

	_, err := client.CreateBoletoCharge(context.Background(), ChargeRequest{CustomerID: "cus_1", Value: 10})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_creditCard", apiErr.Code)
	assert.Equal(t, "Cartão recusado", apiErr.Description)
	assert.Equal(t, "Cartão recusado", apiErr.Error())
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	client := NewClient(Config{
		BaseURL: "http://127.0.0.1:1", // port fermé
		APIKey:  "k",
		Timeout: 500 * time.Millisecond,
	})

	_, err := client.GetPayment(context.Background(), "pay_x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestFindCustomerByCpfCnpj(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cpfCnpj") == "12345678909" {
			json.NewEncoder(w).Encode(map[string]any{
				"data": []Customer{{ID: "cus_7", Name: "Ana", CpfCnpj: "12345678909"}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []Customer{}})
	})

	found, err := client.FindCustomerByCpfCnpj(context.Background(), "12345678909")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "cus_7", found.ID)

	missing, err := client.FindCustomerByCpfCnpj(context.Background(), "00000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRefundAndDelete(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			json.NewEncoder(w).Encode(map[string]any{"deleted": true})
			return
		}
		json.NewEncoder(w).Encode(Payment{ID: "pay_r", Status: StatusRefunded})
	})

	payment, err := client.Refund(context.Background(), "pay_r", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, payment.Status)

	require.NoError(t, client.Delete(context.Background(), "pay_r"))
	assert.Equal(t, []string{"POST /payments/pay_r/refund", "DELETE /payments/pay_r"}, paths)
}

func TestEncodePixQR(t *testing.T) {
	encoded, err := EncodePixQR("00020126580014br.gov.bcb.pix")
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
}
