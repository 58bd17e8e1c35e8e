package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func newTestMomoProvider(t *testing.T, endpoint string) *MomoProvider {
	t.Helper()
	provider, err := NewMomoProvider(MomoConfig{
		Endpoint:    endpoint,
		PartnerCode: "MINASHOP",
		Secret:      "topsecret",
		ReturnURL:   "https://shop.example/api/v1/payments/momo/return",
		NotifyURL:   "https://shop.example/api/v1/payments/momo/notify",
		RequestID:   func() string { return "req-1" },
	})
	if err != nil {
		t.Fatalf("new momo provider: %v", err)
	}
	return provider
}

func TestMomoCreatePayment(t *testing.T) {
	var received momoCreateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(momoCreateResponse{
			PayURL:     "https://test-payment.momo.vn/pay/xyz",
			ResultCode: 0,
		})
	}))
	defer server.Close()

	provider := newTestMomoProvider(t, server.URL)
	redirect, err := provider.CreatePayment(context.Background(), CreatePaymentRequest{
		OrderCode:   "MS000042",
		Amount:      480000,
		Description: "MinaShop order MS000042",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if redirect.RedirectURL != "https://test-payment.momo.vn/pay/xyz" {
		t.Fatalf("redirect url = %q", redirect.RedirectURL)
	}
	if received.OrderID != "MS000042" || received.Amount != "480000" {
		t.Fatalf("request = %+v", received)
	}

	params := url.Values{}
	params.Set("partnerCode", received.PartnerCode)
	params.Set("requestId", received.RequestID)
	params.Set("orderId", received.OrderID)
	params.Set("amount", received.Amount)
	params.Set("orderInfo", received.OrderInfo)
	params.Set("returnUrl", received.ReturnURL)
	params.Set("notifyUrl", received.NotifyURL)
	params.Set("requestType", received.RequestType)
	if want := signParams([]byte("topsecret"), momoCreateSignKeys, params); received.Signature != want {
		t.Fatalf("signature = %q, want %q", received.Signature, want)
	}
}

func TestMomoCreatePaymentGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := newTestMomoProvider(t, server.URL)
	_, err := provider.CreatePayment(context.Background(), CreatePaymentRequest{OrderCode: "MS000042", Amount: 1000})

	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gatewayErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", gatewayErr.StatusCode)
	}
}

func TestMomoCreatePaymentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(momoCreateResponse{ResultCode: 41, Message: "duplicate order"})
	}))
	defer server.Close()

	provider := newTestMomoProvider(t, server.URL)
	_, err := provider.CreatePayment(context.Background(), CreatePaymentRequest{OrderCode: "MS000042", Amount: 1000})

	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
}

func momoNotifyParams(secret string) url.Values {
	params := url.Values{}
	params.Set("partnerCode", "MINASHOP")
	params.Set("requestId", "req-1")
	params.Set("orderId", "MS000042")
	params.Set("amount", "480000")
	params.Set("transId", "momo-tx-9")
	params.Set("resultCode", "0")
	params.Set("message", "Successful.")
	params.Set("signature", signParams([]byte(secret), momoNotifySignKeys, params))
	return params
}

func TestMomoVerifyNotification(t *testing.T) {
	provider := newTestMomoProvider(t, "https://unused.example")

	note, err := provider.VerifyNotification(momoNotifyParams("topsecret"))
	if err != nil {
		t.Fatalf("verify notification: %v", err)
	}
	if !note.Verified || !note.Success {
		t.Fatalf("notification = %+v, want verified success", note)
	}
	if note.MerchantRef != "MS000042" || note.TransactionID != "momo-tx-9" || note.Amount != 480000 {
		t.Fatalf("notification = %+v", note)
	}
}

func TestMomoVerifyNotificationRejectsBadSignature(t *testing.T) {
	provider := newTestMomoProvider(t, "https://unused.example")

	params := momoNotifyParams("wrong-secret")
	if _, err := provider.VerifyNotification(params); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}

	params = momoNotifyParams("topsecret")
	params.Set("amount", "1")
	if _, err := provider.VerifyNotification(params); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch for tampered params, got %v", err)
	}
}

func TestMomoParseReturnIsAdvisory(t *testing.T) {
	provider := newTestMomoProvider(t, "https://unused.example")

	note, err := provider.ParseReturn(momoNotifyParams("wrong-secret"))
	if err != nil {
		t.Fatalf("parse return: %v", err)
	}
	if note.Verified {
		t.Fatal("browser return must never be marked verified")
	}
	if note.MerchantRef != "MS000042" {
		t.Fatalf("merchant ref = %q", note.MerchantRef)
	}
}
