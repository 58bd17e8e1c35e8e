package payments

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

type fakeProvider struct {
	lastOp   string
	redirect PaymentRedirect
	note     Notification
	err      error
}

func (f *fakeProvider) CreatePayment(ctx context.Context, req CreatePaymentRequest) (PaymentRedirect, error) {
	f.lastOp = "create"
	return f.redirect, f.err
}

func (f *fakeProvider) ParseReturn(params url.Values) (Notification, error) {
	f.lastOp = "return"
	return f.note, f.err
}

func (f *fakeProvider) VerifyNotification(params url.Values) (Notification, error) {
	f.lastOp = "notify"
	return f.note, f.err
}

func TestManagerRoutesByPaymentMethod(t *testing.T) {
	ctx := context.Background()
	momo := &fakeProvider{redirect: PaymentRedirect{RedirectURL: "https://pay.momo.vn/abc"}}
	zalo := &fakeProvider{redirect: PaymentRedirect{RedirectURL: "https://sb.zalopay.vn/def"}}

	mgr, err := NewManager(map[string]Provider{
		"momo":    momo,
		"zalopay": zalo,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	redirect, err := mgr.CreatePayment(ctx, "ZaloPay", CreatePaymentRequest{OrderCode: "MS000042", Amount: 480000})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if redirect.Provider != "zalopay" {
		t.Fatalf("expected provider 'zalopay', got %q", redirect.Provider)
	}
	if zalo.lastOp != "create" {
		t.Fatalf("expected zalopay provider to handle call")
	}
	if momo.lastOp != "" {
		t.Fatalf("expected momo provider to remain unused")
	}
}

func TestManagerRejectsUnknownMethod(t *testing.T) {
	mgr, err := NewManager(map[string]Provider{"momo": &fakeProvider{}})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	_, err = mgr.CreatePayment(context.Background(), "cod", CreatePaymentRequest{})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestManagerStampsProviderOnNotifications(t *testing.T) {
	momo := &fakeProvider{note: Notification{MerchantRef: "MS000042", Success: true, Verified: true}}
	mgr, err := NewManager(map[string]Provider{"momo": momo})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	note, err := mgr.VerifyNotification("momo", url.Values{})
	if err != nil {
		t.Fatalf("verify notification: %v", err)
	}
	if note.Provider != "momo" {
		t.Fatalf("provider = %q, want momo", note.Provider)
	}
	if momo.lastOp != "notify" {
		t.Fatalf("expected notification delegation")
	}
}

func TestManagerRequiresProviders(t *testing.T) {
	if _, err := NewManager(nil); err == nil {
		t.Fatal("expected error for empty provider map")
	}
	if _, err := NewManager(map[string]Provider{"": &fakeProvider{}}); err == nil {
		t.Fatal("expected error for blank provider key")
	}
}
