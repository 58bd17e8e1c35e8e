package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupportedProvider is returned when the manager cannot locate a provider.
var ErrUnsupportedProvider = errors.New("payments: unsupported provider")

// ErrSignatureMismatch is returned when a callback signature does not verify
// against the shared gateway secret.
var ErrSignatureMismatch = errors.New("payments: signature mismatch")

// GatewayError wraps a failed exchange with a payment gateway.
type GatewayError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("payments: %s gateway error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payments: %s gateway error: %s", e.Provider, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// CreatePaymentRequest captures the payload required to open a gateway
// payment for one order. Amount is in whole dong.
type CreatePaymentRequest struct {
	OrderCode   string
	OrderID     string
	Amount      int64
	Description string
	CustomerID  string
}

// PaymentRedirect is the gateway response the customer is sent to.
type PaymentRedirect struct {
	Provider    string
	RedirectURL string
	RequestID   string
	Raw         map[string]any
}

// Notification is a normalised gateway callback, either the advisory
// browser return or the authoritative server notification.
type Notification struct {
	Provider      string
	MerchantRef   string
	TransactionID string
	Amount        int64
	Success       bool
	ResultCode    string
	Verified      bool
}

// Provider defines the contract for gateway adapters to implement.
type Provider interface {
	// CreatePayment opens a payment at the gateway and returns the URL the
	// customer must be redirected to.
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (PaymentRedirect, error)
	// ParseReturn interprets the query parameters of the browser redirect.
	// The result is advisory: Verified is never set.
	ParseReturn(params url.Values) (Notification, error)
	// VerifyNotification validates the server callback signature and
	// extracts the payment outcome. ErrSignatureMismatch is returned when
	// the signature does not match.
	VerifyNotification(params url.Values) (Notification, error)
}

// Manager coordinates provider selection keyed by payment method.
type Manager struct {
	providers map[string]Provider
}

// NewManager constructs a Manager over the supplied providers.
func NewManager(providers map[string]Provider) (*Manager, error) {
	if len(providers) == 0 {
		return nil, errors.New("payments: at least one provider is required")
	}
	copyMap := make(map[string]Provider, len(providers))
	for k, v := range providers {
		key := strings.TrimSpace(strings.ToLower(k))
		if key == "" || v == nil {
			return nil, fmt.Errorf("payments: invalid provider registration for key %q", k)
		}
		copyMap[key] = v
	}
	return &Manager{providers: copyMap}, nil
}

// Has reports whether a provider is registered for the payment method.
func (m *Manager) Has(method string) bool {
	if m == nil {
		return false
	}
	_, ok := m.providers[strings.TrimSpace(strings.ToLower(method))]
	return ok
}

func (m *Manager) resolve(method string) (string, Provider, error) {
	if m == nil || len(m.providers) == 0 {
		return "", nil, errors.New("payments: no providers registered")
	}
	key := strings.TrimSpace(strings.ToLower(method))
	if p, ok := m.providers[key]; ok {
		return key, p, nil
	}
	return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, method)
}

// CreatePayment delegates to the provider registered for the method.
func (m *Manager) CreatePayment(ctx context.Context, method string, req CreatePaymentRequest) (PaymentRedirect, error) {
	key, provider, err := m.resolve(method)
	if err != nil {
		return PaymentRedirect{}, err
	}
	redirect, err := provider.CreatePayment(ctx, req)
	if err != nil {
		return PaymentRedirect{}, err
	}
	redirect.Provider = key
	return redirect, nil
}

// ParseReturn delegates to the provider registered for the method.
func (m *Manager) ParseReturn(method string, params url.Values) (Notification, error) {
	key, provider, err := m.resolve(method)
	if err != nil {
		return Notification{}, err
	}
	note, err := provider.ParseReturn(params)
	if err != nil {
		return Notification{}, err
	}
	note.Provider = key
	return note, nil
}

// VerifyNotification delegates to the provider registered for the method.
func (m *Manager) VerifyNotification(method string, params url.Values) (Notification, error) {
	key, provider, err := m.resolve(method)
	if err != nil {
		return Notification{}, err
	}
	note, err := provider.VerifyNotification(params)
	if err != nil {
		return Notification{}, err
	}
	note.Provider = key
	return note, nil
}
