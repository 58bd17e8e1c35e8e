package payments

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	payooCreateSignKeys = []string{"merchant", "order_no", "amount", "return_url", "notify_url"}
	payooNotifySignKeys = []string{"merchant", "order_no", "payment_id", "amount", "status"}
)

// PayooConfig configures the Payoo adapter.
type PayooConfig struct {
	Endpoint    string
	PartnerCode string
	Secret      string
	ReturnURL   string
	NotifyURL   string
	Timeout     time.Duration
	Client      httpDoer
}

// PayooProvider implements the Provider interface against the Payoo API.
type PayooProvider struct {
	client    gatewayClient
	merchant  string
	secret    []byte
	returnURL string
	notifyURL string
}

// NewPayooProvider validates the configuration and returns the adapter.
func NewPayooProvider(cfg PayooConfig) (*PayooProvider, error) {
	if err := validateGatewaySettings("payoo", cfg.Endpoint, cfg.PartnerCode, cfg.Secret); err != nil {
		return nil, err
	}
	return &PayooProvider{
		client:    newGatewayClient("payoo", cfg.Endpoint, cfg.Client, cfg.Timeout),
		merchant:  strings.TrimSpace(cfg.PartnerCode),
		secret:    []byte(cfg.Secret),
		returnURL: cfg.ReturnURL,
		notifyURL: cfg.NotifyURL,
	}, nil
}

type payooCreateRequest struct {
	Merchant    string `json:"merchant"`
	OrderNo     string `json:"order_no"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"return_url"`
	NotifyURL   string `json:"notify_url"`
	Checksum    string `json:"checksum"`
}

type payooCreateResponse struct {
	PaymentURL string `json:"payment_url"`
	Status     int    `json:"status"`
	Message    string `json:"message"`
}

// CreatePayment opens a Payoo order and returns the customer payment URL.
func (p *PayooProvider) CreatePayment(ctx context.Context, req CreatePaymentRequest) (PaymentRedirect, error) {
	params := url.Values{}
	params.Set("merchant", p.merchant)
	params.Set("order_no", req.OrderCode)
	params.Set("amount", strconv.FormatInt(req.Amount, 10))
	params.Set("return_url", p.returnURL)
	params.Set("notify_url", p.notifyURL)

	payload := payooCreateRequest{
		Merchant:    p.merchant,
		OrderNo:     req.OrderCode,
		Amount:      params.Get("amount"),
		Description: req.Description,
		ReturnURL:   p.returnURL,
		NotifyURL:   p.notifyURL,
		Checksum:    signParams(p.secret, payooCreateSignKeys, params),
	}

	var resp payooCreateResponse
	if err := p.client.postJSON(ctx, payload, &resp); err != nil {
		return PaymentRedirect{}, err
	}
	if resp.Status != 1 {
		return PaymentRedirect{}, &GatewayError{
			Provider: "payoo",
			Message:  fmt.Sprintf("create rejected with status %d: %s", resp.Status, resp.Message),
		}
	}

	paymentURL, err := requireRedirectURL("payoo", resp.PaymentURL)
	if err != nil {
		return PaymentRedirect{}, err
	}
	return PaymentRedirect{RedirectURL: paymentURL, RequestID: req.OrderCode}, nil
}

// ParseReturn extracts the advisory browser redirect outcome.
func (p *PayooProvider) ParseReturn(params url.Values) (Notification, error) {
	return p.notification(params), nil
}

// VerifyNotification validates the callback checksum before trusting the
// outcome.
func (p *PayooProvider) VerifyNotification(params url.Values) (Notification, error) {
	expected := signParams(p.secret, payooNotifySignKeys, params)
	if !verifySignature(expected, params.Get("checksum")) {
		return Notification{}, ErrSignatureMismatch
	}
	note := p.notification(params)
	note.Verified = true
	return note, nil
}

func (p *PayooProvider) notification(params url.Values) Notification {
	status := params.Get("status")
	return Notification{
		MerchantRef:   params.Get("order_no"),
		TransactionID: params.Get("payment_id"),
		Amount:        parseAmount(params.Get("amount")),
		ResultCode:    status,
		Success:       status == "1",
	}
}
