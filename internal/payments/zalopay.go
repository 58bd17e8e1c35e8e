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
	zaloCreateSignKeys = []string{"app_id", "app_trans_id", "app_user", "amount", "app_time", "callback_url"}
	zaloNotifySignKeys = []string{"app_id", "app_trans_id", "zp_trans_id", "amount", "status"}
)

// ZaloPayConfig configures the ZaloPay adapter. PartnerCode carries the
// numeric app id the gateway assigns.
type ZaloPayConfig struct {
	Endpoint    string
	PartnerCode string
	Secret      string
	ReturnURL   string
	NotifyURL   string
	Timeout     time.Duration
	Client      httpDoer
	Clock       func() time.Time
}

// ZaloPayProvider implements the Provider interface against the ZaloPay API.
type ZaloPayProvider struct {
	client    gatewayClient
	appID     string
	secret    []byte
	returnURL string
	notifyURL string
	clock     func() time.Time
}

// NewZaloPayProvider validates the configuration and returns the adapter.
func NewZaloPayProvider(cfg ZaloPayConfig) (*ZaloPayProvider, error) {
	if err := validateGatewaySettings("zalopay", cfg.Endpoint, cfg.PartnerCode, cfg.Secret); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ZaloPayProvider{
		client:    newGatewayClient("zalopay", cfg.Endpoint, cfg.Client, cfg.Timeout),
		appID:     strings.TrimSpace(cfg.PartnerCode),
		secret:    []byte(cfg.Secret),
		returnURL: cfg.ReturnURL,
		notifyURL: cfg.NotifyURL,
		clock:     clock,
	}, nil
}

type zaloCreateRequest struct {
	AppID       string `json:"app_id"`
	AppTransID  string `json:"app_trans_id"`
	AppUser     string `json:"app_user"`
	Amount      int64  `json:"amount"`
	AppTime     int64  `json:"app_time"`
	Description string `json:"description"`
	RedirectURL string `json:"redirect_url"`
	CallbackURL string `json:"callback_url"`
	Mac         string `json:"mac"`
}

type zaloCreateResponse struct {
	OrderURL      string `json:"order_url"`
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
}

// CreatePayment opens a ZaloPay order and returns the customer order URL.
func (p *ZaloPayProvider) CreatePayment(ctx context.Context, req CreatePaymentRequest) (PaymentRedirect, error) {
	appTime := p.clock().UnixMilli()
	appUser := req.CustomerID
	if appUser == "" {
		appUser = "guest"
	}

	params := url.Values{}
	params.Set("app_id", p.appID)
	params.Set("app_trans_id", req.OrderCode)
	params.Set("app_user", appUser)
	params.Set("amount", strconv.FormatInt(req.Amount, 10))
	params.Set("app_time", strconv.FormatInt(appTime, 10))
	params.Set("callback_url", p.notifyURL)

	payload := zaloCreateRequest{
		AppID:       p.appID,
		AppTransID:  req.OrderCode,
		AppUser:     appUser,
		Amount:      req.Amount,
		AppTime:     appTime,
		Description: req.Description,
		RedirectURL: p.returnURL,
		CallbackURL: p.notifyURL,
		Mac:         signParams(p.secret, zaloCreateSignKeys, params),
	}

	var resp zaloCreateResponse
	if err := p.client.postJSON(ctx, payload, &resp); err != nil {
		return PaymentRedirect{}, err
	}
	if resp.ReturnCode != 1 {
		return PaymentRedirect{}, &GatewayError{
			Provider: "zalopay",
			Message:  fmt.Sprintf("create rejected with return code %d: %s", resp.ReturnCode, resp.ReturnMessage),
		}
	}

	orderURL, err := requireRedirectURL("zalopay", resp.OrderURL)
	if err != nil {
		return PaymentRedirect{}, err
	}
	return PaymentRedirect{RedirectURL: orderURL, RequestID: req.OrderCode}, nil
}

// ParseReturn extracts the advisory browser redirect outcome.
func (p *ZaloPayProvider) ParseReturn(params url.Values) (Notification, error) {
	return p.notification(params), nil
}

// VerifyNotification validates the callback mac before trusting the outcome.
func (p *ZaloPayProvider) VerifyNotification(params url.Values) (Notification, error) {
	expected := signParams(p.secret, zaloNotifySignKeys, params)
	if !verifySignature(expected, params.Get("mac")) {
		return Notification{}, ErrSignatureMismatch
	}
	note := p.notification(params)
	note.Verified = true
	return note, nil
}

func (p *ZaloPayProvider) notification(params url.Values) Notification {
	status := params.Get("status")
	return Notification{
		MerchantRef:   params.Get("app_trans_id"),
		TransactionID: params.Get("zp_trans_id"),
		Amount:        parseAmount(params.Get("amount")),
		ResultCode:    status,
		Success:       status == "1",
	}
}
