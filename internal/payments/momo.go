package payments

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Create and callback signatures cover these parameters, in this order.
var (
	momoCreateSignKeys = []string{"partnerCode", "requestId", "orderId", "amount", "orderInfo", "returnUrl", "notifyUrl", "requestType"}
	momoNotifySignKeys = []string{"partnerCode", "requestId", "orderId", "amount", "transId", "resultCode", "message"}
)

const momoRequestType = "captureWallet"

// MomoConfig configures the MoMo wallet adapter.
type MomoConfig struct {
	Endpoint    string
	PartnerCode string
	Secret      string
	ReturnURL   string
	NotifyURL   string
	Timeout     time.Duration
	Client      httpDoer
	RequestID   func() string
}

// MomoProvider implements the Provider interface against the MoMo wallet API.
type MomoProvider struct {
	client      gatewayClient
	partnerCode string
	secret      []byte
	returnURL   string
	notifyURL   string
	requestID   func() string
}

// NewMomoProvider validates the configuration and returns the adapter.
func NewMomoProvider(cfg MomoConfig) (*MomoProvider, error) {
	if err := validateGatewaySettings("momo", cfg.Endpoint, cfg.PartnerCode, cfg.Secret); err != nil {
		return nil, err
	}
	requestID := cfg.RequestID
	if requestID == nil {
		requestID = func() string {
			return strconv.FormatInt(time.Now().UnixNano(), 10)
		}
	}
	return &MomoProvider{
		client:      newGatewayClient("momo", cfg.Endpoint, cfg.Client, cfg.Timeout),
		partnerCode: strings.TrimSpace(cfg.PartnerCode),
		secret:      []byte(cfg.Secret),
		returnURL:   cfg.ReturnURL,
		notifyURL:   cfg.NotifyURL,
		requestID:   requestID,
	}, nil
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	OrderID     string `json:"orderId"`
	Amount      string `json:"amount"`
	OrderInfo   string `json:"orderInfo"`
	ReturnURL   string `json:"returnUrl"`
	NotifyURL   string `json:"notifyUrl"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

// CreatePayment opens a wallet payment and returns the customer pay URL.
func (p *MomoProvider) CreatePayment(ctx context.Context, req CreatePaymentRequest) (PaymentRedirect, error) {
	requestID := p.requestID()

	params := url.Values{}
	params.Set("partnerCode", p.partnerCode)
	params.Set("requestId", requestID)
	params.Set("orderId", req.OrderCode)
	params.Set("amount", strconv.FormatInt(req.Amount, 10))
	params.Set("orderInfo", req.Description)
	params.Set("returnUrl", p.returnURL)
	params.Set("notifyUrl", p.notifyURL)
	params.Set("requestType", momoRequestType)

	payload := momoCreateRequest{
		PartnerCode: p.partnerCode,
		RequestID:   requestID,
		OrderID:     req.OrderCode,
		Amount:      params.Get("amount"),
		OrderInfo:   req.Description,
		ReturnURL:   p.returnURL,
		NotifyURL:   p.notifyURL,
		RequestType: momoRequestType,
		Signature:   signParams(p.secret, momoCreateSignKeys, params),
	}

	var resp momoCreateResponse
	if err := p.client.postJSON(ctx, payload, &resp); err != nil {
		return PaymentRedirect{}, err
	}
	if resp.ResultCode != 0 {
		return PaymentRedirect{}, &GatewayError{
			Provider: "momo",
			Message:  fmt.Sprintf("create rejected with result code %d: %s", resp.ResultCode, resp.Message),
		}
	}

	payURL, err := requireRedirectURL("momo", resp.PayURL)
	if err != nil {
		return PaymentRedirect{}, err
	}
	return PaymentRedirect{RedirectURL: payURL, RequestID: requestID}, nil
}

// ParseReturn extracts the advisory browser redirect outcome.
func (p *MomoProvider) ParseReturn(params url.Values) (Notification, error) {
	return p.notification(params), nil
}

// VerifyNotification validates the server callback signature before
// trusting the outcome.
func (p *MomoProvider) VerifyNotification(params url.Values) (Notification, error) {
	expected := signParams(p.secret, momoNotifySignKeys, params)
	if !verifySignature(expected, params.Get("signature")) {
		return Notification{}, ErrSignatureMismatch
	}
	note := p.notification(params)
	note.Verified = true
	return note, nil
}

func (p *MomoProvider) notification(params url.Values) Notification {
	resultCode := params.Get("resultCode")
	return Notification{
		MerchantRef:   params.Get("orderId"),
		TransactionID: params.Get("transId"),
		Amount:        parseAmount(params.Get("amount")),
		ResultCode:    resultCode,
		Success:       resultCode == "0",
	}
}
