package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultGatewayTimeout = 10 * time.Second

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// gatewayClient handles the outbound JSON exchange shared by all adapters.
type gatewayClient struct {
	provider string
	endpoint string
	client   httpDoer
}

func newGatewayClient(provider, endpoint string, client httpDoer, timeout time.Duration) gatewayClient {
	if client == nil {
		if timeout <= 0 {
			timeout = defaultGatewayTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return gatewayClient{provider: provider, endpoint: endpoint, client: client}
}

func (c gatewayClient) postJSON(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &GatewayError{Provider: c.provider, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &GatewayError{Provider: c.provider, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &GatewayError{Provider: c.provider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &GatewayError{Provider: c.provider, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &GatewayError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{Provider: c.provider, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

func parseAmount(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int64(f)
	}
	return 0
}

func requireRedirectURL(provider, redirectURL string) (string, error) {
	redirectURL = strings.TrimSpace(redirectURL)
	if redirectURL == "" {
		return "", &GatewayError{Provider: provider, Message: "response missing redirect url"}
	}
	return redirectURL, nil
}

func validateGatewaySettings(provider, endpoint, partnerCode, secret string) error {
	if strings.TrimSpace(endpoint) == "" {
		return fmt.Errorf("%s: endpoint is required", provider)
	}
	if strings.TrimSpace(partnerCode) == "" {
		return fmt.Errorf("%s: partner code is required", provider)
	}
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("%s: secret is required", provider)
	}
	return nil
}
