package payments

import (
	"fmt"

	"github.com/minashop/api/internal/platform/config"
)

// NewManagerFromConfig builds gateway adapters for every configured
// provider. An empty configuration yields a nil manager, which disables
// online payment methods.
func NewManagerFromConfig(gateways map[string]config.GatewayConfig) (*Manager, error) {
	providers := make(map[string]Provider, len(gateways))
	for name, cfg := range gateways {
		var (
			provider Provider
			err      error
		)
		switch name {
		case "momo":
			provider, err = NewMomoProvider(MomoConfig{
				Endpoint:    cfg.Endpoint,
				PartnerCode: cfg.PartnerCode,
				Secret:      cfg.Secret,
				ReturnURL:   cfg.ReturnURL,
				NotifyURL:   cfg.NotifyURL,
				Timeout:     cfg.Timeout,
			})
		case "zalopay":
			provider, err = NewZaloPayProvider(ZaloPayConfig{
				Endpoint:    cfg.Endpoint,
				PartnerCode: cfg.PartnerCode,
				Secret:      cfg.Secret,
				ReturnURL:   cfg.ReturnURL,
				NotifyURL:   cfg.NotifyURL,
				Timeout:     cfg.Timeout,
			})
		case "payoo":
			provider, err = NewPayooProvider(PayooConfig{
				Endpoint:    cfg.Endpoint,
				PartnerCode: cfg.PartnerCode,
				Secret:      cfg.Secret,
				ReturnURL:   cfg.ReturnURL,
				NotifyURL:   cfg.NotifyURL,
				Timeout:     cfg.Timeout,
			})
		default:
			return nil, fmt.Errorf("payments: unknown gateway %q configured", name)
		}
		if err != nil {
			return nil, err
		}
		providers[name] = provider
	}
	if len(providers) == 0 {
		return nil, nil
	}
	return NewManager(providers)
}
