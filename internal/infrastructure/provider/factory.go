// Package providerfactory selects the configured payment gateway adapter.
package providerfactory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/config"
	"github.com/seffafbagis/donation-platform/internal/domain/provider"
	"github.com/seffafbagis/donation-platform/internal/infrastructure/provider/iyzico"
	"github.com/seffafbagis/donation-platform/internal/infrastructure/provider/stripe"
)

// NewGateway builds the gateway adapter named in the configuration.
func NewGateway(cfg config.GatewayConfig, logger *zap.Logger) (provider.Gateway, error) {
	switch cfg.Provider {
	case "iyzico", "":
		return iyzico.New(cfg.Iyzico.BaseURL, cfg.Iyzico.APIKey, cfg.Iyzico.SecretKey, logger), nil
	case "stripe":
		return stripe.New(cfg.Stripe.SecretKey, logger), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway provider: %s", cfg.Provider)
	}
}
