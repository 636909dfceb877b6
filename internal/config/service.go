package config

type ServiceConfig struct {
	Name        string        `yaml:"name"`
	Environment string        `yaml:"environment"`
	Version     string        `yaml:"version"`
	ClientURL   string        `yaml:"client_url"`
	Gateway     GatewayConfig `yaml:"gateway"`
}

// GatewayConfig selects and configures the payment gateway provider.
type GatewayConfig struct {
	// Provider is "iyzico" or "stripe".
	Provider string `yaml:"provider"`

	CallbackURL string `yaml:"callback_url"`

	Iyzico IyzicoConfig `yaml:"iyzico"`
	Stripe StripeConfig `yaml:"stripe"`
}

type IyzicoConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
}
