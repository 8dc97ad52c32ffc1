package config

type Stripe struct {
	APIKey        string `env:"STRIPE_API_KEY,notEmpty" json:"-"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,notEmpty" json:"-"`
	BaseURL       string `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
}
