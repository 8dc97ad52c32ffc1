package stripe

import (
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"bidscreen/pkg/httpx"
	"bidscreen/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const defaultBaseURL = "https://api.stripe.com"

// CheckoutSession is the subset of the checkout session object the
// verification path needs. Payment state comes from the processor directly,
// never from client input.
type CheckoutSession struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	Mode              string            `json:"mode"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// Paid reports whether the session represents a confirmed payment.
func (s CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid" || s.Status == "complete"
}

// Client talks to the payment processor API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type staticKeyAuthenticator struct {
	key string
}

func (a staticKeyAuthenticator) Authenticate(context.Context) error { return nil }
func (a staticKeyAuthenticator) BearerToken() string                { return a.key }

const logFieldMaxLen = 2048

func NewClient(secretKey string) *Client {
	transport := httpx.NewAuthBearerRoundTripper(
		httpx.NewLoggingRoundTripper(
			http.DefaultTransport,
			httpx.WithLogFieldMaxLen(logFieldMaxLen),
			httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
		),
		staticKeyAuthenticator{key: secretKey},
	)

	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Transport: transport},
	}
}

// WithBaseURL redirects the client, used by tests to point at a stub server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// GetCheckoutSession retrieves a checkout session by id.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	url := c.baseURL + "/v1/checkout/sessions/" + sessionID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CheckoutSession{}, fmt.Errorf("checkout session lookup: unexpected status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return CheckoutSession{}, fmt.Errorf("json.Decode: %w", err)
	}

	return session, nil
}
