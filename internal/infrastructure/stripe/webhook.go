package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"bidscreen/internal/domain"
	"bidscreen/pkg/errcodes"
)

// Webhook event types the reconciler understands.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
)

// Event is a provider webhook event. Data.Object stays raw until the handler
// knows which shape to decode.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object jsoniter.RawMessage `json:"object"`
	} `json:"data"`
}

// Subscription is the subscription object carried by subscription events.
type Subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

// Invoice is the invoice object carried by payment events.
type Invoice struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

func (e Event) CheckoutSession() (CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(e.Data.Object, &session); err != nil {
		return CheckoutSession{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return session, nil
}

func (e Event) Subscription() (Subscription, error) {
	var sub Subscription
	if err := json.Unmarshal(e.Data.Object, &sub); err != nil {
		return Subscription{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return sub, nil
}

func (e Event) Invoice() (Invoice, error) {
	var invoice Invoice
	if err := json.Unmarshal(e.Data.Object, &invoice); err != nil {
		return Invoice{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return invoice, nil
}

const signatureTolerance = 5 * time.Minute

// ParseEvent verifies the provider signature header (t=...,v1=... scheme,
// HMAC-SHA256 over "<t>.<payload>") and decodes the event.
func ParseEvent(payload []byte, sigHeader, secret string) (Event, error) {
	if err := verifySignature(payload, sigHeader, secret, time.Now()); err != nil {
		return Event{}, domain.WrapError(err, errcodes.InvalidSignature, "webhook signature verification failed")
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, domain.WrapError(err, errcodes.InvalidWebhookEvent, "failed to decode webhook event")
	}

	return event, nil
}

func verifySignature(payload []byte, sigHeader, secret string, now time.Time) error {
	var (
		timestamp  int64
		signatures [][]byte
	)

	for _, part := range strings.Split(sigHeader, ",") {
		key, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %w", err)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(val)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("signature header missing timestamp or signature")
	}

	if now.Sub(time.Unix(timestamp, 0)).Abs() > signatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}

	return fmt.Errorf("no matching signature")
}
