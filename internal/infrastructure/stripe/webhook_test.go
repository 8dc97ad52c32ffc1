package stripe_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bidscreen/internal/infrastructure/stripe"
)

const testSecret = "whsec_test"

func signPayload(t *testing.T, payload []byte, secret string, at time.Time) string {
	t.Helper()

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)

	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestParseEvent(t *testing.T) {
	rq := require.New(t)

	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"payment_status": "paid",
			"mode": "subscription",
			"customer": "cus_1",
			"subscription": "sub_1",
			"client_reference_id": "user-1",
			"metadata": {"plan": "pro"}
		}}
	}`)

	event, err := stripe.ParseEvent(payload, signPayload(t, payload, testSecret, time.Now()), testSecret)
	rq.NoError(err)
	rq.Equal(stripe.EventCheckoutCompleted, event.Type)

	session, err := event.CheckoutSession()
	rq.NoError(err)
	rq.Equal("cus_1", session.Customer)
	rq.Equal("user-1", session.ClientReferenceID)
	rq.Equal("pro", session.Metadata["plan"])
	rq.True(session.Paid())
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	rq := require.New(t)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	_, err := stripe.ParseEvent(payload, signPayload(t, payload, "whsec_other", time.Now()), testSecret)
	rq.Error(err)
}

func TestParseEventRejectsTamperedPayload(t *testing.T) {
	rq := require.New(t)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := signPayload(t, payload, testSecret, time.Now())

	tampered := []byte(`{"id":"evt_1","type":"customer.subscription.deleted"}`)

	_, err := stripe.ParseEvent(tampered, header, testSecret)
	rq.Error(err)
}

func TestParseEventRejectsStaleTimestamp(t *testing.T) {
	rq := require.New(t)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	stale := time.Now().Add(-10 * time.Minute)

	_, err := stripe.ParseEvent(payload, signPayload(t, payload, testSecret, stale), testSecret)
	rq.Error(err)
}

func TestParseEventRejectsMissingHeader(t *testing.T) {
	rq := require.New(t)

	_, err := stripe.ParseEvent([]byte(`{}`), "", testSecret)
	rq.Error(err)
}

func TestSubscriptionDecode(t *testing.T) {
	rq := require.New(t)

	payload := []byte(`{
		"id": "evt_2",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_1", "customer": "cus_1", "status": "past_due"}}
	}`)

	event, err := stripe.ParseEvent(payload, signPayload(t, payload, testSecret, time.Now()), testSecret)
	rq.NoError(err)

	sub, err := event.Subscription()
	rq.NoError(err)
	rq.Equal("cus_1", sub.Customer)
	rq.Equal("past_due", sub.Status)
}
