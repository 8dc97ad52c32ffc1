package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"bidscreen/internal/domain/value"
	"bidscreen/internal/infrastructure/stripe"
	"bidscreen/pkg/httpx/reply"
	"bidscreen/pkg/httpx/req"
	"bidscreen/pkg/rest"
)

type billingService interface {
	HandleWebhookEvent(ctx context.Context, event stripe.Event) error
	VerifyCheckout(ctx context.Context, sessionID string) (value.Tier, error)
}

const maxWebhookBodySize = 1 << 16

type BillingServer struct {
	billingService billingService
	webhookSecret  string
}

func NewBillingServer(service billingService, webhookSecret string) BillingServer {
	return BillingServer{
		billingService: service,
		webhookSecret:  webhookSecret,
	}
}

// postV1BillingWebhook receives provider events. The signature is verified
// against the raw body before anything is decoded.
func (s BillingServer) postV1BillingWebhook(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		return fmt.Errorf("io.ReadAll: %w", err)
	}

	event, err := stripe.ParseEvent(payload, r.Header.Get("Stripe-Signature"), s.webhookSecret)
	if err != nil {
		return toFailure(fmt.Errorf("stripe.ParseEvent: %w", err))
	}

	if err := s.billingService.HandleWebhookEvent(ctx, event); err != nil {
		return toFailure(fmt.Errorf("billingService.HandleWebhookEvent: %w", err))
	}

	reply.OK(w)

	return nil
}

func (s BillingServer) postV1BillingVerify(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.VerifyCheckoutRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	tier, err := s.billingService.VerifyCheckout(ctx, request.SessionID)
	if err != nil {
		return toFailure(fmt.Errorf("billingService.VerifyCheckout: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, rest.VerifyCheckoutResponse{Tier: tier.String()})

	return nil
}
