package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/liveflow/donor-service/internal/config"
)

const checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// StripeProcessor creates Stripe Checkout sessions in payment mode.
type StripeProcessor struct {
	api        *client.API
	configured bool
	currency   string
	itemName   string
	successURL string
	cancelURL  string
}

// NewStripeProcessor builds a processor. backends may be nil to use Stripe's
// production endpoints.
func NewStripeProcessor(cfg config.PaymentConfig, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{
		api:        client.New(cfg.StripeSecretKey, backends),
		configured: cfg.StripeSecretKey != "",
		currency:   cfg.Currency,
		itemName:   cfg.ItemName,
		successURL: fmt.Sprintf("%s/payment-success?session_id=%s", cfg.ClientDomain, checkoutSessionPlaceholder),
		cancelURL:  cfg.ClientDomain + "/funding",
	}
}

func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if !p.configured {
		return nil, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.DonorEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.itemName),
					},
					UnitAmount: stripe.Int64(ToMinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata(MetadataDonor, req.Donor)
	params.AddMetadata(MetadataDonorEmail, req.DonorEmail)

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(s), nil
}

func (p *StripeProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error) {
	if !p.configured {
		return nil, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}
	return fromStripe(s), nil
}

func fromStripe(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountMinor:   s.AmountTotal,
		DonorEmail:    s.Metadata[MetadataDonorEmail],
		Donor:         s.Metadata[MetadataDonor],
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if out.DonorEmail == "" {
		out.DonorEmail = s.CustomerEmail
	}
	if out.DonorEmail == "" && s.CustomerDetails != nil {
		out.DonorEmail = s.CustomerDetails.Email
	}
	return out
}
