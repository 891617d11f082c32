package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// Session is the provider-hosted checkout flow a buyer is redirected to.
type Session struct {
	ID  string
	URL string
}

// SessionParams describes the single line item a purchase checks out.
type SessionParams struct {
	AmountCents int64
	Currency    string
	Name        string
	Description string
	ImageURL    *string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Sessions opens provider checkout sessions.
type Sessions interface {
	Create(ctx context.Context, p SessionParams) (Session, error)
}

// StripeSessions is the live Stripe-backed implementation.
type StripeSessions struct{}

func NewStripeSessions(apiKey string) *StripeSessions {
	stripe.Key = apiKey
	return &StripeSessions{}
}

func (StripeSessions) Create(ctx context.Context, p SessionParams) (Session, error) {
	var images []*string
	if p.ImageURL != nil && *p.ImageURL != "" {
		images = []*string{p.ImageURL}
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.Name),
						Description: stripe.String(p.Description),
						Images:      images,
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := session.New(params)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: s.ID, URL: s.URL}, nil
}
