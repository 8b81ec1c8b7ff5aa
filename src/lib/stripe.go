package lib

import (
	"context"
	"fmt"
	"math"
	"os"

	"dsb/src/booking"
	"dsb/src/types"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// StripeProvider opens a hosted Checkout session. The customer leaves the
// site and Stripe redirects back with the booking reference in the URL.
type StripeProvider struct{}

func (p *StripeProvider) Name() types.PaymentGateway {
	return types.GATEWAY_STRIPE
}

func (p *StripeProvider) CreateSession(ctx context.Context, req booking.SessionRequest) (*booking.PaymentSession, error) {
	sc := GetStripeClient()
	siteURL := os.Getenv("SITE_URL")
	params := stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.ReferenceID),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		SuccessURL:        stripe.String(fmt.Sprintf("%s/booking/%s/success?session_id={CHECKOUT_SESSION_ID}", siteURL, req.ReferenceID)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/booking/%s/cancelled", siteURL, req.ReferenceID)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
	}
	session, err := sc.V1CheckoutSessions.Create(ctx, &params)
	if err != nil {
		return nil, err
	}
	return &booking.PaymentSession{
		SessionID:   session.ID,
		RedirectURL: session.URL,
		Gateway:     types.GATEWAY_STRIPE,
	}, nil
}

// MinorUnits converts a rupee/dollar amount into the integer subunits the
// gateways bill in.
func MinorUnits(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5))
}
