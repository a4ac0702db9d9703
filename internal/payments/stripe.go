// Package payments wraps the Stripe hosted-checkout integration: outbound
// session creation and inbound signed-event verification.
package payments

import (
	"context"
	"errors"
	"strconv"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/rainballs/jivot-bez-shum/internal/models"
	"github.com/rainballs/jivot-bez-shum/internal/pricing"
)

var ErrNotConfigured = errors.New("stripe gateway is not configured")

// Session is the hosted checkout session the buyer is redirected to.
type Session struct {
	ID  string
	URL string
}

type Gateway interface {
	// Configured reports whether both gateway credentials are present.
	Configured() bool
	// CreateSession builds a hosted checkout session for the order and
	// returns the redirect target.
	CreateSession(ctx context.Context, order *models.Order, product *models.Product, successURL, cancelURL string) (*Session, error)
}

type StripeGateway struct {
	publicKey string
	api       *client.API
}

// NewStripeGateway builds a gateway from explicit credentials. Keys may be
// empty; Configured gates every use.
func NewStripeGateway(publicKey, secretKey string) *StripeGateway {
	g := &StripeGateway{publicKey: publicKey}
	if secretKey != "" {
		g.api = &client.API{}
		g.api.Init(secretKey, nil)
	}
	return g
}

func (g *StripeGateway) Configured() bool {
	return g.publicKey != "" && g.api != nil
}

func (g *StripeGateway) CreateSession(ctx context.Context, order *models.Order, product *models.Product, successURL, cancelURL string) (*Session, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		// The Payment Request API enables Apple/Google Pay on top of card.
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          checkoutLineItems(order, product),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
	}
	if order.Email != "" {
		params.CustomerEmail = stripe.String(order.Email)
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.Itoa(order.ID))

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// checkoutLineItems renders the order as gateway line items: the product at
// its snapshot-equivalent minor-unit price times quantity, plus one flat
// shipping line. Amounts are rounded half up at two decimals.
func checkoutLineItems(order *models.Order, product *models.Product) []*stripe.CheckoutSessionLineItemParams {
	unit := pricing.MinorUnits(product.PriceBGN)
	shipping := pricing.MinorUnits(pricing.FlatShippingBGN)
	return []*stripe.CheckoutSessionLineItemParams{
		{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("bgn"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(product.Name),
				},
				UnitAmount: stripe.Int64(unit),
			},
			Quantity: stripe.Int64(int64(order.Quantity)),
		},
		{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("bgn"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Доставка"),
				},
				UnitAmount: stripe.Int64(shipping),
			},
			Quantity: stripe.Int64(1),
		},
	}
}

// VerifyEvent authenticates a webhook payload against the signing secret.
// Nothing in the payload may be trusted before this passes. The endpoint's
// API version is pinned in the Stripe dashboard, so SDK version drift is not
// re-checked here.
func VerifyEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
