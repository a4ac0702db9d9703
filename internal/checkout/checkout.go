// Package checkout orchestrates the storefront's two-step checkout: validate
// contact/delivery input, persist the order with its snapshot line item and
// computed totals, notify the admin, and hand off to the payment gateway when
// a card-based method is chosen.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rainballs/jivot-bez-shum/internal/models"
	"github.com/rainballs/jivot-bez-shum/internal/notify"
	"github.com/rainballs/jivot-bez-shum/internal/payments"
	"github.com/rainballs/jivot-bez-shum/internal/pricing"
	"github.com/rainballs/jivot-bez-shum/internal/store"
)

var ErrGatewayNotConfigured = errors.New("payment gateway is not configured")

type Service struct {
	Store    *store.Store
	Gateway  payments.Gateway
	Notifier notify.Notifier

	// CODOnly finalizes every order as cash on delivery immediately after
	// the info step, skipping the payment-method step. This mirrors the
	// storefront's current behavior; the payment step stays mounted for
	// when it is switched back on.
	CODOnly bool
}

// SubmitInfo handles checkout step A. On invalid input it returns the field
// errors and persists nothing. On valid input it creates the order and its
// single line item (snapshotting the storefront product's prices), computes
// totals, optionally finalizes as COD, and fires a best-effort "created"
// notification.
func (s *Service) SubmitInfo(ctx context.Context, in Input) (*models.Order, FieldErrors, error) {
	if fieldErrs := in.Validate(); fieldErrs != nil {
		return nil, fieldErrs, nil
	}

	product, err := s.Store.StorefrontProduct(ctx)
	if err != nil {
		return nil, nil, err
	}

	order := &models.Order{
		FullName:       in.FullName,
		Email:          in.Email,
		Phone:          in.Phone,
		DeliveryMethod: models.DeliveryMethod(in.DeliveryMethod),
		Courier:        models.Courier(in.Courier),
		AddressLine:    in.AddressLine,
		City:           in.City,
		PostalCode:     in.PostalCode,
		OfficeText:     in.OfficeText,
		Quantity:       in.Quantity,
	}

	item := &models.OrderItem{
		ProductID:    product.ID,
		Quantity:     in.Quantity,
		UnitPriceBGN: product.PriceBGN,
		UnitPriceEUR: product.PriceEUR,
	}

	// Recompute totals now that the order has a line item; the store
	// persists them in the same transaction as the inserts.
	totals := pricing.Compute([]pricing.Line{{
		UnitPriceBGN: item.UnitPriceBGN,
		UnitPriceEUR: item.UnitPriceEUR,
		Quantity:     item.Quantity,
	}})
	applyTotals(order, totals)

	if s.CODOnly {
		order.PaymentMethod = models.PaymentCOD
		order.Paid = false
	}

	if err := s.Store.CreateOrderWithItem(ctx, order, item); err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}

	s.notifyEvent(ctx, order, "created")

	return order, nil, nil
}

// PaymentOutcome tells the caller where to send the buyer after a
// payment-method choice.
type PaymentOutcome int

const (
	// PaymentFinalized means the order completed locally (cash on
	// delivery); the buyer goes to the confirmation page.
	PaymentFinalized PaymentOutcome = iota
	// PaymentRedirectGateway means the buyer must be redirected into the
	// gateway's hosted session flow.
	PaymentRedirectGateway
)

// ChoosePayment handles checkout step B. The method can be chosen exactly
// once; card-based methods require the gateway to be configured.
func (s *Service) ChoosePayment(ctx context.Context, order *models.Order, method models.PaymentMethod) (PaymentOutcome, error) {
	if method.RequiresGateway() && !s.Gateway.Configured() {
		return 0, ErrGatewayNotConfigured
	}

	if err := order.ChoosePaymentMethod(method); err != nil {
		return 0, err
	}
	// The conditional update is the authority; a stale in-memory copy loses
	// the race here even though ChoosePaymentMethod let it through.
	changed, err := s.Store.SetPaymentMethod(ctx, order.ID, method)
	if err != nil {
		return 0, fmt.Errorf("set payment method: %w", err)
	}
	if !changed {
		order.PaymentMethod = models.PaymentUnset
		return 0, models.ErrPaymentMethodChosen
	}

	if method.RequiresGateway() {
		return PaymentRedirectGateway, nil
	}
	// COD: payment happens on delivery, paid stays false permanently.
	return PaymentFinalized, nil
}

// ConfirmPaid applies a verified gateway confirmation for the given order id.
// It reports whether the paid flag actually transitioned; replays and unknown
// orders report false with no error. A "paid" notification fires only on the
// first application.
func (s *Service) ConfirmPaid(ctx context.Context, orderID int) (bool, error) {
	changed, err := s.Store.MarkOrderPaid(ctx, orderID)
	if err != nil || !changed {
		return false, err
	}

	order, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		// The transition already committed; confirmation succeeded.
		slog.Error("Failed to load order for paid notification", "order_id", orderID, "error", err)
		return true, nil
	}
	s.notifyEvent(ctx, order, "paid")
	return true, nil
}

func (s *Service) notifyEvent(ctx context.Context, order *models.Order, event string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.OrderEvent(ctx, order, event); err != nil {
		// Notifications are best effort and never fail checkout.
		slog.Error("Failed to send order notification", "order_id", order.ID, "event", event, "error", err)
	}
}

func applyTotals(o *models.Order, t pricing.Totals) {
	o.SubtotalBGN = t.SubtotalBGN
	o.SubtotalEUR = t.SubtotalEUR
	o.ShippingBGN = t.ShippingBGN
	o.ShippingEUR = t.ShippingEUR
	o.TotalBGN = t.TotalBGN
	o.TotalEUR = t.TotalEUR
}
