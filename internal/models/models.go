package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryMethod string

const (
	DeliveryToAddress DeliveryMethod = "address"
	DeliveryToOffice  DeliveryMethod = "office"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryToAddress || m == DeliveryToOffice
}

type Courier string

const (
	CourierSpeedy Courier = "speedy"
	CourierEkont  Courier = "econt"
)

func (c Courier) Valid() bool {
	return c == CourierSpeedy || c == CourierEkont
}

// PaymentMethod is empty until the buyer chooses one.
type PaymentMethod string

const (
	PaymentUnset     PaymentMethod = ""
	PaymentCard      PaymentMethod = "card"
	PaymentApplePay  PaymentMethod = "apple_pay"
	PaymentGooglePay PaymentMethod = "google_pay"
	PaymentCOD       PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentApplePay, PaymentGooglePay, PaymentCOD:
		return true
	}
	return false
}

// RequiresGateway reports whether the method is settled through the hosted
// checkout session rather than in cash on delivery.
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentCard || m == PaymentApplePay || m == PaymentGooglePay
}

var (
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrPaymentMethodChosen  = errors.New("payment method already chosen")
)

type Product struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	PriceBGN  decimal.Decimal `json:"price_bgn"`
	PriceEUR  decimal.Decimal `json:"price_eur"`
	ImageURL  string          `json:"image_url"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

type Order struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`

	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Courier        Courier        `json:"courier"`

	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	OfficeText  string `json:"office_text"`

	Quantity int `json:"quantity"`

	SubtotalBGN decimal.Decimal `json:"subtotal_bgn"`
	SubtotalEUR decimal.Decimal `json:"subtotal_eur"`
	ShippingBGN decimal.Decimal `json:"shipping_bgn"`
	ShippingEUR decimal.Decimal `json:"shipping_eur"`
	TotalBGN    decimal.Decimal `json:"total_bgn"`
	TotalEUR    decimal.Decimal `json:"total_eur"`

	PaymentMethod PaymentMethod `json:"payment_method"`
	Paid          bool          `json:"paid"`

	CreatedAt time.Time `json:"created_at"`
}

// ChoosePaymentMethod performs the unset -> method transition. The method is
// immutable for the life of the order once set.
func (o *Order) ChoosePaymentMethod(m PaymentMethod) error {
	if !m.Valid() {
		return ErrInvalidPaymentMethod
	}
	if o.PaymentMethod != PaymentUnset {
		return ErrPaymentMethodChosen
	}
	o.PaymentMethod = m
	return nil
}

// OrderItem snapshots the product's prices at creation time. The unit prices
// are never updated afterwards, even if the product is repriced.
type OrderItem struct {
	ID           int             `json:"id"`
	OrderID      int             `json:"order_id"`
	ProductID    int             `json:"product_id"`
	Quantity     int             `json:"quantity"`
	UnitPriceBGN decimal.Decimal `json:"unit_price_bgn"`
	UnitPriceEUR decimal.Decimal `json:"unit_price_eur"`
}
