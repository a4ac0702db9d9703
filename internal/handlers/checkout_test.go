package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainballs/jivot-bez-shum/internal/checkout"
	"github.com/rainballs/jivot-bez-shum/internal/models"
	"github.com/rainballs/jivot-bez-shum/internal/payments"
	"github.com/rainballs/jivot-bez-shum/internal/store"
)

func newCheckoutFixture(t *testing.T) (*CheckoutHandler, *store.Store) {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate("../../migrations"))

	h := &CheckoutHandler{
		Store:        s,
		Service:      &checkout.Service{Store: s, Gateway: payments.NewStripeGateway("", "")},
		SessionStore: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
		SiteURL:      "http://localhost:8585",
	}
	return h, s
}

func seedSubmittedOrder(t *testing.T, s *store.Store) *models.Order {
	t.Helper()
	p := &models.Product{
		Name:     "Книга",
		Slug:     "kniga",
		PriceBGN: decimal.RequireFromString("10.00"),
		PriceEUR: decimal.RequireFromString("5.00"),
		Active:   true,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))

	order := &models.Order{
		FullName:       "Ivan Petrov",
		Email:          "ivan@example.com",
		Phone:          "+359888123456",
		DeliveryMethod: models.DeliveryToAddress,
		Courier:        models.CourierSpeedy,
		AddressLine:    "ul. Rakovski 1",
		City:           "Sofia",
		PostalCode:     "1000",
		Quantity:       1,
	}
	item := &models.OrderItem{ProductID: p.ID, Quantity: 1, UnitPriceBGN: p.PriceBGN, UnitPriceEUR: p.PriceEUR}
	require.NoError(t, s.CreateOrderWithItem(context.Background(), order, item))
	return order
}

// sessionCookie bakes a session carrying the given order id into a cookie
// header value, the way a buyer who finished step A would hold one.
func sessionCookie(t *testing.T, h *CheckoutHandler, orderID int) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := h.SessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyOrderID] = orderID
	require.NoError(t, session.Save(req, rec))
	cookie := rec.Header().Get("Set-Cookie")
	require.NotEmpty(t, cookie)
	return cookie
}

func TestCreateStripeSession(t *testing.T) {
	t.Run("unconfigured gateway redirects instead of panicking", func(t *testing.T) {
		h, s := newCheckoutFixture(t)
		order := seedSubmittedOrder(t, s)

		req := httptest.NewRequest(http.MethodGet, "/pay/stripe/create-session", nil)
		req.Header.Set("Cookie", sessionCookie(t, h, order.ID))
		rec := httptest.NewRecorder()
		h.CreateStripeSession(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/checkout/payment", rec.Header().Get("Location"))
	})

	t.Run("no current order goes back to the form", func(t *testing.T) {
		h, _ := newCheckoutFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/pay/stripe/create-session", nil)
		rec := httptest.NewRecorder()
		h.CreateStripeSession(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/checkout", rec.Header().Get("Location"))
	})
}
