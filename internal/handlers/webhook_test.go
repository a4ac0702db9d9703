package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainballs/jivot-bez-shum/internal/checkout"
	"github.com/rainballs/jivot-bez-shum/internal/models"
	"github.com/rainballs/jivot-bez-shum/internal/store"
)

const testWebhookSecret = "whsec_test_secret"

type countingNotifier struct {
	events []string
}

func (n *countingNotifier) OrderEvent(_ context.Context, _ *models.Order, event string) error {
	n.events = append(n.events, event)
	return nil
}

func newWebhookFixture(t *testing.T) (*WebhookHandler, *store.Store, *countingNotifier) {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate("../../migrations"))

	notifier := &countingNotifier{}
	svc := &checkout.Service{Store: s, Notifier: notifier}
	return &WebhookHandler{Service: svc, WebhookSecret: testWebhookSecret}, s, notifier
}

func seedCardOrder(t *testing.T, s *store.Store) *models.Order {
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
		PaymentMethod:  models.PaymentCard,
	}
	item := &models.OrderItem{ProductID: p.ID, Quantity: 1, UnitPriceBGN: p.PriceBGN, UnitPriceEUR: p.PriceEUR}
	require.NoError(t, s.CreateOrderWithItem(context.Background(), order, item))
	return order
}

func completedSessionPayload(orderID int) string {
	return fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"metadata": {"order_id": "%d"}
			}
		}
	}`, orderID)
}

// signPayload produces a Stripe-Signature header the way the gateway does:
// an HMAC-SHA256 of "<timestamp>.<payload>" under the endpoint secret.
func signPayload(payload, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(h *WebhookHandler, payload, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pay/stripe/webhook", strings.NewReader(payload))
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	rec := httptest.NewRecorder()
	h.HandleStripe(rec, req)
	return rec
}

func TestHandleStripe(t *testing.T) {
	t.Run("missing secret configuration is rejected", func(t *testing.T) {
		h, _, _ := newWebhookFixture(t)
		h.WebhookSecret = ""

		rec := postWebhook(h, completedSessionPayload(1), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid signature changes nothing", func(t *testing.T) {
		h, s, _ := newWebhookFixture(t)
		order := seedCardOrder(t, s)
		payload := completedSessionPayload(order.ID)

		rec := postWebhook(h, payload, signPayload(payload, "whsec_wrong_secret"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		got, err := s.GetOrderByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.False(t, got.Paid)
	})

	t.Run("missing signature header is rejected", func(t *testing.T) {
		h, s, _ := newWebhookFixture(t)
		order := seedCardOrder(t, s)

		rec := postWebhook(h, completedSessionPayload(order.ID), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		got, err := s.GetOrderByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.False(t, got.Paid)
	})

	t.Run("valid completed session marks the order paid", func(t *testing.T) {
		h, s, notifier := newWebhookFixture(t)
		order := seedCardOrder(t, s)
		payload := completedSessionPayload(order.ID)

		rec := postWebhook(h, payload, signPayload(payload, testWebhookSecret))
		assert.Equal(t, http.StatusOK, rec.Code)

		got, err := s.GetOrderByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.True(t, got.Paid)
		assert.Equal(t, models.PaymentCard, got.PaymentMethod, "only the paid flag changes")
		assert.Equal(t, "Ivan Petrov", got.FullName)
		assert.Equal(t, []string{"paid"}, notifier.events)
	})

	t.Run("replaying the same event is idempotent", func(t *testing.T) {
		h, s, notifier := newWebhookFixture(t)
		order := seedCardOrder(t, s)
		payload := completedSessionPayload(order.ID)

		rec := postWebhook(h, payload, signPayload(payload, testWebhookSecret))
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = postWebhook(h, payload, signPayload(payload, testWebhookSecret))
		assert.Equal(t, http.StatusOK, rec.Code)

		got, err := s.GetOrderByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.True(t, got.Paid)
		assert.Equal(t, []string{"paid"}, notifier.events, "no duplicate notification")
	})

	t.Run("unknown order id is acknowledged and ignored", func(t *testing.T) {
		h, s, notifier := newWebhookFixture(t)
		payload := completedSessionPayload(999999)

		rec := postWebhook(h, payload, signPayload(payload, testWebhookSecret))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, notifier.events)

		var n int
		require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n))
		assert.Zero(t, n, "no order is created")
	})

	t.Run("unrelated event types are acknowledged without changes", func(t *testing.T) {
		h, s, _ := newWebhookFixture(t)
		order := seedCardOrder(t, s)
		payload := fmt.Sprintf(`{
			"id": "evt_test_2",
			"object": "event",
			"type": "payment_intent.created",
			"data": {"object": {"id": "pi_test_1", "metadata": {"order_id": "%d"}}}
		}`, order.ID)

		rec := postWebhook(h, payload, signPayload(payload, testWebhookSecret))
		assert.Equal(t, http.StatusOK, rec.Code)

		got, err := s.GetOrderByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.False(t, got.Paid)
	})
}
