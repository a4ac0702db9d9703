package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v78"

	"github.com/rainballs/jivot-bez-shum/internal/checkout"
	"github.com/rainballs/jivot-bez-shum/internal/payments"
)

// Stripe's recommended request body cap for webhook endpoints.
const maxWebhookBody = 65536

type WebhookHandler struct {
	Service       *checkout.Service
	WebhookSecret string
}

// HandleStripe accepts the asynchronous signed payment confirmation. The
// signature check is mandatory; nothing in the payload is trusted before it
// passes. Unknown orders and replays are acknowledged with 200 so the gateway
// does not retry forever.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	if h.WebhookSecret == "" {
		http.Error(w, "Missing webhook secret configuration", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read payload", http.StatusBadRequest)
		return
	}

	event, err := payments.VerifyEvent(payload, r.Header.Get("Stripe-Signature"), h.WebhookSecret)
	if err != nil {
		slog.Warn("Rejected webhook with invalid signature", "error", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	if event.Type == "checkout.session.completed" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			slog.Warn("Malformed checkout.session.completed payload", "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		orderID, err := strconv.Atoi(sess.Metadata["order_id"])
		if err == nil {
			changed, err := h.Service.ConfirmPaid(r.Context(), orderID)
			if err != nil {
				slog.Error("Failed to apply payment confirmation", "order_id", orderID, "error", err)
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			if changed {
				slog.Info("Order marked paid", "order_id", orderID)
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}
