package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/rainballs/jivot-bez-shum/internal/checkout"
	"github.com/rainballs/jivot-bez-shum/internal/models"
	"github.com/rainballs/jivot-bez-shum/internal/store"
)

const (
	sessionName          = "shop-session"
	sessionKeyOrderID    = "current_order_id"
	sessionKeyStripeSess = "stripe_session_id"
)

type CheckoutHandler struct {
	Store        *store.Store
	Service      *checkout.Service
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
	SiteURL      string
}

// currentOrder resolves the session's "current order" association.
func (h *CheckoutHandler) currentOrder(r *http.Request, session *sessions.Session) *models.Order {
	id, ok := session.Values[sessionKeyOrderID].(int)
	if !ok {
		return nil
	}
	order, err := h.Store.GetOrderByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return order
}

// InfoForm renders checkout step A.
func (h *CheckoutHandler) InfoForm(w http.ResponseWriter, r *http.Request) {
	product, err := h.Store.StorefrontProduct(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNoProduct) {
			session, _ := h.SessionStore.Get(r, sessionName)
			session.AddFlash(FlashMessage{Type: "error", Message: "No product is available right now."})
			session.Save(r, w)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		http.Error(w, "Error fetching product", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("checkout_info.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, sessionName)
	data := map[string]interface{}{
		"Product":   product,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// SubmitInfo handles the step A form post.
func (h *CheckoutHandler) SubmitInfo(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, sessionName)
	defer session.Save(r, w)

	if err := r.ParseForm(); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid form data."})
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	quantity := 0
	if q, err := strconv.Atoi(r.FormValue("quantity")); err == nil {
		quantity = q
	}

	in := checkout.Input{
		FullName:       r.FormValue("full_name"),
		Email:          r.FormValue("email"),
		Phone:          r.FormValue("phone"),
		DeliveryMethod: r.FormValue("delivery_method"),
		Courier:        r.FormValue("courier"),
		AddressLine:    r.FormValue("address_line"),
		City:           r.FormValue("city"),
		PostalCode:     r.FormValue("postal_code"),
		OfficeText:     r.FormValue("office_text"),
		Quantity:       quantity,
	}

	order, fieldErrs, err := h.Service.SubmitInfo(r.Context(), in)
	if err != nil {
		if errors.Is(err, store.ErrNoProduct) {
			session.AddFlash(FlashMessage{Type: "error", Message: "No product is available right now."})
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		slog.Error("Failed to create order", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Failed to place order. Please try again."})
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}
	if fieldErrs != nil {
		for _, msg := range fieldErrs {
			session.AddFlash(FlashMessage{Type: "error", Message: msg})
		}
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	session.Values[sessionKeyOrderID] = order.ID

	if h.Service.CODOnly {
		http.Redirect(w, r, "/checkout/thank-you", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/checkout/payment", http.StatusSeeOther)
}

// PaymentForm renders checkout step B.
func (h *CheckoutHandler) PaymentForm(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, sessionName)
	order := h.currentOrder(r, session)
	if order == nil {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	tmpl := h.Templates.Get("checkout_payment.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	// Preselect card so there is always a value.
	selected := order.PaymentMethod
	if selected == models.PaymentUnset {
		selected = models.PaymentCard
	}
	data := map[string]interface{}{
		"Order":     order,
		"Selected":  string(selected),
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// ChoosePayment handles the step B form post.
func (h *CheckoutHandler) ChoosePayment(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, sessionName)
	defer session.Save(r, w)

	order := h.currentOrder(r, session)
	if order == nil {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	method := models.PaymentMethod(r.FormValue("payment_method"))
	outcome, err := h.Service.ChoosePayment(r.Context(), order, method)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrGatewayNotConfigured):
			session.AddFlash(FlashMessage{Type: "error", Message: "Card payments are not configured (missing STRIPE_PUBLIC_KEY / STRIPE_SECRET_KEY)."})
			http.Redirect(w, r, "/checkout/payment", http.StatusSeeOther)
		case errors.Is(err, models.ErrPaymentMethodChosen):
			http.Redirect(w, r, "/checkout/thank-you", http.StatusSeeOther)
		default:
			session.AddFlash(FlashMessage{Type: "error", Message: "Please select a payment method."})
			http.Redirect(w, r, "/checkout/payment", http.StatusSeeOther)
		}
		return
	}

	if outcome == checkout.PaymentRedirectGateway {
		http.Redirect(w, r, "/pay/stripe/create-session", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/checkout/thank-you", http.StatusSeeOther)
}

// CreateStripeSession redirects the buyer into the hosted checkout session.
func (h *CheckoutHandler) CreateStripeSession(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, sessionName)
	order := h.currentOrder(r, session)
	if order == nil {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	// The route is mounted unconditionally, so a buyer can request it even
	// when card payments are switched off.
	if !h.Service.Gateway.Configured() {
		session.AddFlash(FlashMessage{Type: "error", Message: "Card payments are not configured (missing STRIPE_PUBLIC_KEY / STRIPE_SECRET_KEY)."})
		session.Save(r, w)
		http.Redirect(w, r, "/checkout/payment", http.StatusSeeOther)
		return
	}

	product, err := h.Store.StorefrontProduct(r.Context())
	if err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "No product is available right now."})
		session.Save(r, w)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess, err := h.Service.Gateway.CreateSession(r.Context(), order, product,
		h.SiteURL+"/checkout/thank-you", h.SiteURL+"/checkout/payment")
	if err != nil {
		slog.Error("Stripe session creation failed", "order_id", order.ID, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Error connecting to the payment provider. Please try again."})
		session.Save(r, w)
		http.Redirect(w, r, "/checkout/payment", http.StatusSeeOther)
		return
	}

	session.Values[sessionKeyStripeSess] = sess.ID
	session.Save(r, w)
	http.Redirect(w, r, sess.URL, http.StatusSeeOther)
}

// ThankYou renders step C and clears the session's order association, so a
// refresh shows nothing.
func (h *CheckoutHandler) ThankYou(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, sessionName)
	order := h.currentOrder(r, session)
	if order != nil {
		delete(session.Values, sessionKeyOrderID)
		delete(session.Values, sessionKeyStripeSess)
	}

	tmpl := h.Templates.Get("thank_you.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	data := map[string]interface{}{
		"Order":   order,
		"Flashes": GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}
