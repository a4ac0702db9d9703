package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/rainballs/jivot-bez-shum/internal/store"
)

type HomeHandler struct {
	Store        *store.Store
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
}

func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	product, err := h.Store.StorefrontProduct(r.Context())
	if err != nil && !errors.Is(err, store.ErrNoProduct) {
		http.Error(w, "Error fetching product", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("home.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	session, _ := h.SessionStore.Get(r, "shop-session")
	data := map[string]interface{}{
		"Product": product, // nil when the catalog is empty
		"Flashes": GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}
