// internal/handler/unsubscribe_handler.go
package handler

import (
	"log"
	"net/http"

	"github.com/webrall/newsletter-backend/internal/service"
)

// UnsubscribeHandler serves the two-factor capability link from email
// footers.
type UnsubscribeHandler struct {
	Service     *service.SubscriptionService
	RedirectURL string
}

// Unsubscribe redirects on success and otherwise answers a flat 200 so the
// endpoint cannot be probed for which addresses or tokens exist.
func (h *UnsubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")

	ok, err := h.Service.Unsubscribe(email, token)
	if err != nil {
		log.Println("⚠️ unsubscribe failed:", err)
	}
	if ok {
		http.Redirect(w, r, h.RedirectURL, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusOK)
}
