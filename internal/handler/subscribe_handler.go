// internal/handler/subscribe_handler.go
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/webrall/newsletter-backend/internal/security"
	"github.com/webrall/newsletter-backend/internal/service"
)

// SubscribeHandler owns the public signup intake.
type SubscribeHandler struct {
	Service *service.SubscriptionService
	Guard   *security.Guard
}

// Subscribe accepts a form post or a JSON body with an email field and
// answers one of {ok, exists, invalid, error}.
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	email := readEmail(r)

	if err := h.Guard.CheckSubscribe(r); err != nil {
		switch err {
		case security.ErrHoneypot:
			// Silent fake success: a bot learns nothing.
			writeResult(w, http.StatusOK, service.SubscribeOK)
		case security.ErrRateLimited:
			writeResult(w, http.StatusTooManyRequests, service.SubscribeError)
		default:
			writeResult(w, http.StatusBadRequest, service.SubscribeError)
		}
		return
	}

	result := h.Service.Subscribe(email)
	switch result {
	case service.SubscribeOK:
		writeResult(w, http.StatusOK, result)
	case service.SubscribeExists:
		writeResult(w, http.StatusConflict, result)
	case service.SubscribeInvalid:
		writeResult(w, http.StatusBadRequest, result)
	default:
		writeResult(w, http.StatusInternalServerError, result)
	}
}

func readEmail(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			log.Println("⚠️ invalid subscribe body:", err)
			return ""
		}
		return body.Email
	}
	return r.FormValue("email")
}

func writeResult(w http.ResponseWriter, status int, result service.SubscribeResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": string(result)})
}
