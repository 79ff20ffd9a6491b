// internal/controller/post_controller.go
package controller

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/webrall/newsletter-backend/internal/errors"
	"github.com/webrall/newsletter-backend/internal/model"
	"github.com/webrall/newsletter-backend/internal/repository"
	"github.com/webrall/newsletter-backend/internal/scheduler"
	"github.com/webrall/newsletter-backend/internal/service"
)

type PostController struct {
	PostRepo  repository.PostRepositoryInterface
	Scheduler *scheduler.BatchScheduler
	Service   *service.SubscriptionService
}

func (c *PostController) CreatePost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title     string `json:"title"`
		Body      string `json:"body"`
		Excerpt   string `json:"excerpt"`
		Permalink string `json:"permalink"`
		ImagePath string `json:"image_path"`
		ImageURL  string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	post := &model.Post{
		Title:     body.Title,
		Body:      body.Body,
		Excerpt:   body.Excerpt,
		Permalink: body.Permalink,
		ImagePath: body.ImagePath,
		ImageURL:  body.ImageURL,
		Status:    model.PostDraft,
	}
	if err := c.PostRepo.Create(post); err != nil {
		http.Error(w, "failed to create post: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

// PublishPost publishes a post; the first publication ever also starts the
// broadcast sweep.
func (c *PostController) PublishPost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, firstTime, err := c.Scheduler.PublishPost(id)
	if err != nil {
		if _, ok := err.(*appErrors.ErrPostNotFound); ok {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Println("⚠️ publish failed:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"post":                post,
		"broadcast_scheduled": firstTime,
	})
}

func (c *PostController) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, err := c.PostRepo.GetByID(id)
	if err != nil {
		if _, ok := err.(*appErrors.ErrPostNotFound); ok {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

// SendNow broadcasts a post to all active subscribers in one dispatch,
// bypassing the batch scheduler. Intended for small lists.
func (c *PostController) SendNow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	sent, err := c.Service.SendToAll(id)
	if err != nil {
		if _, ok := err.(*appErrors.ErrPostNotFound); ok {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"sent": sent})
}

// SendTest sends the latest published post to a single test address.
type SendTestRequest struct {
	Email string `json:"email"`
}

func (c *PostController) SendTest(w http.ResponseWriter, r *http.Request) {
	var body SendTestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	sent, err := c.Service.SendTest(body.Email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"sent": sent})
}
