// internal/controller/subscriber_controller.go
package controller

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/webrall/newsletter-backend/internal/mailer"
	"github.com/webrall/newsletter-backend/internal/model"
	"github.com/webrall/newsletter-backend/internal/repository"
)

type SubscriberController struct {
	SubscriberRepo repository.SubscriberRepositoryInterface
	ReportRepo     repository.ReportRepositoryInterface
	Transcripts    *mailer.TranscriptStore
}

// ListSubscribers returns a display page of subscribers with pagination
// info.
func (c *SubscriberController) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	subs, total, err := c.SubscriberRepo.ListAll(offset, pageSize)
	if err != nil {
		http.Error(w, "failed to fetch subscribers: "+err.Error(), http.StatusInternalServerError)
		return
	}

	active, err := c.SubscriberRepo.CountActive()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": subs,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
		"active_count": active,
	})
}

// ExportCSV streams the active subscribers as
// email,status,created_at,unsub_at.
func (c *SubscriberController) ExportCSV(w http.ResponseWriter, r *http.Request) {
	active, err := c.SubscriberRepo.CountActive()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	subs, err := c.SubscriberRepo.ListActive(active, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=subscribers.csv")

	cw := csv.NewWriter(w)
	cw.Write([]string{"email", "status", "created_at", "unsub_at"})
	for _, s := range subs {
		unsubAt := ""
		if s.UnsubAt != nil {
			unsubAt = s.UnsubAt.Format("2006-01-02 15:04:05")
		}
		cw.Write([]string{s.Email, s.Status, s.CreatedAt.Format("2006-01-02 15:04:05"), unsubAt})
	}
	cw.Flush()
}

// GetReport returns the most recent delivery report across all targets.
func (c *SubscriberController) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := c.ReportRepo.Latest()
	if err != nil {
		http.Error(w, "failed to fetch report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if report == nil {
		report = &model.DeliveryReport{FailList: map[string]string{}}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// GetSMTPDebug exposes the transient send transcripts for the
// verification page.
func (c *SubscriberController) GetSMTPDebug(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"transcripts": c.Transcripts.Recent(),
	})
}
