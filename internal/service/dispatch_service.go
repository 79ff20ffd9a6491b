// internal/service/dispatch_service.go
package service

import (
	"log"
	"net/url"
	"time"

	"github.com/webrall/newsletter-backend/internal/mailer"
	"github.com/webrall/newsletter-backend/internal/model"
	"github.com/webrall/newsletter-backend/internal/repository"
	"github.com/webrall/newsletter-backend/internal/template"
)

// Sender is the transport seam; the dispatcher only aggregates outcomes.
type Sender interface {
	Send(to, subject, htmlBody string, embed *mailer.Embed) mailer.SendResult
}

type DispatchService struct {
	SubscriberRepo repository.SubscriberRepositoryInterface
	Mailer         Sender
	SiteName       string
	SiteURL        string
}

// Dispatch renders the post once and sends it to every recipient,
// isolating per-recipient transport failures. It never returns an error:
// an ineligible post or empty recipient set yields a zero report, and the
// caller persists the report itself.
//
// renderUnsubscribe embeds a per-recipient token link (single and test
// sends). Broadcast and batch targets keep renderUnsubscribe false so one
// render serves the whole slice; those recipients get the generic footer.
func (s *DispatchService) Dispatch(post *model.Post, recipients []string, renderUnsubscribe bool, target string) *model.DeliveryReport {
	report := &model.DeliveryReport{
		Time:     time.Now(),
		Target:   target,
		FailList: map[string]string{},
	}

	if post == nil || post.Status != model.PostPublished {
		log.Println("⚠️ dispatch skipped: no eligible published post")
		return report
	}
	report.PostID = post.ID
	report.Subject = "[" + s.SiteName + "] " + post.Title
	if len(recipients) == 0 {
		return report
	}

	// Content is resolved exactly once per dispatch: render once, send many.
	excerpt := ResolveExcerpt(post.Excerpt, post.Body)
	imageSrc, embed := mailer.PrepareImage(post.ImagePath, post.ImageURL)
	params := template.Params{
		Site:      s.SiteName,
		Title:     post.Title,
		Excerpt:   excerpt,
		Permalink: post.Permalink,
		Image:     imageSrc,
	}
	baseBody, err := template.Render(params)
	if err != nil {
		log.Println("⚠️ failed to render message body:", err)
		for _, email := range recipients {
			report.Total++
			report.Fail++
			report.FailList[email] = "render failed: " + err.Error()
		}
		return report
	}

	for _, email := range recipients {
		report.Total++

		body := baseBody
		if renderUnsubscribe {
			if link := s.unsubscribeLinkFor(email); link != "" {
				p := params
				p.UnsubscribeURL = link
				if personal, err := template.Render(p); err == nil {
					body = personal
				}
			}
		}

		res := s.Mailer.Send(email, report.Subject, body, embed)
		if res.OK {
			report.OK++
		} else {
			report.Fail++
			report.FailList[email] = res.Err
		}
	}

	return report
}

// unsubscribeLinkFor builds the token-bound capability link for a known
// active subscriber; unknown addresses (e.g. a test target) get none.
func (s *DispatchService) unsubscribeLinkFor(email string) string {
	sub, err := s.SubscriberRepo.GetByEmail(email)
	if err != nil || sub == nil || sub.Status != model.SubscriberActive {
		return ""
	}
	return UnsubscribeURL(s.SiteURL, sub.Email, sub.Token)
}

// UnsubscribeURL builds the two-factor unsubscribe link.
func UnsubscribeURL(siteURL, email, token string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	u.Path = "/unsubscribe"
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
