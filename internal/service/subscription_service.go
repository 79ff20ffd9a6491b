// internal/service/subscription_service.go
package service

import (
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/webrall/newsletter-backend/internal/model"
	"github.com/webrall/newsletter-backend/internal/repository"
)

// SubscribeResult is the intake outcome surfaced to the signup form.
type SubscribeResult string

const (
	SubscribeOK      SubscribeResult = "ok"
	SubscribeExists  SubscribeResult = "exists"
	SubscribeInvalid SubscribeResult = "invalid"
	SubscribeError   SubscribeResult = "error"
)

type SubscriptionService struct {
	SubscriberRepo repository.SubscriberRepositoryInterface
	PostRepo       repository.PostRepositoryInterface
	ReportRepo     repository.ReportRepositoryInterface
	Dispatcher     *DispatchService
}

// NormalizeEmail lower-cases and validates an address. The empty string
// return marks a malformed input.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ""
	}
	return email
}

// Subscribe registers an address (or reactivates an unsubscribed one) and
// sends it the latest published post with a real unsubscribe link.
// A currently active address is rejected as a duplicate before any write.
func (s *SubscriptionService) Subscribe(email string) SubscribeResult {
	email = NormalizeEmail(email)
	if email == "" {
		return SubscribeInvalid
	}

	existing, err := s.SubscriberRepo.GetByEmail(email)
	if err != nil {
		log.Println("⚠️ subscribe lookup failed:", err)
		return SubscribeError
	}
	if existing != nil && existing.Status == model.SubscriberActive {
		return SubscribeExists
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, _, err := s.SubscriberRepo.UpsertActive(email, token); err != nil {
		log.Println("⚠️ subscribe upsert failed:", err)
		return SubscribeError
	}

	// Welcome send: the most recent published post, addressed to this one
	// subscriber with a token-bound footer link.
	post, err := s.PostRepo.LatestPublished()
	if err != nil {
		log.Println("⚠️ failed to load latest post:", err)
		return SubscribeError
	}
	if post == nil {
		log.Println("⚠️ no published post to send on signup")
		return SubscribeError
	}

	report := s.Dispatcher.Dispatch(post, []string{email}, true, model.TargetOne)
	s.persistReport(report)
	if !report.HadEffect() {
		return SubscribeError
	}
	return SubscribeOK
}

// Unsubscribe is a strict no-op unless email, token and active status all
// match.
func (s *SubscriptionService) Unsubscribe(email, token string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" || token == "" {
		return false, nil
	}
	return s.SubscriberRepo.MarkUnsubscribed(email, token)
}

// SendTest sends the latest published post to a single address, normally
// the operator's own, and records the report under the test target.
func (s *SubscriptionService) SendTest(email string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, nil
	}
	post, err := s.PostRepo.LatestPublished()
	if err != nil {
		return false, err
	}
	if post == nil {
		return false, nil
	}
	report := s.Dispatcher.Dispatch(post, []string{email}, true, model.TargetTest)
	s.persistReport(report)
	return report.HadEffect(), nil
}

// SendToAll broadcasts one post to every active subscriber in a single
// dispatch, with the generic footer. Large lists should go through the
// batch scheduler instead.
func (s *SubscriptionService) SendToAll(postID int) (bool, error) {
	post, err := s.PostRepo.GetByID(postID)
	if err != nil {
		return false, err
	}

	count, err := s.SubscriberRepo.CountActive()
	if err != nil {
		return false, err
	}
	subs, err := s.SubscriberRepo.ListActive(count, 0)
	if err != nil {
		return false, err
	}
	emails := make([]string, len(subs))
	for i, sub := range subs {
		emails[i] = sub.Email
	}

	report := s.Dispatcher.Dispatch(post, emails, false, model.TargetAll)
	s.persistReport(report)
	return report.HadEffect(), nil
}

func (s *SubscriptionService) persistReport(report *model.DeliveryReport) {
	if s.ReportRepo == nil {
		return
	}
	if err := s.ReportRepo.Save(report); err != nil {
		log.Println("⚠️ failed to persist delivery report:", err)
	}
}
