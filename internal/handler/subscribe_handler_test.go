package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/webrall/newsletter-backend/internal/handler"
	"github.com/webrall/newsletter-backend/internal/mailer"
	"github.com/webrall/newsletter-backend/internal/model"
	"github.com/webrall/newsletter-backend/internal/security"
	"github.com/webrall/newsletter-backend/internal/service"
)

// --- Mock Repositories ---

type MockSubscriberRepo struct {
	byEmail map[string]*model.Subscriber
}

func newMockSubscriberRepo() *MockSubscriberRepo {
	return &MockSubscriberRepo{byEmail: map[string]*model.Subscriber{}}
}

func (m *MockSubscriberRepo) GetByEmail(email string) (*model.Subscriber, error) {
	return m.byEmail[email], nil
}

func (m *MockSubscriberRepo) UpsertActive(email, token string) (*model.Subscriber, bool, error) {
	if s, ok := m.byEmail[email]; ok {
		s.Status = model.SubscriberActive
		s.Token = token
		s.UnsubAt = nil
		return s, false, nil
	}
	s := &model.Subscriber{
		ID:        len(m.byEmail) + 1,
		Email:     email,
		Status:    model.SubscriberActive,
		Token:     token,
		CreatedAt: time.Now(),
	}
	m.byEmail[email] = s
	return s, true, nil
}

func (m *MockSubscriberRepo) MarkUnsubscribed(email, token string) (bool, error) {
	s := m.byEmail[email]
	if s == nil || s.Token != token || s.Status != model.SubscriberActive {
		return false, nil
	}
	now := time.Now()
	s.Status = model.SubscriberUnsub
	s.UnsubAt = &now
	return true, nil
}

func (m *MockSubscriberRepo) ListActive(limit, offset int) ([]model.Subscriber, error) {
	return []model.Subscriber{}, nil
}

func (m *MockSubscriberRepo) CountActive() (int, error) { return len(m.byEmail), nil }

func (m *MockSubscriberRepo) ListAll(offset, limit int) ([]model.Subscriber, int, error) {
	return []model.Subscriber{}, len(m.byEmail), nil
}

type MockPostRepo struct{}

func (m *MockPostRepo) Create(p *model.Post) error          { return nil }
func (m *MockPostRepo) GetByID(id int) (*model.Post, error) { return m.LatestPublished() }
func (m *MockPostRepo) Publish(id int) (*model.Post, bool, error) {
	p, _ := m.LatestPublished()
	return p, false, nil
}
func (m *MockPostRepo) LatestPublished() (*model.Post, error) {
	now := time.Now()
	return &model.Post{
		ID:          1,
		Title:       "Welcome Issue",
		Body:        "<p>Hello readers</p>",
		Permalink:   "https://example.com/welcome",
		Status:      model.PostPublished,
		PublishedAt: &now,
		CreatedAt:   now,
	}, nil
}

type MockReportRepo struct{}

func (m *MockReportRepo) Save(r *model.DeliveryReport) error      { return nil }
func (m *MockReportRepo) Latest() (*model.DeliveryReport, error)  { return nil, nil }

type MockSender struct {
	sent []string
}

func (m *MockSender) Send(to, subject, htmlBody string, embed *mailer.Embed) mailer.SendResult {
	m.sent = append(m.sent, to)
	return mailer.SendResult{OK: true}
}

func newSubscribeHandler() (*handler.SubscribeHandler, *MockSubscriberRepo, *MockSender) {
	subs := newMockSubscriberRepo()
	sender := &MockSender{}
	dispatcher := &service.DispatchService{
		SubscriberRepo: subs,
		Mailer:         sender,
		SiteName:       "Example",
		SiteURL:        "https://example.com",
	}
	svc := &service.SubscriptionService{
		SubscriberRepo: subs,
		PostRepo:       &MockPostRepo{},
		ReportRepo:     &MockReportRepo{},
		Dispatcher:     dispatcher,
	}
	return &handler.SubscribeHandler{Service: svc, Guard: security.NewGuard()}, subs, sender
}

func postForm(form url.Values) *http.Request {
	req := httptest.NewRequest("POST", "/subscribe", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var res map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return res["message"]
}

// --- Test Functions ---

func TestSubscribeFormPost(t *testing.T) {
	h, subs, sender := newSubscribeHandler()

	w := httptest.NewRecorder()
	h.Subscribe(w, postForm(url.Values{"email": {"Reader@Example.com"}}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if msg := decodeMessage(t, w); msg != "ok" {
		t.Errorf("expected ok, got %q", msg)
	}
	if subs.byEmail["reader@example.com"] == nil {
		t.Errorf("subscriber not stored under normalized address")
	}
	if len(sender.sent) != 1 || sender.sent[0] != "reader@example.com" {
		t.Errorf("welcome send missing, sent=%v", sender.sent)
	}
}

func TestSubscribeJSONBody(t *testing.T) {
	h, _, _ := newSubscribeHandler()

	req := httptest.NewRequest("POST", "/subscribe", strings.NewReader(`{"email":"json@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Subscribe(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubscribeDuplicate(t *testing.T) {
	h, _, _ := newSubscribeHandler()

	w := httptest.NewRecorder()
	h.Subscribe(w, postForm(url.Values{"email": {"dup@example.com"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("first signup failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Subscribe(w, postForm(url.Values{"email": {"dup@example.com"}}))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if msg := decodeMessage(t, w); msg != "exists" {
		t.Errorf("expected exists, got %q", msg)
	}
}

func TestSubscribeInvalidEmail(t *testing.T) {
	h, _, _ := newSubscribeHandler()

	w := httptest.NewRecorder()
	h.Subscribe(w, postForm(url.Values{"email": {"not-an-address"}}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubscribeHoneypotFakeSuccess(t *testing.T) {
	h, subs, sender := newSubscribeHandler()

	form := url.Values{
		"email":               {"bot@example.com"},
		security.HoneypotField: {"http://spam.example"},
	}
	w := httptest.NewRecorder()
	h.Subscribe(w, postForm(form))

	if w.Code != http.StatusOK {
		t.Fatalf("honeypot must answer 200, got %d", w.Code)
	}
	if msg := decodeMessage(t, w); msg != "ok" {
		t.Errorf("honeypot must look like success, got %q", msg)
	}
	if len(subs.byEmail) != 0 {
		t.Errorf("honeypot signup must not be stored")
	}
	if len(sender.sent) != 0 {
		t.Errorf("honeypot signup must not trigger a send")
	}
}

func TestUnsubscribeRedirectsOnSuccess(t *testing.T) {
	h, subs, _ := newSubscribeHandler()

	w := httptest.NewRecorder()
	h.Subscribe(w, postForm(url.Values{"email": {"leaver@example.com"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("signup failed: %d", w.Code)
	}
	token := subs.byEmail["leaver@example.com"].Token

	uh := &handler.UnsubscribeHandler{Service: h.Service, RedirectURL: "https://example.com/bye"}

	req := httptest.NewRequest("GET", "/unsubscribe?email=leaver%40example.com&token="+token, nil)
	w = httptest.NewRecorder()
	uh.Unsubscribe(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/bye" {
		t.Errorf("wrong redirect target %q", loc)
	}

	// wrong token afterwards is a flat 200, no redirect
	req = httptest.NewRequest("GET", "/unsubscribe?email=leaver%40example.com&token=wrong", nil)
	w = httptest.NewRecorder()
	uh.Unsubscribe(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected flat 200 on mismatch, got %d", w.Code)
	}
}
