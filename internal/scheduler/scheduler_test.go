package scheduler_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/webrall/newsletter-backend/internal/mailer"
	"github.com/webrall/newsletter-backend/internal/model"
	"github.com/webrall/newsletter-backend/internal/scheduler"
	"github.com/webrall/newsletter-backend/internal/service"
)

// --- Mocks ---

// orderedSubscriberRepo serves slices of n active rows with increasing ids.
type orderedSubscriberRepo struct {
	n int
}

func (r *orderedSubscriberRepo) ListActive(limit, offset int) ([]model.Subscriber, error) {
	subs := []model.Subscriber{}
	for id := offset + 1; id <= r.n && len(subs) < limit; id++ {
		subs = append(subs, model.Subscriber{
			ID:     id,
			Email:  fmt.Sprintf("sub%d@example.com", id),
			Status: model.SubscriberActive,
		})
	}
	return subs, nil
}
func (r *orderedSubscriberRepo) GetByEmail(email string) (*model.Subscriber, error) {
	return nil, nil
}
func (r *orderedSubscriberRepo) UpsertActive(email, token string) (*model.Subscriber, bool, error) {
	return nil, false, nil
}
func (r *orderedSubscriberRepo) MarkUnsubscribed(email, token string) (bool, error) {
	return false, nil
}
func (r *orderedSubscriberRepo) CountActive() (int, error) { return r.n, nil }
func (r *orderedSubscriberRepo) ListAll(offset, limit int) ([]model.Subscriber, int, error) {
	return []model.Subscriber{}, 0, nil
}

type schedPostRepo struct {
	post      *model.Post
	published bool // ever_published flag
}

func (r *schedPostRepo) Create(p *model.Post) error          { return nil }
func (r *schedPostRepo) GetByID(id int) (*model.Post, error) { return r.post, nil }
func (r *schedPostRepo) Publish(id int) (*model.Post, bool, error) {
	first := !r.published
	r.published = true
	r.post.Status = model.PostPublished
	return r.post, first, nil
}
func (r *schedPostRepo) LatestPublished() (*model.Post, error) { return r.post, nil }

// memJobRepo is the persisted sweep cursor.
type memJobRepo struct {
	jobs map[int]*model.BroadcastJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[int]*model.BroadcastJob{}}
}

func (r *memJobRepo) Upsert(postID, nextOffset int, scheduledAt time.Time) (*model.BroadcastJob, error) {
	job := &model.BroadcastJob{PostID: postID, NextOffset: nextOffset, ScheduledAt: scheduledAt}
	r.jobs[postID] = job
	return job, nil
}
func (r *memJobRepo) Get(postID int) (*model.BroadcastJob, error) { return r.jobs[postID], nil }
func (r *memJobRepo) Delete(postID int) error {
	delete(r.jobs, postID)
	return nil
}
func (r *memJobRepo) ListDue(now time.Time) ([]model.BroadcastJob, error) {
	out := []model.BroadcastJob{}
	for _, j := range r.jobs {
		if !j.ScheduledAt.After(now) {
			out = append(out, *j)
		}
	}
	return out, nil
}

type countingReportRepo struct {
	saved []*model.DeliveryReport
}

func (r *countingReportRepo) Save(report *model.DeliveryReport) error {
	r.saved = append(r.saved, report)
	return nil
}
func (r *countingReportRepo) Latest() (*model.DeliveryReport, error) {
	if len(r.saved) == 0 {
		return nil, nil
	}
	return r.saved[len(r.saved)-1], nil
}

// captureQueue records publishes without delivering, so a test can walk
// ticks by hand.
type captureQueue struct {
	published []scheduler.TickMessage
}

func (q *captureQueue) Publish(topic string, body []byte) error {
	var msg scheduler.TickMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return err
	}
	q.published = append(q.published, msg)
	return nil
}
func (q *captureQueue) Subscribe(topic string, handler func(body []byte) error) error { return nil }

type countingSender struct{ count int }

func (s *countingSender) Send(to, subject, htmlBody string, embed *mailer.Embed) mailer.SendResult {
	s.count++
	return mailer.SendResult{OK: true}
}

func newScheduler(n int, posts *schedPostRepo, jobs *memJobRepo, reports *countingReportRepo, q *captureQueue, sender *countingSender) *scheduler.BatchScheduler {
	subs := &orderedSubscriberRepo{n: n}
	return &scheduler.BatchScheduler{
		PostRepo:       posts,
		SubscriberRepo: subs,
		JobRepo:        jobs,
		ReportRepo:     reports,
		Dispatcher: &service.DispatchService{
			SubscriberRepo: subs,
			Mailer:         sender,
			SiteName:       "Example Blog",
			SiteURL:        "https://blog.example.com",
		},
		Queue: q,
	}
}

func testPost() *model.Post {
	return &model.Post{
		ID:        1,
		Title:     "Big announcement",
		Body:      "<p>Something happened.</p>",
		Permalink: "https://blog.example.com/big-announcement",
		Status:    model.PostPublished,
	}
}

// --- Tests ---

func TestSweepWalksBatchesUntilEmpty(t *testing.T) {
	posts := &schedPostRepo{post: testPost()}
	jobs := newMemJobRepo()
	reports := &countingReportRepo{}
	q := &captureQueue{}
	sender := &countingSender{}
	s := newScheduler(450, posts, jobs, reports, q, sender)

	if _, first, err := s.PublishPost(1); err != nil || !first {
		t.Fatalf("expected first publication to schedule, first=%v err=%v", first, err)
	}
	if len(q.published) != 1 || q.published[0].Offset != 0 {
		t.Fatalf("expected initial tick at offset 0, got %+v", q.published)
	}

	// Walk the published ticks by hand.
	wantOffsets := []int{0, 200, 400}
	wantTotals := []int{200, 200, 50}
	for i := 0; i < len(wantOffsets); i++ {
		msg := q.published[i]
		if msg.Offset != wantOffsets[i] {
			t.Fatalf("tick %d: expected offset %d, got %d", i, wantOffsets[i], msg.Offset)
		}
		more, err := s.RunTick(msg.PostID, msg.Offset)
		if err != nil {
			t.Fatal(err)
		}
		if !more {
			t.Fatalf("tick at offset %d must continue the sweep", msg.Offset)
		}
		if reports.saved[i].Total != wantTotals[i] {
			t.Errorf("tick at offset %d: expected %d recipients, got %d", msg.Offset, wantTotals[i], reports.saved[i].Total)
		}
	}

	// The 4th tick finds an empty slice and terminates without a report.
	final := q.published[3]
	if final.Offset != 600 {
		t.Fatalf("expected final tick at offset 600, got %d", final.Offset)
	}
	more, err := s.RunTick(final.PostID, final.Offset)
	if err != nil {
		t.Fatal(err)
	}
	if more {
		t.Errorf("empty slice must terminate the sweep")
	}
	if len(reports.saved) != 3 {
		t.Errorf("terminal tick must not produce a report, got %d reports", len(reports.saved))
	}
	if job, _ := jobs.Get(1); job != nil {
		t.Errorf("terminal tick must delete the job row, found %+v", job)
	}
	if sender.count != 450 {
		t.Errorf("expected 450 sends across the sweep, got %d", sender.count)
	}
}

func TestRepublishDoesNotRestartSweep(t *testing.T) {
	posts := &schedPostRepo{post: testPost(), published: true}
	q := &captureQueue{}
	s := newScheduler(10, posts, newMemJobRepo(), &countingReportRepo{}, q, &countingSender{})

	_, first, err := s.PublishPost(1)
	if err != nil {
		t.Fatal(err)
	}
	if first {
		t.Errorf("a previously published post must not count as first publication")
	}
	if len(q.published) != 0 {
		t.Errorf("republish must not enqueue a tick, got %d", len(q.published))
	}
}

func TestBatchTickReschedulesWithDelay(t *testing.T) {
	posts := &schedPostRepo{post: testPost()}
	jobs := newMemJobRepo()
	q := &captureQueue{}
	s := newScheduler(450, posts, jobs, &countingReportRepo{}, q, &countingSender{})

	before := time.Now()
	more, err := s.RunTick(1, 0)
	if err != nil || !more {
		t.Fatalf("expected tick to continue, more=%v err=%v", more, err)
	}

	job, _ := jobs.Get(1)
	if job == nil {
		t.Fatal("expected a persisted cursor for the next tick")
	}
	if job.NextOffset != 200 {
		t.Errorf("expected next offset 200, got %d", job.NextOffset)
	}
	if job.ScheduledAt.Before(before.Add(4 * time.Second)) {
		t.Errorf("next tick must be delayed, scheduled at %v", job.ScheduledAt)
	}
}

func TestTickMessageRoundTrip(t *testing.T) {
	msg := scheduler.TickMessage{PostID: 3, Offset: 400, ScheduledAt: time.Now().Round(time.Second)}
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var got scheduler.TickMessage
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.PostID != msg.PostID || got.Offset != msg.Offset || !got.ScheduledAt.Equal(msg.ScheduledAt) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, msg)
	}
}
