// Package scheduler drives a broadcast as a sequence of bounded batch
// ticks. Each tick is a persisted job row plus a queue message; the sweep
// ends when a slice comes back empty. Delivery is at-least-once: a tick
// retried after a crash between send and reschedule may re-send its slice,
// which is accepted rather than hidden.
package scheduler

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/webrall/newsletter-backend/internal/model"
	"github.com/webrall/newsletter-backend/internal/queue"
	"github.com/webrall/newsletter-backend/internal/repository"
	"github.com/webrall/newsletter-backend/internal/service"
)

const (
	DefaultBatchSize = 200
	initialDelay     = 10 * time.Second
	batchDelay       = 5 * time.Second
)

// TickMessage is the wire form of one scheduled batch tick.
type TickMessage struct {
	PostID      int       `json:"post_id"`
	Offset      int       `json:"offset"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type BatchScheduler struct {
	PostRepo       repository.PostRepositoryInterface
	SubscriberRepo repository.SubscriberRepositoryInterface
	JobRepo        repository.BroadcastJobRepositoryInterface
	ReportRepo     repository.ReportRepositoryInterface
	Dispatcher     *service.DispatchService
	Queue          queue.Queue
	BatchSize      int
}

func (s *BatchScheduler) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return DefaultBatchSize
}

// PublishPost publishes the post and, exactly once per post lifetime,
// starts a broadcast sweep at offset 0. Re-publishing an already-published
// post never triggers a second sweep.
func (s *BatchScheduler) PublishPost(postID int) (*model.Post, bool, error) {
	post, firstTime, err := s.PostRepo.Publish(postID)
	if err != nil {
		return nil, false, err
	}
	if !firstTime {
		return post, false, nil
	}

	if err := s.schedule(postID, 0, time.Now().Add(initialDelay)); err != nil {
		return post, true, fmt.Errorf("failed to schedule broadcast: %w", err)
	}
	log.Printf("📩 Broadcast scheduled for post %d\n", postID)
	return post, true, nil
}

func (s *BatchScheduler) schedule(postID, offset int, due time.Time) error {
	if _, err := s.JobRepo.Upsert(postID, offset, due); err != nil {
		return err
	}
	body, err := json.Marshal(TickMessage{PostID: postID, Offset: offset, ScheduledAt: due})
	if err != nil {
		return err
	}
	return s.Queue.Publish(queue.TopicBroadcastTicks, body)
}

// HandleTick is the queue subscriber entry point. It waits out the tick's
// delay, then runs it. A store failure is returned so the queue's bounded
// retry applies; everything else is absorbed into the delivery report.
func (s *BatchScheduler) HandleTick(body []byte) error {
	var msg TickMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Println("⚠️ invalid tick payload, discarding:", err)
		return nil // no retry
	}

	if wait := time.Until(msg.ScheduledAt); wait > 0 {
		time.Sleep(wait)
	}

	_, err := s.RunTick(msg.PostID, msg.Offset)
	return err
}

// RunTick processes one batch slice. It reports whether the sweep
// continues. The empty slice is the only terminal condition: the job row
// is deleted and nothing is re-enqueued.
func (s *BatchScheduler) RunTick(postID, offset int) (bool, error) {
	post, err := s.PostRepo.GetByID(postID)
	if err != nil {
		return false, err
	}

	subs, err := s.SubscriberRepo.ListActive(s.batchSize(), offset)
	if err != nil {
		return false, err
	}
	if len(subs) == 0 {
		log.Printf("✅ Broadcast for post %d complete at offset %d\n", postID, offset)
		return false, s.JobRepo.Delete(postID)
	}

	emails := make([]string, len(subs))
	for i, sub := range subs {
		emails[i] = sub.Email
	}

	report := s.Dispatcher.Dispatch(post, emails, false, model.TargetBatch)
	if err := s.ReportRepo.Save(report); err != nil {
		log.Println("⚠️ failed to persist delivery report:", err)
	}
	log.Printf("📩 Batch tick post=%d offset=%d total=%d ok=%d fail=%d\n",
		postID, offset, report.Total, report.OK, report.Fail)

	next := offset + s.batchSize()
	if err := s.schedule(postID, next, time.Now().Add(batchDelay)); err != nil {
		return true, fmt.Errorf("failed to schedule next tick: %w", err)
	}
	return true, nil
}

// RecoverDueJobs re-enqueues persisted jobs whose queue message was lost,
// e.g. after a broker wipe. Called once on worker start.
func (s *BatchScheduler) RecoverDueJobs() error {
	jobs, err := s.JobRepo.ListDue(time.Now())
	if err != nil {
		return err
	}
	for _, job := range jobs {
		body, err := json.Marshal(TickMessage{
			PostID:      job.PostID,
			Offset:      job.NextOffset,
			ScheduledAt: job.ScheduledAt,
		})
		if err != nil {
			return err
		}
		if err := s.Queue.Publish(queue.TopicBroadcastTicks, body); err != nil {
			return err
		}
		log.Printf("📩 Recovered broadcast job post=%d offset=%d\n", job.PostID, job.NextOffset)
	}
	return nil
}
