package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// TopicBroadcastTicks carries one batch-send tick per message.
const TopicBroadcastTicks = "broadcast_ticks"

// Queue interface
type Queue interface {
	Publish(topic string, body []byte) error
	Subscribe(topic string, handler func(body []byte) error) error
}

// InMemoryQueue runs handlers in-process with retry; it backs the
// single-binary mode and the tests.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(body []byte) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(body []byte) error),
	}
}

// job wraps a message body with retry info
type job struct {
	body       []byte
	retryCount int
	maxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, body []byte) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	j := job{body: body, retryCount: 0, maxRetries: 3}
	for _, handler := range handlers {
		go q.processJob(handler, j)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(body []byte) error, j job) {
	for j.retryCount <= j.maxRetries {
		err := handler(j.body)
		if err == nil {
			return // ACK
		}

		j.retryCount++
		log.Printf("Job failed (attempt %d/%d): %s, error: %v\n", j.retryCount, j.maxRetries, j.body, err)

		if j.retryCount > j.maxRetries {
			log.Printf("Job permanently failed after %d attempts: %s\n", j.maxRetries, j.body)
			return // No requeue
		}

		// Backoff before retry
		time.Sleep(time.Duration(j.retryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(body []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
