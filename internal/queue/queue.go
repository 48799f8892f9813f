package queue

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Queue carries campaign change events between the API and their consumers.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue fans payloads out to in-process subscribers with retry.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]func(payload any) error
	log        *zap.Logger
	maxRetries int
	backoff    time.Duration
	wg         sync.WaitGroup
}

func NewInMemoryQueue(log *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		log:        log,
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

// delivery is one payload on its way to one subscriber.
type delivery struct {
	topic      string
	payload    any
	retryCount int
	maxRetries int
}

// Publish hands the payload to every subscriber of topic on its own goroutine.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := append([]func(payload any) error(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := delivery{topic: topic, payload: payload, maxRetries: q.maxRetries}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}
	return nil
}

func (q *InMemoryQueue) processJob(handler func(payload any) error, job delivery) {
	defer q.wg.Done()
	for {
		err := handler(job.payload)
		if err == nil {
			return
		}

		job.retryCount++
		if job.retryCount > job.maxRetries {
			q.log.Error("Job permanently failed",
				zap.String("topic", job.topic),
				zap.Int("attempts", job.retryCount),
				zap.Error(err))
			return
		}
		q.log.Warn("Job failed, retrying",
			zap.String("topic", job.topic),
			zap.Int("attempt", job.retryCount),
			zap.Int("max_retries", job.maxRetries),
			zap.Error(err))

		time.Sleep(time.Duration(job.retryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every in-flight job has finished, including retries.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
