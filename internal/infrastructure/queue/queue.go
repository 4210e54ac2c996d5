package queue

import (
	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	"campus-enrollment/internal/observability"
	"campus-enrollment/pkg/logger"
	"context"
	"fmt"
	"sync"
)

// Queue buffers confirmation jobs in a channel served by a fixed worker pool.
type Queue struct {
	notificationQueue chan interfaces.NotificationJob
	deliverer

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex
}

func NewInMemoryQueue(sender interfaces.NotificationSender, opts Options) *Queue {
	opts = opts.withDefaults()

	return &Queue{
		notificationQueue: make(chan interfaces.NotificationJob, opts.BufferSize),
		deliverer:         deliverer{sender: sender, opts: opts},
		started:           false,
	}
}

func (q *Queue) StartWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}

	q.ctx, q.cancel = context.WithCancel(context.Background())

	logger.Info("Starting %d notification workers", q.opts.Workers)

	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.notificationWorker(i)
	}

	q.started = true
	logger.Info("Notification workers started successfully")
}

func (q *Queue) StopWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return
	}

	logger.Info("Stopping notification workers...")
	q.cancel()
	q.wg.Wait()
	q.started = false

	if pending := len(q.notificationQueue); pending > 0 {
		logger.Warn("Notification workers stopped with %d confirmations still queued", pending)
	}
	logger.Info("Notification workers stopped")
}

// EnqueueConfirmation never blocks: a full buffer is reported as an error.
func (q *Queue) EnqueueConfirmation(ctx context.Context, job interfaces.NotificationJob) error {
	select {
	case q.notificationQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		observability.RecordNotificationDropped("queue_full")
		return fmt.Errorf("notification queue is full")
	}
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	return len(q.notificationQueue)
}

func (q *Queue) notificationWorker(workerID int) {
	defer q.wg.Done()

	logger.Debug("Notification worker %d started", workerID)

	for {
		select {
		case <-q.ctx.Done():
			logger.Debug("Notification worker %d stopped", workerID)
			return
		case job := <-q.notificationQueue:
			q.deliver(q.ctx, workerID, job)
		}
	}
}

var _ interfaces.NotificationQueue = (*Queue)(nil)
