package queue

import (
	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	"campus-enrollment/internal/observability"
	"campus-enrollment/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	NotificationQueueKey  = "queue:notifications"
	DefaultDequeueTimeout = 2 * time.Second
	WorkerSleepDuration   = 50 * time.Millisecond
)

var errQueueFull = errors.New("notification queue is full")

// boundedPushScript pushes only while the list is shorter than ARGV[2].
var boundedPushScript = redis.NewScript(`
	if redis.call("LLEN", KEYS[1]) >= tonumber(ARGV[2]) then
		return 0
	end
	redis.call("LPUSH", KEYS[1], ARGV[1])
	return 1
`)

// RedisQueue keeps confirmation jobs in a Redis list so they survive a
// restart of the API process.
type RedisQueue struct {
	client *redis.Client
	key    string
	deliverer

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex
}

func NewRedisQueue(client *redis.Client, sender interfaces.NotificationSender, opts Options) *RedisQueue {
	opts = opts.withDefaults()

	return &RedisQueue{
		client:    client,
		key:       NotificationQueueKey,
		deliverer: deliverer{sender: sender, opts: opts},
		started:   false,
	}
}

func (rq *RedisQueue) StartWorkers() {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.started {
		return
	}

	rq.ctx, rq.cancel = context.WithCancel(context.Background())

	logger.Info("Starting %d Redis notification workers", rq.opts.Workers)

	for i := 0; i < rq.opts.Workers; i++ {
		rq.wg.Add(1)
		go rq.notificationWorker(i)
	}

	rq.started = true
	logger.Info("Redis notification workers started successfully")
}

func (rq *RedisQueue) StopWorkers() {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if !rq.started {
		return
	}

	logger.Info("Stopping Redis notification workers...")
	rq.cancel()
	rq.wg.Wait()
	rq.started = false
	logger.Info("Redis notification workers stopped")
}

// EnqueueConfirmation pushes the job unless the list already holds
// BufferSize jobs. The round trip is bounded by opts.EnqueueTimeout.
func (rq *RedisQueue) EnqueueConfirmation(ctx context.Context, job interfaces.NotificationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, rq.opts.EnqueueTimeout)
	defer cancel()

	pushed, err := boundedPushScript.Run(ctx, rq.client, []string{rq.key}, data, rq.opts.BufferSize).Int()
	if err != nil {
		return fmt.Errorf("failed to enqueue notification job: %w", err)
	}
	if pushed == 0 {
		observability.RecordNotificationDropped("queue_full")
		return errQueueFull
	}

	logger.Debug("Enqueued confirmation for enrollment %s", job.EnrollmentID)
	return nil
}

// Len returns the number of queued jobs.
func (rq *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := rq.client.LLen(ctx, rq.key).Result()
	return int(n), err
}

func (rq *RedisQueue) dequeue(ctx context.Context) (*interfaces.NotificationJob, error) {
	result, err := rq.client.BRPop(ctx, DefaultDequeueTimeout, rq.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue notification job: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected Redis BRPOP result format")
	}

	var job interfaces.NotificationJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification job: %w", err)
	}

	return &job, nil
}

func (rq *RedisQueue) notificationWorker(workerID int) {
	defer rq.wg.Done()

	logger.Debug("Redis notification worker %d started", workerID)

	for {
		select {
		case <-rq.ctx.Done():
			logger.Debug("Redis notification worker %d stopped", workerID)
			return
		default:
			job, err := rq.dequeue(rq.ctx)
			if err != nil {
				if rq.ctx.Err() != nil {
					continue
				}
				logger.Error("Redis notification worker %d error: %v", workerID, err)
				time.Sleep(WorkerSleepDuration)
				continue
			}

			if job != nil {
				rq.deliver(rq.ctx, workerID, *job)
			}
		}
	}
}

var _ interfaces.NotificationQueue = (*RedisQueue)(nil)
