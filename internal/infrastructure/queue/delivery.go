package queue

import (
	"context"
	"time"

	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	"campus-enrollment/internal/observability"
	"campus-enrollment/pkg/logger"
)

const (
	DefaultSendTimeout    = 10 * time.Second
	DefaultInitialBackoff = 200 * time.Millisecond
	DefaultEnqueueTimeout = 50 * time.Millisecond
)

// Options tune the notification workers.
type Options struct {
	BufferSize     int
	Workers        int
	MaxAttempts    int
	InitialBackoff time.Duration
	SendTimeout    time.Duration
	// EnqueueTimeout bounds a push made on the caller's request path.
	EnqueueTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = 100
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = DefaultInitialBackoff
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	if o.EnqueueTimeout <= 0 {
		o.EnqueueTimeout = DefaultEnqueueTimeout
	}
	return o
}

type deliverer struct {
	sender interfaces.NotificationSender
	opts   Options
}

// deliver sends one job, retrying with doubling backoff until it succeeds,
// runs out of attempts, or ctx is cancelled.
func (d *deliverer) deliver(ctx context.Context, workerID int, job interfaces.NotificationJob) {
	backoff := d.opts.InitialBackoff

	for {
		job.Attempts++

		sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
		err := d.sender.Send(sendCtx, job)
		cancel()

		if err == nil {
			observability.RecordNotificationDelivered()
			logger.Debug("Worker %d delivered confirmation for enrollment %s", workerID, job.EnrollmentID)
			return
		}

		if job.Attempts >= d.opts.MaxAttempts {
			observability.RecordNotificationDropped("max_attempts")
			logger.Error("Worker %d dropped confirmation for enrollment %s after %d attempts: %v",
				workerID, job.EnrollmentID, job.Attempts, err)
			return
		}

		observability.RecordNotificationRetry()
		logger.Warn("Worker %d failed to send confirmation for enrollment %s (attempt %d/%d): %v",
			workerID, job.EnrollmentID, job.Attempts, d.opts.MaxAttempts, err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			observability.RecordNotificationDropped("shutdown")
			return
		case <-timer.C:
		}
		backoff *= 2
	}
}
