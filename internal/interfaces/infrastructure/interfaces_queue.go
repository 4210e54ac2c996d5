package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationJob struct {
	EnrollmentID  uuid.UUID `json:"enrollment_id"`
	ActivityID    uuid.UUID `json:"activity_id"`
	UserID        uuid.UUID `json:"user_id"`
	ActivityTitle string    `json:"activity_title"`
	Location      string    `json:"location"`
	StartDate     time.Time `json:"start_date"`
	Timestamp     time.Time `json:"timestamp"`
	Attempts      int       `json:"attempts"`
}

// NotificationSender delivers one confirmation.
type NotificationSender interface {
	Send(ctx context.Context, job NotificationJob) error
	Close() error
}

// NotificationQueue accepts confirmation jobs without blocking the caller.
type NotificationQueue interface {
	EnqueueConfirmation(ctx context.Context, job NotificationJob) error
	StartWorkers()
	StopWorkers()
}
