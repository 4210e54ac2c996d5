package notification

import (
	"context"

	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	"campus-enrollment/pkg/logger"

	"github.com/sirupsen/logrus"
)

// LogSender writes confirmations to the application log instead of a broker.
type LogSender struct{}

var _ interfaces.NotificationSender = (*LogSender)(nil)

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, job interfaces.NotificationJob) error {
	logger.WithFields(logrus.Fields{
		"event":         EventEnrollmentConfirmed,
		"enrollment_id": job.EnrollmentID,
		"activity_id":   job.ActivityID,
		"user_id":       job.UserID,
		"title":         job.ActivityTitle,
		"start_date":    job.StartDate,
	}).Info("Enrollment confirmation")
	return nil
}

func (s *LogSender) Close() error {
	return nil
}
