package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	interfaces "campus-enrollment/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const EventEnrollmentConfirmed = "enrollment.confirmed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConfirmationEvent is the payload published for each confirmed enrollment.
type ConfirmationEvent struct {
	Type          string    `json:"type"`
	EnrollmentID  uuid.UUID `json:"enrollment_id"`
	ActivityID    uuid.UUID `json:"activity_id"`
	UserID        uuid.UUID `json:"user_id"`
	ActivityTitle string    `json:"activity_title"`
	Location      string    `json:"location,omitempty"`
	StartDate     time.Time `json:"start_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// KafkaSender publishes confirmations to a topic, keyed by user so that one
// user's events stay on one partition.
type KafkaSender struct {
	writer messageWriter
}

var _ interfaces.NotificationSender = (*KafkaSender)(nil)

func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		},
	}
}

func (s *KafkaSender) Send(ctx context.Context, job interfaces.NotificationJob) error {
	payload, err := json.Marshal(ConfirmationEvent{
		Type:          EventEnrollmentConfirmed,
		EnrollmentID:  job.EnrollmentID,
		ActivityID:    job.ActivityID,
		UserID:        job.UserID,
		ActivityTitle: job.ActivityTitle,
		Location:      job.Location,
		StartDate:     job.StartDate,
		OccurredAt:    job.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(job.UserID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventEnrollmentConfirmed)},
		},
		Time: job.Timestamp,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish confirmation: %w", err)
	}
	return nil
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
