package service

import (
	domain "campus-enrollment/internal/domain/enrollment"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	serviceInterfaces "campus-enrollment/internal/interfaces/service"
	"campus-enrollment/internal/observability"
	"campus-enrollment/pkg/logger"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ serviceInterfaces.EnrollmentService = (*EnrollmentService)(nil)

// EnrollmentService coordinates seat reservation and enrollment records.
// Mutual exclusion on the last seat and on duplicate enrollments is left to
// the store: the conditional seat decrement and the (activity, user) unique
// constraint. No in-process lock is held across a store call.
type EnrollmentService struct {
	transactor interfaces.Transactor
	notifier   interfaces.NotificationQueue
	now        func() time.Time
}

func NewEnrollmentService(transactor interfaces.Transactor, notifier interfaces.NotificationQueue) *EnrollmentService {
	return &EnrollmentService{
		transactor: transactor,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *EnrollmentService) Enroll(ctx context.Context, activityID string, principal domain.Principal) (*domain.EnrollResult, error) {
	result, err := s.enroll(ctx, activityID, principal)
	observability.RecordEnroll(outcome(err))
	return result, err
}

func (s *EnrollmentService) enroll(ctx context.Context, rawActivityID string, principal domain.Principal) (*domain.EnrollResult, error) {
	activityID, err := uuid.Parse(rawActivityID)
	if err != nil {
		return nil, domain.NewInvalidInput("Invalid activity ID")
	}

	stores := s.transactor.Stores()

	activity, err := stores.Activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, domain.NewInternal("Failed to enroll in activity", err)
	}
	if activity == nil || activity.Status != domain.ActivityPublished {
		return nil, domain.NewNotFound("Activity not found or not available")
	}

	if activity.HasStarted(s.now()) {
		return nil, domain.ErrActivityClosed
	}

	existing, err := stores.Enrollments.GetByActivityAndUser(ctx, activityID, principal.UserID)
	if err != nil {
		return nil, domain.NewInternal("Failed to enroll in activity", err)
	}
	if existing != nil && existing.Status.IsActive() {
		return nil, domain.NewAlreadyEnrolled(existing.Status)
	}

	if activity.AvailableSeats <= 0 {
		return nil, domain.ErrActivityFull
	}

	var (
		enrollment *domain.Enrollment
		remaining  int
	)

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, tx interfaces.Stores) error {
		// The read above is advisory; a concurrent request may have enrolled since.
		current, err := tx.Enrollments.GetByActivityAndUser(ctx, activityID, principal.UserID)
		if err != nil {
			return err
		}
		if current != nil && current.Status.IsActive() {
			return domain.NewAlreadyEnrolled(current.Status)
		}

		seats, ok, err := tx.Activities.ReserveSeat(ctx, activityID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrActivityFull
		}
		remaining = seats

		if current != nil {
			revived, ok, err := tx.Enrollments.Reactivate(ctx, current.EnrollmentID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.NewAlreadyEnrolled(domain.StatusEnrolled)
			}
			enrollment = revived
			return nil
		}

		enrollment = &domain.Enrollment{
			EnrollmentID: uuid.New(),
			ActivityID:   activityID,
			UserID:       principal.UserID,
			Status:       domain.StatusEnrolled,
			EnrolledAt:   s.now(),
		}
		if err := tx.Enrollments.Create(ctx, enrollment); err != nil {
			if errors.Is(err, domain.ErrDuplicateEnrollment) {
				return domain.NewAlreadyEnrolled(domain.StatusEnrolled)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, normalize(err, "Failed to enroll in activity")
	}

	logger.WithFields(logrus.Fields{
		"activity_id":   activityID,
		"user_id":       principal.UserID,
		"enrollment_id": enrollment.EnrollmentID,
		"remaining":     remaining,
	}).Info("Enrollment confirmed")

	s.notify(ctx, activity, enrollment)

	return &domain.EnrollResult{
		EnrollmentID:   enrollment.EnrollmentID,
		RemainingSeats: remaining,
	}, nil
}

// notify hands the confirmation to the dispatcher. Failures are logged only;
// the enrollment is already committed.
func (s *EnrollmentService) notify(ctx context.Context, activity *domain.Activity, enrollment *domain.Enrollment) {
	if s.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Notification dispatch panicked for enrollment %s: %v", enrollment.EnrollmentID, r)
		}
	}()

	job := interfaces.NotificationJob{
		EnrollmentID:  enrollment.EnrollmentID,
		ActivityID:    activity.ActivityID,
		UserID:        enrollment.UserID,
		ActivityTitle: activity.Title,
		Location:      activity.Location,
		StartDate:     activity.StartDate,
		Timestamp:     s.now(),
	}
	if err := s.notifier.EnqueueConfirmation(context.WithoutCancel(ctx), job); err != nil {
		logger.Warn("Failed to enqueue confirmation for enrollment %s: %v", enrollment.EnrollmentID, err)
	}
}

func (s *EnrollmentService) Cancel(ctx context.Context, activityID string, principal domain.Principal) (string, error) {
	message, err := s.cancel(ctx, activityID, principal)
	observability.RecordCancel(outcome(err))
	return message, err
}

func (s *EnrollmentService) cancel(ctx context.Context, rawActivityID string, principal domain.Principal) (string, error) {
	activityID, err := uuid.Parse(rawActivityID)
	if err != nil {
		return "", domain.NewInvalidInput("Invalid activity ID")
	}

	existing, err := s.transactor.Stores().Enrollments.GetByActivityAndUser(ctx, activityID, principal.UserID)
	if err != nil {
		return "", domain.NewInternal("Failed to cancel enrollment", err)
	}
	if existing == nil || existing.Status != domain.StatusEnrolled {
		return "", domain.NewNotFound("Enrollment not found")
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, tx interfaces.Stores) error {
		ok, err := tx.Enrollments.UpdateStatus(ctx, existing.EnrollmentID, domain.StatusEnrolled, domain.StatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewNotFound("Enrollment not found")
		}
		return tx.Activities.ReleaseSeat(ctx, activityID)
	})
	if err != nil {
		return "", normalize(err, "Failed to cancel enrollment")
	}

	logger.WithFields(logrus.Fields{
		"activity_id":   activityID,
		"user_id":       principal.UserID,
		"enrollment_id": existing.EnrollmentID,
	}).Info("Enrollment cancelled")

	return "Successfully cancelled enrollment", nil
}

// MyEnrollments lists the caller's enrollments, optionally narrowed by status.
func (s *EnrollmentService) MyEnrollments(ctx context.Context, principal domain.Principal, status *domain.EnrollmentStatus) ([]*domain.Enrollment, error) {
	enrollments, err := s.transactor.Stores().Enrollments.ListByUser(ctx, principal.UserID, status)
	if err != nil {
		return nil, domain.NewInternal("Failed to fetch enrollments", err)
	}
	return enrollments, nil
}

// Participants lists the enrolled users of an activity for its owner or an admin.
func (s *EnrollmentService) Participants(ctx context.Context, rawActivityID string, principal domain.Principal) ([]*domain.Enrollment, error) {
	activityID, err := uuid.Parse(rawActivityID)
	if err != nil {
		return nil, domain.NewInvalidInput("Invalid activity ID")
	}

	stores := s.transactor.Stores()
	activity, err := stores.Activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, domain.NewInternal("Failed to fetch participants", err)
	}
	if activity == nil {
		return nil, domain.NewNotFound("Activity not found")
	}
	if !canManage(activity, principal) {
		return nil, domain.NewForbidden("Not authorized")
	}

	enrolled := domain.StatusEnrolled
	participants, err := stores.Enrollments.ListByActivity(ctx, activityID, &enrolled)
	if err != nil {
		return nil, domain.NewInternal("Failed to fetch participants", err)
	}
	return participants, nil
}

// canManage reports whether the principal owns the activity or is an admin.
func canManage(activity *domain.Activity, principal domain.Principal) bool {
	if principal.Role == domain.RoleAdmin {
		return true
	}
	return principal.Role == domain.RoleFaculty && activity.CreatedBy == principal.UserID
}

// normalize keeps domain errors as they are and hides everything else
// behind an internal error carrying message.
func normalize(err error, message string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return domain.NewInternal(message, err)
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(domain.AsError(err).Kind)
}
