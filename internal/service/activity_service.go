package service

import (
	domain "campus-enrollment/internal/domain/enrollment"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	serviceInterfaces "campus-enrollment/internal/interfaces/service"
	"campus-enrollment/pkg/logger"
	"campus-enrollment/pkg/validator"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var _ serviceInterfaces.ActivityService = (*ActivityService)(nil)

type ActivityService struct {
	transactor interfaces.Transactor
	reports    interfaces.ReportRepository
	now        func() time.Time
}

func NewActivityService(transactor interfaces.Transactor, reports interfaces.ReportRepository) *ActivityService {
	return &ActivityService{
		transactor: transactor,
		reports:    reports,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *ActivityService) Create(ctx context.Context, req *domain.CreateActivityRequest, principal domain.Principal) (*domain.Activity, error) {
	if principal.Role != domain.RoleFaculty && principal.Role != domain.RoleAdmin {
		return nil, domain.NewForbidden("Only faculty and admins can create activities")
	}
	if err := validator.ValidateStruct(req); err != nil {
		return nil, domain.NewInvalidInput(err.Error())
	}

	status := domain.ActivityDraft
	if req.Status != nil {
		status = *req.Status
	}

	activity := &domain.Activity{
		ActivityID:     uuid.New(),
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		CreatedBy:      principal.UserID,
		Capacity:       req.Capacity,
		AvailableSeats: req.Capacity,
		Status:         status,
		StartDate:      req.StartDate.UTC(),
		EndDate:        req.EndDate.UTC(),
	}

	if err := s.transactor.Stores().Activities.Create(ctx, activity); err != nil {
		return nil, domain.NewInternal("Failed to create activity", err)
	}

	logger.Info("Activity %s created by %s with capacity %d", activity.ActivityID, principal.UserID, activity.Capacity)
	return activity, nil
}

// Get returns the activity with the caller's enrollment flag. Students only
// see published activities.
func (s *ActivityService) Get(ctx context.Context, rawActivityID string, principal domain.Principal) (*domain.ActivityDetail, error) {
	activity, err := s.load(ctx, rawActivityID)
	if err != nil {
		return nil, err
	}
	if !principal.IsStaff() && activity.Status != domain.ActivityPublished {
		return nil, domain.NewForbidden("Activity not available")
	}

	enrollment, err := s.transactor.Stores().Enrollments.GetByActivityAndUser(ctx, activity.ActivityID, principal.UserID)
	if err != nil {
		return nil, domain.NewInternal("Failed to fetch enrollment", err)
	}

	return &domain.ActivityDetail{
		Activity:   activity,
		IsEnrolled: enrollment != nil && enrollment.Status.IsActive(),
	}, nil
}

func (s *ActivityService) load(ctx context.Context, rawActivityID string) (*domain.Activity, error) {
	activityID, err := uuid.Parse(rawActivityID)
	if err != nil {
		return nil, domain.NewInvalidInput("Invalid activity ID")
	}

	activity, err := s.transactor.Stores().Activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, domain.NewInternal("Failed to fetch activity", err)
	}
	if activity == nil {
		return nil, domain.NewNotFound("Activity not found")
	}
	return activity, nil
}

// List pages through activities. Students are restricted to published ones
// whatever status they ask for.
func (s *ActivityService) List(ctx context.Context, filter domain.ActivityFilter, principal domain.Principal) ([]*domain.Activity, error) {
	if !principal.IsStaff() {
		published := domain.ActivityPublished
		filter.Status = &published
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Now.IsZero() {
		filter.Now = s.now()
	}

	activities, err := s.transactor.Stores().Activities.List(ctx, filter)
	if err != nil {
		return nil, domain.NewInternal("Failed to fetch activities", err)
	}
	return activities, nil
}

// Update applies a partial edit. A capacity change recomputes the seat
// counter from the enrolled rows while the activity row is locked.
func (s *ActivityService) Update(ctx context.Context, rawActivityID string, req *domain.UpdateActivityRequest, principal domain.Principal) (*domain.Activity, error) {
	activityID, err := uuid.Parse(rawActivityID)
	if err != nil {
		return nil, domain.NewInvalidInput("Invalid activity ID")
	}
	if err := validator.ValidateStruct(req); err != nil {
		return nil, domain.NewInvalidInput(err.Error())
	}

	var updated *domain.Activity
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, tx interfaces.Stores) error {
		activity, err := tx.Activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if activity == nil {
			return domain.NewNotFound("Activity not found")
		}
		if !canManage(activity, principal) {
			return domain.NewForbidden("Not authorized to update this activity")
		}

		if req.Title != nil {
			activity.Title = *req.Title
		}
		if req.Description != nil {
			activity.Description = *req.Description
		}
		if req.Location != nil {
			activity.Location = *req.Location
		}
		if req.Status != nil {
			activity.Status = *req.Status
		}
		if req.StartDate != nil {
			activity.StartDate = req.StartDate.UTC()
		}
		if req.EndDate != nil {
			activity.EndDate = req.EndDate.UTC()
		}
		if !activity.EndDate.After(activity.StartDate) {
			return domain.NewInvalidInput("End date must be after start date")
		}

		if req.Capacity != nil {
			enrolled, err := tx.Enrollments.CountByStatus(ctx, activityID, domain.StatusEnrolled)
			if err != nil {
				return err
			}
			if *req.Capacity < enrolled {
				return domain.NewInvalidInput(fmt.Sprintf("Cannot reduce capacity below enrolled count (%d)", enrolled))
			}
			activity.Capacity = *req.Capacity
			activity.AvailableSeats = *req.Capacity - enrolled
		}

		if err := tx.Activities.Update(ctx, activity); err != nil {
			return err
		}
		updated = activity
		return nil
	})
	if err != nil {
		return nil, normalize(err, "Failed to update activity")
	}

	logger.Info("Activity %s updated by %s", activityID, principal.UserID)
	return updated, nil
}

// Delete removes an activity that has no enrolled participants, together
// with its cancelled and waitlisted records.
func (s *ActivityService) Delete(ctx context.Context, rawActivityID string, principal domain.Principal) error {
	activityID, err := uuid.Parse(rawActivityID)
	if err != nil {
		return domain.NewInvalidInput("Invalid activity ID")
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, tx interfaces.Stores) error {
		activity, err := tx.Activities.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if activity == nil {
			return domain.NewNotFound("Activity not found")
		}
		if !canManage(activity, principal) {
			return domain.NewForbidden("Not authorized to delete this activity")
		}

		enrolled, err := tx.Enrollments.CountByStatus(ctx, activityID, domain.StatusEnrolled)
		if err != nil {
			return err
		}
		if enrolled > 0 {
			return domain.NewConflict("Cannot delete activity with enrolled participants")
		}

		if err := tx.Enrollments.DeleteByActivity(ctx, activityID); err != nil {
			return err
		}
		return tx.Activities.Delete(ctx, activityID)
	})
	if err != nil {
		return normalize(err, "Failed to delete activity")
	}

	logger.Info("Activity %s deleted by %s", activityID, principal.UserID)
	return nil
}

// Summary reports the seat counter next to the enrollment counts per status.
func (s *ActivityService) Summary(ctx context.Context, rawActivityID string, principal domain.Principal) (*domain.SeatSummary, error) {
	activity, err := s.load(ctx, rawActivityID)
	if err != nil {
		return nil, err
	}
	if !canManage(activity, principal) {
		return nil, domain.NewForbidden("Not authorized")
	}

	summary, err := s.reports.Summary(ctx, activity.ActivityID)
	if err != nil {
		return nil, domain.NewInternal("Failed to load seat summary", err)
	}
	if summary == nil {
		return nil, domain.NewNotFound("Activity not found")
	}
	if !summary.Consistent() {
		logger.Warn("Seat counter drift on activity %s: available=%d capacity=%d enrolled=%d",
			summary.ActivityID, summary.AvailableSeats, summary.Capacity, summary.Enrolled)
	}
	return summary, nil
}
