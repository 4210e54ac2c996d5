package interfaces

import (
	domain "campus-enrollment/internal/domain/enrollment"
	"context"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, activityID string, principal domain.Principal) (*domain.EnrollResult, error)
	Cancel(ctx context.Context, activityID string, principal domain.Principal) (string, error)
	MyEnrollments(ctx context.Context, principal domain.Principal, status *domain.EnrollmentStatus) ([]*domain.Enrollment, error)
	Participants(ctx context.Context, activityID string, principal domain.Principal) ([]*domain.Enrollment, error)
}

type ActivityService interface {
	Create(ctx context.Context, req *domain.CreateActivityRequest, principal domain.Principal) (*domain.Activity, error)
	Get(ctx context.Context, activityID string, principal domain.Principal) (*domain.ActivityDetail, error)
	List(ctx context.Context, filter domain.ActivityFilter, principal domain.Principal) ([]*domain.Activity, error)
	Update(ctx context.Context, activityID string, req *domain.UpdateActivityRequest, principal domain.Principal) (*domain.Activity, error)
	Delete(ctx context.Context, activityID string, principal domain.Principal) error
	Summary(ctx context.Context, activityID string, principal domain.Principal) (*domain.SeatSummary, error)
}

// Pinger reports dependency health for readiness checks.
type Pinger interface {
	Health(ctx context.Context) error
}
