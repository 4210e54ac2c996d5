package interfaces

import (
	domain "campus-enrollment/internal/domain/enrollment"
	"context"

	"github.com/google/uuid"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error)
	// GetByIDForUpdate reads the activity and locks its row until the
	// surrounding transaction ends. Outside a transaction it behaves as GetByID.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Activity, error)
	List(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, error)
	Update(ctx context.Context, activity *domain.Activity) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ReserveSeat decrements available_seats by one in a single statement, only
	// when seats remain and the activity is published. ok is false when no row
	// matched.
	ReserveSeat(ctx context.Context, id uuid.UUID) (remaining int, ok bool, err error)
	// ReleaseSeat increments available_seats by one without exceeding capacity.
	ReleaseSeat(ctx context.Context, id uuid.UUID) error
}

type EnrollmentRepository interface {
	// Create inserts a record. A (activity, user) constraint violation is
	// reported as domain.ErrDuplicateEnrollment.
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	GetByActivityAndUser(ctx context.Context, activityID, userID uuid.UUID) (*domain.Enrollment, error)
	// Reactivate moves a cancelled record back to enrolled.
	Reactivate(ctx context.Context, id uuid.UUID) (*domain.Enrollment, bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.EnrollmentStatus) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.Enrollment, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.Enrollment, error)
	CountByStatus(ctx context.Context, activityID uuid.UUID, status domain.EnrollmentStatus) (int, error)
	DeleteByActivity(ctx context.Context, activityID uuid.UUID) error
}

// Stores groups the repositories bound to one unit of work.
type Stores struct {
	Activities  ActivityRepository
	Enrollments EnrollmentRepository
}

// Transactor runs fn inside one all-or-nothing transaction. Any error returned
// by fn rolls back every effect made through the supplied stores.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
	Stores() Stores
}

type ReportRepository interface {
	Summary(ctx context.Context, activityID uuid.UUID) (*domain.SeatSummary, error)
	SeatDrift(ctx context.Context) ([]domain.SeatSummary, error)
}
