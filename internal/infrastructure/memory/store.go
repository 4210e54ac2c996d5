package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "campus-enrollment/internal/domain/enrollment"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

// Store is an in-memory record store for tests and local runs. Whole
// transactions are serialized by one mutex and rolled back by restoring a
// snapshot taken when the transaction began.
type Store struct {
	mutex       sync.Mutex
	activities  map[uuid.UUID]domain.Activity
	enrollments map[uuid.UUID]domain.Enrollment
	now         func() time.Time
}

var (
	_ interfaces.Transactor       = (*Store)(nil)
	_ interfaces.ReportRepository = (*Store)(nil)
)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		activities:  make(map[uuid.UUID]domain.Activity),
		enrollments: make(map[uuid.UUID]domain.Enrollment),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Stores returns repositories that lock the store for each call
func (s *Store) Stores() interfaces.Stores {
	return interfaces.Stores{
		Activities:  &activityRepository{store: s},
		Enrollments: &enrollmentRepository{store: s},
	}
}

// WithinTransaction holds the store lock for the whole of fn
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores interfaces.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	activities, enrollments := s.snapshot()
	stores := interfaces.Stores{
		Activities:  &activityRepository{store: s, inTx: true},
		Enrollments: &enrollmentRepository{store: s, inTx: true},
	}

	if err := fn(ctx, stores); err != nil {
		s.activities = activities
		s.enrollments = enrollments
		return err
	}
	return nil
}

// Summary returns the seat counter of one activity next to its enrollment counts
func (s *Store) Summary(ctx context.Context, activityID uuid.UUID) (*domain.SeatSummary, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	activity, ok := s.activities[activityID]
	if !ok {
		return nil, nil
	}
	summary := s.summarize(activity)
	return &summary, nil
}

// SeatDrift lists activities whose counter disagrees with their enrolled rows
func (s *Store) SeatDrift(ctx context.Context) ([]domain.SeatSummary, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	drift := []domain.SeatSummary{}
	for _, activity := range s.activities {
		if summary := s.summarize(activity); !summary.Consistent() {
			drift = append(drift, summary)
		}
	}
	sort.Slice(drift, func(i, j int) bool { return drift[i].Title < drift[j].Title })
	return drift, nil
}

// Health always succeeds
func (s *Store) Health(ctx context.Context) error {
	return nil
}

func (s *Store) summarize(activity domain.Activity) domain.SeatSummary {
	summary := domain.SeatSummary{
		ActivityID:     activity.ActivityID,
		Title:          activity.Title,
		Capacity:       activity.Capacity,
		AvailableSeats: activity.AvailableSeats,
	}
	for _, e := range s.enrollments {
		if e.ActivityID != activity.ActivityID {
			continue
		}
		switch e.Status {
		case domain.StatusEnrolled:
			summary.Enrolled++
		case domain.StatusWaitlisted:
			summary.Waitlisted++
		case domain.StatusCancelled:
			summary.Cancelled++
		}
	}
	return summary
}

func (s *Store) snapshot() (map[uuid.UUID]domain.Activity, map[uuid.UUID]domain.Enrollment) {
	activities := make(map[uuid.UUID]domain.Activity, len(s.activities))
	for k, v := range s.activities {
		activities[k] = v
	}
	enrollments := make(map[uuid.UUID]domain.Enrollment, len(s.enrollments))
	for k, v := range s.enrollments {
		enrollments[k] = v
	}
	return activities, enrollments
}

// lock acquires the store mutex unless the caller already runs inside a
// transaction that holds it.
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mutex.Lock()
	return s.mutex.Unlock
}

type activityRepository struct {
	store *Store
	inTx  bool
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	defer r.store.lock(r.inTx)()

	if activity.ActivityID == uuid.Nil {
		activity.ActivityID = uuid.New()
	}
	if _, exists := r.store.activities[activity.ActivityID]; exists {
		return fmt.Errorf("activity %s already exists", activity.ActivityID)
	}
	now := r.store.now()
	activity.CreatedAt = now
	activity.UpdatedAt = now
	r.store.activities[activity.ActivityID] = *activity
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	defer r.store.lock(r.inTx)()

	activity, ok := r.store.activities[id]
	if !ok {
		return nil, nil
	}
	return &activity, nil
}

func (r *activityRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	return r.GetByID(ctx, id)
}

func (r *activityRepository) List(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, error) {
	defer r.store.lock(r.inTx)()

	activities := []*domain.Activity{}
	for _, a := range r.store.activities {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.UpcomingOnly && !a.StartDate.After(filter.Now) {
			continue
		}
		activity := a
		activities = append(activities, &activity)
	}
	sort.Slice(activities, func(i, j int) bool {
		return activities[i].StartDate.Before(activities[j].StartDate)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(activities) {
			return []*domain.Activity{}, nil
		}
		activities = activities[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(activities) {
		activities = activities[:filter.Limit]
	}
	return activities, nil
}

func (r *activityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	defer r.store.lock(r.inTx)()

	if _, ok := r.store.activities[activity.ActivityID]; !ok {
		return fmt.Errorf("activity %s not found", activity.ActivityID)
	}
	activity.UpdatedAt = r.store.now()
	r.store.activities[activity.ActivityID] = *activity
	return nil
}

func (r *activityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.store.lock(r.inTx)()

	delete(r.store.activities, id)
	return nil
}

func (r *activityRepository) ReserveSeat(ctx context.Context, id uuid.UUID) (int, bool, error) {
	defer r.store.lock(r.inTx)()

	activity, ok := r.store.activities[id]
	if !ok || activity.AvailableSeats <= 0 || activity.Status != domain.ActivityPublished {
		return 0, false, nil
	}
	activity.AvailableSeats--
	activity.UpdatedAt = r.store.now()
	r.store.activities[id] = activity
	return activity.AvailableSeats, true, nil
}

func (r *activityRepository) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	defer r.store.lock(r.inTx)()

	activity, ok := r.store.activities[id]
	if !ok || activity.AvailableSeats >= activity.Capacity {
		return fmt.Errorf("failed to release seat: activity %s is missing or already at capacity", id)
	}
	activity.AvailableSeats++
	activity.UpdatedAt = r.store.now()
	r.store.activities[id] = activity
	return nil
}

type enrollmentRepository struct {
	store *Store
	inTx  bool
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	defer r.store.lock(r.inTx)()

	for _, existing := range r.store.enrollments {
		if existing.ActivityID == enrollment.ActivityID && existing.UserID == enrollment.UserID {
			return domain.ErrDuplicateEnrollment
		}
	}
	if enrollment.EnrollmentID == uuid.Nil {
		enrollment.EnrollmentID = uuid.New()
	}
	now := r.store.now()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	stored := *enrollment
	stored.Activity = nil
	r.store.enrollments[enrollment.EnrollmentID] = stored
	return nil
}

func (r *enrollmentRepository) GetByActivityAndUser(ctx context.Context, activityID, userID uuid.UUID) (*domain.Enrollment, error) {
	defer r.store.lock(r.inTx)()

	for _, e := range r.store.enrollments {
		if e.ActivityID == activityID && e.UserID == userID {
			enrollment := e
			return &enrollment, nil
		}
	}
	return nil, nil
}

func (r *enrollmentRepository) Reactivate(ctx context.Context, id uuid.UUID) (*domain.Enrollment, bool, error) {
	defer r.store.lock(r.inTx)()

	e, ok := r.store.enrollments[id]
	if !ok || e.Status != domain.StatusCancelled {
		return nil, false, nil
	}
	now := r.store.now()
	e.Status = domain.StatusEnrolled
	e.EnrolledAt = now
	e.UpdatedAt = now
	r.store.enrollments[id] = e
	return &e, true, nil
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.EnrollmentStatus) (bool, error) {
	defer r.store.lock(r.inTx)()

	e, ok := r.store.enrollments[id]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	e.UpdatedAt = r.store.now()
	r.store.enrollments[id] = e
	return true, nil
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.Enrollment, error) {
	defer r.store.lock(r.inTx)()

	enrollments := r.store.filter(func(e domain.Enrollment) bool {
		return e.UserID == userID && (status == nil || e.Status == *status)
	})
	for _, e := range enrollments {
		if activity, ok := r.store.activities[e.ActivityID]; ok {
			e.Activity = &activity
		}
	}
	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt)
	})
	return enrollments, nil
}

func (r *enrollmentRepository) ListByActivity(ctx context.Context, activityID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.Enrollment, error) {
	defer r.store.lock(r.inTx)()

	enrollments := r.store.filter(func(e domain.Enrollment) bool {
		return e.ActivityID == activityID && (status == nil || e.Status == *status)
	})
	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt)
	})
	return enrollments, nil
}

func (r *enrollmentRepository) CountByStatus(ctx context.Context, activityID uuid.UUID, status domain.EnrollmentStatus) (int, error) {
	defer r.store.lock(r.inTx)()

	count := 0
	for _, e := range r.store.enrollments {
		if e.ActivityID == activityID && e.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *enrollmentRepository) DeleteByActivity(ctx context.Context, activityID uuid.UUID) error {
	defer r.store.lock(r.inTx)()

	for id, e := range r.store.enrollments {
		if e.ActivityID == activityID {
			delete(r.store.enrollments, id)
		}
	}
	return nil
}

func (s *Store) filter(keep func(domain.Enrollment) bool) []*domain.Enrollment {
	enrollments := []*domain.Enrollment{}
	for _, e := range s.enrollments {
		if keep(e) {
			enrollment := e
			enrollments = append(enrollments, &enrollment)
		}
	}
	return enrollments
}
