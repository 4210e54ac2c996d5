package repository

import (
	"context"
	"errors"
	"time"

	domain "campus-enrollment/internal/domain/enrollment"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// EnrollmentRepository implements EnrollmentRepository using GORM
type EnrollmentRepository struct {
	db *gorm.DB
}

var _ interfaces.EnrollmentRepository = (*EnrollmentRepository)(nil)

// NewEnrollmentRepository creates a new GORM enrollment repository
func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
	}
}

// Create inserts a new enrollment. The unique index on (activity_id, user_id)
// rejects the second of two concurrent inserts for the same pair.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	err := r.db.WithContext(ctx).Omit("Activity").Create(enrollment).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEnrollment
	}
	return err
}

// GetByActivityAndUser retrieves the enrollment of a user in an activity
func (r *EnrollmentRepository) GetByActivityAndUser(ctx context.Context, activityID, userID uuid.UUID) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		First(&enrollment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &enrollment, nil
}

// Reactivate moves a cancelled enrollment back to enrolled
func (r *EnrollmentRepository) Reactivate(ctx context.Context, id uuid.UUID) (*domain.Enrollment, bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("enrollment_id = ? AND status = ?", id, domain.StatusCancelled).
		Updates(map[string]interface{}{
			"status":      domain.StatusEnrolled,
			"enrolled_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, false, nil
	}

	var enrollment domain.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, "enrollment_id = ?", id).Error; err != nil {
		return nil, false, err
	}
	return &enrollment, true, nil
}

// UpdateStatus moves an enrollment from one status to another
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.EnrollmentStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("enrollment_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListByUser retrieves a user's enrollments with their activities, newest first
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.Enrollment, error) {
	var enrollments []*domain.Enrollment
	query := r.db.WithContext(ctx).Preload("Activity").Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// ListByActivity retrieves the enrollments of an activity in enrollment order
func (r *EnrollmentRepository) ListByActivity(ctx context.Context, activityID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.Enrollment, error) {
	var enrollments []*domain.Enrollment
	query := r.db.WithContext(ctx).Where("activity_id = ?", activityID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Order("enrolled_at ASC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// CountByStatus counts the enrollments of an activity with the given status
func (r *EnrollmentRepository) CountByStatus(ctx context.Context, activityID uuid.UUID, status domain.EnrollmentStatus) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("activity_id = ? AND status = ?", activityID, status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeleteByActivity removes every enrollment of an activity
func (r *EnrollmentRepository) DeleteByActivity(ctx context.Context, activityID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Enrollment{}, "activity_id = ?", activityID).Error
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
