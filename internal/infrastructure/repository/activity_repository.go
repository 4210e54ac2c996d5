package repository

import (
	"context"
	"fmt"

	domain "campus-enrollment/internal/domain/enrollment"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityRepository implements ActivityRepository using GORM
type ActivityRepository struct {
	db *gorm.DB
}

var _ interfaces.ActivityRepository = (*ActivityRepository)(nil)

// NewActivityRepository creates a new GORM activity repository
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{
		db: db,
	}
}

// Create creates a new activity
func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// GetByID retrieves an activity by ID
func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).First(&activity, "activity_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// GetByIDForUpdate retrieves an activity and holds its row lock until the transaction ends
func (r *ActivityRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&activity, "activity_id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// List retrieves activities ordered by start date
func (r *ActivityRepository) List(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, error) {
	var activities []*domain.Activity
	query := r.db.WithContext(ctx).Model(&domain.Activity{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UpcomingOnly {
		query = query.Where("start_date > ?", filter.Now)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Order("start_date ASC").Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// Update saves every column of an existing activity
func (r *ActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

// Delete removes an activity by ID
func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Activity{}, "activity_id = ?", id).Error
}

// ReserveSeat takes one seat with a single conditional UPDATE. Concurrent
// callers racing for the last seat are arbitrated by the row lock, so at most
// one of them sees a row come back.
func (r *ActivityRepository) ReserveSeat(ctx context.Context, id uuid.UUID) (int, bool, error) {
	var remaining int
	result := r.db.WithContext(ctx).Raw(`
		UPDATE activities
		SET available_seats = available_seats - 1, updated_at = NOW()
		WHERE activity_id = ? AND available_seats > 0 AND status = ?
		RETURNING available_seats`,
		id, domain.ActivityPublished).Scan(&remaining)

	if result.Error != nil {
		return 0, false, fmt.Errorf("failed to reserve seat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

// ReleaseSeat gives one seat back, never above capacity
func (r *ActivityRepository) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&domain.Activity{}).
		Where("activity_id = ? AND available_seats < capacity", id).
		Updates(map[string]interface{}{
			"available_seats": gorm.Expr("available_seats + 1"),
			"updated_at":      gorm.Expr("NOW()"),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to release seat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to release seat: activity %s is missing or already at capacity", id)
	}
	return nil
}
