package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "campus-enrollment/internal/domain/enrollment"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const seatSummarySelect = `
	SELECT a.activity_id, a.title, a.capacity, a.available_seats,
		COUNT(e.enrollment_id) FILTER (WHERE e.status = 'enrolled')   AS enrolled,
		COUNT(e.enrollment_id) FILTER (WHERE e.status = 'waitlisted') AS waitlisted,
		COUNT(e.enrollment_id) FILTER (WHERE e.status = 'cancelled')  AS cancelled
	FROM activities a
	LEFT JOIN enrollments e ON e.activity_id = a.activity_id`

// ReportRepository answers read-only seat queries with sqlx
type ReportRepository struct {
	db *sqlx.DB
}

var _ interfaces.ReportRepository = (*ReportRepository)(nil)

// NewReportRepository creates a new sqlx report repository
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Summary returns the seat counter of one activity next to its enrollment counts
func (r *ReportRepository) Summary(ctx context.Context, activityID uuid.UUID) (*domain.SeatSummary, error) {
	var summary domain.SeatSummary
	query := seatSummarySelect + `
	WHERE a.activity_id = $1
	GROUP BY a.activity_id, a.title, a.capacity, a.available_seats`

	if err := r.db.GetContext(ctx, &summary, query, activityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load seat summary: %w", err)
	}
	return &summary, nil
}

// SeatDrift lists activities whose counter disagrees with their enrolled rows
func (r *ReportRepository) SeatDrift(ctx context.Context) ([]domain.SeatSummary, error) {
	summaries := []domain.SeatSummary{}
	query := seatSummarySelect + `
	GROUP BY a.activity_id, a.title, a.capacity, a.available_seats
	HAVING a.available_seats < 0
		OR a.available_seats > a.capacity
		OR a.available_seats <> a.capacity - COUNT(e.enrollment_id) FILTER (WHERE e.status = 'enrolled')
	ORDER BY a.title`

	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("failed to scan seat drift: %w", err)
	}
	return summaries, nil
}
