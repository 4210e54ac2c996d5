package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityStatus represents the lifecycle state of an activity
type ActivityStatus string

const (
	ActivityDraft     ActivityStatus = "draft"
	ActivityPublished ActivityStatus = "published"
	ActivityCancelled ActivityStatus = "cancelled"
	ActivityCompleted ActivityStatus = "completed"
)

// EnrollmentStatus represents the status of a participation record
type EnrollmentStatus string

const (
	StatusEnrolled   EnrollmentStatus = "enrolled"
	StatusWaitlisted EnrollmentStatus = "waitlisted"
	StatusCancelled  EnrollmentStatus = "cancelled"
)

// IsActive reports whether the status holds (or would hold) a place in the activity.
func (s EnrollmentStatus) IsActive() bool {
	return s == StatusEnrolled || s == StatusWaitlisted
}

// Role is the role carried by an authenticated principal
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Principal is the authenticated caller handed over by the request boundary
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// MaxCapacity bounds the capacity an activity may be created with.
const MaxCapacity = 10000

// Activity represents a capacity-limited, schedulable event
type Activity struct {
	ActivityID     uuid.UUID      `json:"activity_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Title          string         `json:"title" gorm:"not null"`
	Description    string         `json:"description"`
	Location       string         `json:"location"`
	CreatedBy      uuid.UUID      `json:"created_by" gorm:"type:uuid;not null"`
	Capacity       int            `json:"capacity" gorm:"not null;check:capacity > 0"`
	AvailableSeats int            `json:"available_seats" gorm:"not null;check:available_seats >= 0"`
	Status         ActivityStatus `json:"status" gorm:"type:text;not null;default:draft"`
	StartDate      time.Time      `json:"start_date" gorm:"not null"`
	EndDate        time.Time      `json:"end_date" gorm:"not null"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// EnrolledCount derives the number of seats taken from the counter.
func (a *Activity) EnrolledCount() int {
	return a.Capacity - a.AvailableSeats
}

// HasStarted reports whether the activity start is at or before now.
func (a *Activity) HasStarted(now time.Time) bool {
	return !a.StartDate.After(now)
}

// Enrollment is the join record between one user and one activity
type Enrollment struct {
	EnrollmentID uuid.UUID        `json:"enrollment_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	ActivityID   uuid.UUID        `json:"activity_id" gorm:"type:uuid;not null;uniqueIndex:unique_enrollment,priority:1"`
	UserID       uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:unique_enrollment,priority:2"`
	Status       EnrollmentStatus `json:"status" gorm:"type:text;not null;default:enrolled"`
	EnrolledAt   time.Time        `json:"enrolled_at" gorm:"not null"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
	Activity     *Activity        `json:"activity,omitempty" gorm:"foreignKey:ActivityID"`
}

// IsStaff reports whether the principal may see unpublished activities.
func (p Principal) IsStaff() bool {
	return p.Role == RoleFaculty || p.Role == RoleAdmin
}

// ActivityDetail is an activity as seen by one caller
type ActivityDetail struct {
	*Activity
	IsEnrolled bool `json:"is_enrolled"`
}

// ActivityFilter narrows activity listings
type ActivityFilter struct {
	Status       *ActivityStatus
	UpcomingOnly bool
	Now          time.Time
	Limit        int
	Offset       int
}

// SeatSummary reports the seat counter next to the authoritative counts
type SeatSummary struct {
	ActivityID     uuid.UUID `json:"activity_id" db:"activity_id"`
	Title          string    `json:"title" db:"title"`
	Capacity       int       `json:"capacity" db:"capacity"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	Enrolled       int       `json:"enrolled" db:"enrolled"`
	Waitlisted     int       `json:"waitlisted" db:"waitlisted"`
	Cancelled      int       `json:"cancelled" db:"cancelled"`
}

// Consistent reports whether the seat counter matches the enrolled rows.
func (s SeatSummary) Consistent() bool {
	return s.AvailableSeats >= 0 &&
		s.AvailableSeats <= s.Capacity &&
		s.AvailableSeats == s.Capacity-s.Enrolled
}

// Request DTOs

// CreateActivityRequest represents the payload to create an activity
type CreateActivityRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Location    string          `json:"location" validate:"max=200"`
	Capacity    int             `json:"capacity" validate:"gte=1,lte=10000"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	EndDate     time.Time       `json:"end_date" validate:"required,gtfield=StartDate"`
	Status      *ActivityStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
}

// UpdateActivityRequest represents a partial activity update
type UpdateActivityRequest struct {
	Title       *string         `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Location    *string         `json:"location,omitempty" validate:"omitempty,max=200"`
	Capacity    *int            `json:"capacity,omitempty" validate:"omitempty,gte=1,lte=10000"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Status      *ActivityStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published cancelled completed"`
}

// EnrollResult is returned by a successful enrollment
type EnrollResult struct {
	EnrollmentID   uuid.UUID `json:"enrollmentId"`
	RemainingSeats int       `json:"remainingSlots"`
}
