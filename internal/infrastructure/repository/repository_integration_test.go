//go:build integration

package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "campus-enrollment/internal/domain/enrollment"
	"campus-enrollment/internal/infrastructure/database"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	"campus-enrollment/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("campus"),
		postgrescontainer.WithUsername("campus"),
		postgrescontainer.WithPassword("campus"),
		postgrescontainer.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(30)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db, "../../../migrations"))
	return db
}

func createActivity(t *testing.T, db *gorm.DB, capacity int) *domain.Activity {
	t.Helper()
	activity := &domain.Activity{
		ActivityID:     uuid.New(),
		Title:          "Hackathon",
		CreatedBy:      uuid.New(),
		Capacity:       capacity,
		AvailableSeats: capacity,
		Status:         domain.ActivityPublished,
		StartDate:      time.Now().Add(48 * time.Hour).UTC(),
		EndDate:        time.Now().Add(50 * time.Hour).UTC(),
	}
	require.NoError(t, NewActivityRepository(db).Create(context.Background(), activity))
	return activity
}

func TestPostgres_LastSeatRace(t *testing.T) {
	db := setupDatabase(t)
	activity := createActivity(t, db, 1)
	transactor := NewTransactor(db)

	var won int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := transactor.WithinTransaction(context.Background(), func(ctx context.Context, stores interfaces.Stores) error {
				_, ok, err := stores.Activities.ReserveSeat(ctx, activity.ActivityID)
				if err != nil || !ok {
					return domain.ErrActivityFull
				}
				return stores.Enrollments.Create(ctx, &domain.Enrollment{
					ActivityID: activity.ActivityID,
					UserID:     uuid.New(),
					Status:     domain.StatusEnrolled,
					EnrolledAt: time.Now().UTC(),
				})
			})
			if err == nil {
				atomic.AddInt32(&won, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), won)

	sqlxDB, err := database.NewSQLX(db)
	require.NoError(t, err)
	reports := NewReportRepository(sqlxDB)

	summary, err := reports.Summary(context.Background(), activity.ActivityID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.AvailableSeats)
	assert.Equal(t, 1, summary.Enrolled)
	assert.True(t, summary.Consistent())

	drift, err := reports.SeatDrift(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestPostgres_DuplicateInsertRejected(t *testing.T) {
	db := setupDatabase(t)
	activity := createActivity(t, db, 5)
	repo := NewEnrollmentRepository(db)
	userID := uuid.New()

	var duplicates, created int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(context.Background(), &domain.Enrollment{
				ActivityID: activity.ActivityID,
				UserID:     userID,
				Status:     domain.StatusEnrolled,
				EnrolledAt: time.Now().UTC(),
			})
			switch {
			case err == nil:
				atomic.AddInt32(&created, 1)
			case errors.Is(err, domain.ErrDuplicateEnrollment):
				atomic.AddInt32(&duplicates, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created)
	assert.Equal(t, int32(4), duplicates)
}

func TestPostgres_ReleaseSeatCapped(t *testing.T) {
	db := setupDatabase(t)
	activity := createActivity(t, db, 2)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	assert.Error(t, repo.ReleaseSeat(ctx, activity.ActivityID))

	remaining, ok, err := repo.ReserveSeat(ctx, activity.ActivityID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, remaining)

	require.NoError(t, repo.ReleaseSeat(ctx, activity.ActivityID))
	got, err := repo.GetByID(ctx, activity.ActivityID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSeats)
}

func TestPostgres_TransactionRollback(t *testing.T) {
	db := setupDatabase(t)
	activity := createActivity(t, db, 2)
	transactor := NewTransactor(db)

	err := transactor.WithinTransaction(context.Background(), func(ctx context.Context, stores interfaces.Stores) error {
		if _, _, err := stores.Activities.ReserveSeat(ctx, activity.ActivityID); err != nil {
			return err
		}
		return domain.ErrAlreadyEnrolled
	})
	require.ErrorIs(t, err, domain.ErrAlreadyEnrolled)

	got, err := NewActivityRepository(db).GetByID(context.Background(), activity.ActivityID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSeats)
}

func TestPostgres_ReactivateCancelled(t *testing.T) {
	db := setupDatabase(t)
	activity := createActivity(t, db, 2)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	e := &domain.Enrollment{ActivityID: activity.ActivityID, UserID: uuid.New(), Status: domain.StatusEnrolled, EnrolledAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, e))

	ok, err := repo.UpdateStatus(ctx, e.EnrollmentID, domain.StatusEnrolled, domain.StatusCancelled)
	require.NoError(t, err)
	require.True(t, ok)

	revived, ok, err := repo.Reactivate(ctx, e.EnrollmentID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusEnrolled, revived.Status)

	list, err := repo.ListByUser(ctx, e.UserID, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Activity)
	assert.Equal(t, activity.Title, list[0].Activity.Title)
}

func TestPostgres_EnrollmentServiceLifecycle(t *testing.T) {
	db := setupDatabase(t)
	activity := createActivity(t, db, 1)
	id := activity.ActivityID.String()
	svc := service.NewEnrollmentService(NewTransactor(db), nil)
	ctx := context.Background()

	sqlxDB, err := database.NewSQLX(db)
	require.NoError(t, err)
	reports := NewReportRepository(sqlxDB)

	const callers = 20
	principals := make([]domain.Principal, callers)
	for i := range principals {
		principals[i] = domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent}
	}

	results := make([]*domain.EnrollResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Enroll(ctx, id, principals[i])
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "more than one caller got the last seat")
			winner = i
			assert.Equal(t, 0, results[i].RemainingSeats)
			continue
		}
		assert.ErrorIs(t, err, domain.ErrActivityFull)
	}
	require.NotEqual(t, -1, winner)
	first := results[winner].EnrollmentID

	_, err = svc.Enroll(ctx, id, principals[winner])
	assert.ErrorIs(t, err, domain.ErrAlreadyEnrolled)

	_, err = svc.Cancel(ctx, id, principals[winner])
	require.NoError(t, err)

	summary, err := reports.Summary(ctx, activity.ActivityID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AvailableSeats)
	assert.Equal(t, 1, summary.Cancelled)
	assert.True(t, summary.Consistent())

	_, err = svc.Cancel(ctx, id, principals[winner])
	assert.ErrorIs(t, err, domain.ErrNotFound)

	again, err := svc.Enroll(ctx, id, principals[winner])
	require.NoError(t, err)
	assert.Equal(t, first, again.EnrollmentID)
	assert.Equal(t, 0, again.RemainingSeats)

	summary, err = reports.Summary(ctx, activity.ActivityID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Enrolled)
	assert.Equal(t, 0, summary.Cancelled)
	assert.True(t, summary.Consistent())
}

func TestPostgres_EnrollmentServiceConcurrentDuplicate(t *testing.T) {
	db := setupDatabase(t)
	activity := createActivity(t, db, 5)
	svc := service.NewEnrollmentService(NewTransactor(db), nil)
	caller := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent}

	var enrolled, duplicates int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Enroll(context.Background(), activity.ActivityID.String(), caller)
			switch {
			case err == nil:
				atomic.AddInt32(&enrolled, 1)
			case errors.Is(err, domain.ErrAlreadyEnrolled):
				atomic.AddInt32(&duplicates, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), enrolled)
	assert.Equal(t, int32(7), duplicates)

	var stored domain.Activity
	require.NoError(t, db.First(&stored, "activity_id = ?", activity.ActivityID).Error)
	assert.Equal(t, 4, stored.AvailableSeats)
}
