package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("enroll: %w", NewActivityFull("Activity is full (slots taken)"))

	assert.True(t, errors.Is(err, ErrActivityFull))
	assert.False(t, errors.Is(err, ErrAlreadyEnrolled))
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrActivityClosed, http.StatusBadRequest},
		{ErrActivityFull, http.StatusBadRequest},
		{ErrAlreadyEnrolled, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrNotFound, http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAsError_WrapsUnknown(t *testing.T) {
	de := AsError(errors.New("connection refused"))
	assert.Equal(t, KindInternal, de.Kind)
	assert.ErrorContains(t, de, "connection refused")

	already := NewAlreadyEnrolled(StatusWaitlisted)
	assert.Same(t, already, AsError(fmt.Errorf("wrapped: %w", already)))
	assert.Equal(t, StatusWaitlisted, already.Status)
}

func TestSeatSummary_Consistent(t *testing.T) {
	assert.True(t, SeatSummary{Capacity: 3, AvailableSeats: 1, Enrolled: 2}.Consistent())
	assert.False(t, SeatSummary{Capacity: 3, AvailableSeats: 2, Enrolled: 2}.Consistent())
	assert.False(t, SeatSummary{Capacity: 3, AvailableSeats: -1, Enrolled: 4}.Consistent())
}
