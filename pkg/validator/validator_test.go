package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title    string `json:"title" validate:"required,min=3"`
	Capacity int    `json:"capacity" validate:"gte=1,lte=10000"`
	Status   string `json:"status" validate:"omitempty,oneof=draft published"`
}

func TestValidateStruct_FormatsErrors(t *testing.T) {
	err := ValidateStruct(&sampleRequest{Title: "ab", Capacity: 0, Status: "open"})
	require.Error(t, err)

	formatted := FormatValidationError(err)
	require.Len(t, formatted, 3)

	byField := map[string]ValidationError{}
	for _, fe := range formatted {
		byField[fe.Field] = fe
	}
	assert.Equal(t, "title must be at least 3 characters long", byField["title"].Message)
	assert.Equal(t, "capacity must be greater than or equal to 1", byField["capacity"].Message)
	assert.Equal(t, "status must be one of: draft published", byField["status"].Message)
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, ValidateStruct(&sampleRequest{Title: "Robotics", Capacity: 30}))
}

func TestFormatValidationError_NonValidationError(t *testing.T) {
	assert.Empty(t, FormatValidationError(assert.AnError))
}

func TestValidateVar(t *testing.T) {
	err := ValidateVar("status", "pending", "omitempty,oneof=enrolled waitlisted cancelled")
	require.Error(t, err)
	assert.Equal(t, "status must be one of: enrolled waitlisted cancelled", err.Error())

	assert.NoError(t, ValidateVar("status", "", "omitempty,oneof=enrolled waitlisted cancelled"))
	assert.NoError(t, ValidateVar("status", "cancelled", "omitempty,oneof=enrolled waitlisted cancelled"))
}
