package types

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidHHMM(t *testing.T) {
	for _, s := range []string{"00:00", "07:15", "23:59"} {
		assert.True(t, ValidHHMM(s), s)
	}
	for _, s := range []string{"24:00", "7:15", "12:60", "noon", ""} {
		assert.False(t, ValidHHMM(s), s)
	}
}

func TestValidationMessages(t *testing.T) {
	require.NoError(t, RegisterValidators())

	err := binding.Validator.ValidateStruct(MealTimeInput{Start: "25:00", DurationMinutes: 30})
	require.Error(t, err)
	assert.Equal(t, "start must be a HH:MM time", ValidationMessage(err))

	err = binding.Validator.ValidateStruct(StartCookingRequest{RecipeID: "nope", Day: "Monday"})
	require.Error(t, err)
	assert.Equal(t, "recipeId must be a valid id; day must be a lower-case weekday name", ValidationMessage(err))
}
