package api

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, registerValidators())
	require.NoError(t, registerValidators(), "Second call should be a no-op")

	type req struct {
		Date string `binding:"required,isodate"`
	}
	assert.NoError(t, binding.Validator.ValidateStruct(req{Date: "2025-01-10"}))

	err := binding.Validator.ValidateStruct(req{Date: "2025-13-40"})
	require.Error(t, err)
	assert.Equal(t, "isodate", failedTag(err))
}
