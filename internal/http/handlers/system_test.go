package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_GetHealth(t *testing.T) {
	handler := NewSystemHandler("1.0.0")

	out, err := handler.GetHealth(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "healthy", out.Body.Status)
	assert.Equal(t, "1.0.0", out.Body.Version)
	assert.Equal(t, "not configured", out.Body.Checks["database"])
}

func TestSystemHandler_GetStatus(t *testing.T) {
	handler := NewSystemHandler("1.0.0")

	out, err := handler.GetStatus(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", out.Body.Version)
	assert.Positive(t, out.Body.NumCPU)
	assert.Positive(t, out.Body.NumGoroutines)
}
