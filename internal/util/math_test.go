package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearlyZero(t *testing.T) {
	assert.True(t, NearlyZero(0))
	assert.True(t, NearlyZero(0.00005))
	assert.True(t, NearlyZero(-0.00009))
	assert.False(t, NearlyZero(0.0001))
	assert.False(t, NearlyZero(-0.5))
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 5.0, PercentChange(50, 1000), 1e-9)
	assert.InDelta(t, -2.5, PercentChange(-25, 1000), 1e-9)
	assert.Equal(t, 0.0, PercentChange(10, 0))
}
