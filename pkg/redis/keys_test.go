package redis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "view:default:snapshot", ViewSnapshotKey("default"))
	assert.Equal(t, "channel:view:default", ViewChannel("default"))
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(redis.Nil))
	assert.True(t, IsNil(fmt.Errorf("get snapshot: %w", redis.Nil)))
	assert.False(t, IsNil(errors.New("connection refused")))
	assert.False(t, IsNil(nil))
}
