package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleepContext(t *testing.T) {
	start := time.Now()
	assert.NoError(t, SleepContext(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SleepContext(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.True(t, errors.Is(SleepContext(ctx, 0), context.Canceled))
}
