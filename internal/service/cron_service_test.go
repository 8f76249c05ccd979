package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronServiceRegisterRejectsBadSpec(t *testing.T) {
	svc := NewCronService(time.UTC, nil, nil)
	assert.Error(t, svc.Register("broken", "not a cron expression", func(ctx context.Context) error { return nil }))
	assert.NoError(t, svc.Register("hourly", "@hourly", func(ctx context.Context) error { return nil }))
}

func TestCronServiceRunRecordsOutcome(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCronService(time.UTC, metrics, nil)

	calls := 0
	svc.run("ok", func(ctx context.Context) error {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	svc.run("fail", func(ctx context.Context) error { return errors.New("boom") })
	assert.Equal(t, 1, calls)

	svc.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Stop(ctx)
	require.NoError(t, ctx.Err())
}
