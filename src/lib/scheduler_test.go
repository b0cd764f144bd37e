package lib

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntervalJobRunsTask(t *testing.T) {
	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	NewScheduler(s)
	defer func() {
		s.Shutdown()
		NewScheduler(nil)
	}()

	var runs atomic.Int32
	id, err := CreateIntervalJob("digest", 20*time.Millisecond, time.Second, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, id)

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "digest", jobs[0].Name())

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}
