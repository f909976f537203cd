package pieces //nolint:testpackage // exercises the unexported registry.

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWaitTimeout = 10 * time.Millisecond

func TestRegistry_AcquirePresent(t *testing.T) {
	t.Parallel()

	r := newRegistry(nopRecorder{})
	future := r.acquire(1, true)

	assert.True(t, future.Resolved())
	assert.Equal(t, 0, r.Pending())
}

func TestRegistry_NotifyOnce(t *testing.T) {
	t.Parallel()

	recorder := &countingRecorder{}
	r := newRegistry(recorder)

	future := r.acquire(1, false)
	r.notify(1)
	r.notify(1)
	r.notify(2)

	assert.True(t, future.Resolved())
	assert.Equal(t, 1, recorder.resolved)

	select {
	case <-future.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestRegistry_NotifyPresent(t *testing.T) {
	t.Parallel()

	r := newRegistry(nopRecorder{})
	even := r.acquire(2, false)
	odd := r.acquire(3, false)

	r.notifyPresent(func(index int) bool { return index%2 == 0 })

	assert.True(t, even.Resolved())
	assert.False(t, odd.Resolved())
	assert.Equal(t, 1, r.Pending())
}

func TestFuture_WaitTimeout(t *testing.T) {
	t.Parallel()

	r := newRegistry(nopRecorder{})
	future := r.acquire(5, false)

	ctx, cancel := context.WithTimeout(context.Background(), testWaitTimeout)
	defer cancel()

	err := future.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, future.Resolved())
}
