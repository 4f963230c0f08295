package ev_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waywin/internal/ev"
)

func TestQueueBatches(t *testing.T) {
	q := ev.NewQueue()
	defer q.Stop()

	var got []int
	q.Add() <- func() error { got = append(got, 1); return nil }
	q.Add() <- func() error { got = append(got, 2); return nil }

	events := <-q.Get()
	require.NoError(t, events.Flush())
	assert.Equal(t, []int{1, 2}, got)
}

func TestQueueGetWaitsForEvents(t *testing.T) {
	q := ev.NewQueue()
	defer q.Stop()

	select {
	case <-q.Get():
		t.Fatal("Get yielded with nothing queued")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestQueueAllYieldsEmptyBatch(t *testing.T) {
	q := ev.NewQueue()
	defer q.Stop()

	events := <-q.All()
	require.NoError(t, events.Flush())
}

func TestQueueAllCollectsPending(t *testing.T) {
	q := ev.NewQueue()
	defer q.Stop()

	// Unlike Get, a receive from All is guaranteed to pick up events
	// queued before it, even if the handoff was not yet offered when
	// the receive started.
	var ran bool
	q.Add() <- func() error { ran = true; return nil }

	events := <-q.All()
	require.NoError(t, events.Flush())
	assert.True(t, ran)
}
