package concurrency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

func mkQueueEntry(ts float64) domain.AuditEntry {
	return domain.NewAuditEntry(domain.NewID(), "a.com", domain.Allow, domain.Timestamp(ts), "ok")
}

func TestAppendQueueBuffersUntilDrained(t *testing.T) {
	q := NewAppendQueue(nil, time.Hour, 10)
	q.Append(mkQueueEntry(1))
	q.Append(mkQueueEntry(2))
	assert.Equal(t, 2, q.BufferSize())
	assert.Equal(t, int64(0), q.FlushCount())
}

func TestAppendQueueStartFlushesOnSchedule(t *testing.T) {
	q := NewAppendQueue(nil, 10*time.Millisecond, 10)
	q.Append(mkQueueEntry(1))
	q.Start()
	defer q.Stop()

	require.Eventually(t, func() bool {
		return q.Store().Count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestAppendQueueStopDrainsRemainder(t *testing.T) {
	q := NewAppendQueue(nil, time.Hour, 10)
	q.Start()
	q.Append(mkQueueEntry(1))
	q.Append(mkQueueEntry(2))
	q.Stop()

	assert.Equal(t, 2, q.Store().Count())
	assert.Equal(t, 0, q.BufferSize())
}

func TestAppendQueueStartIsIdempotent(t *testing.T) {
	q := NewAppendQueue(nil, 10*time.Millisecond, 10)
	q.Start()
	q.Start()
	q.Append(mkQueueEntry(1))
	defer q.Stop()

	require.Eventually(t, func() bool {
		return q.Store().Count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestAppendQueueDropsOutOfOrderEntries(t *testing.T) {
	q := NewAppendQueue(nil, time.Hour, 10)
	q.Start()
	q.Append(mkQueueEntry(10))
	q.Append(mkQueueEntry(5)) // out of chronological order, dropped
	q.Stop()

	assert.Equal(t, 1, q.Store().Count())
	assert.Equal(t, int64(1), q.DroppedCount())
}

func TestAppendQueueTotalEntriesCountsBufferedAndFlushed(t *testing.T) {
	q := NewAppendQueue(nil, time.Hour, 10)
	q.Append(mkQueueEntry(1))
	assert.Equal(t, 1, q.TotalEntries())
}
