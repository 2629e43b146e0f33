package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateTracker_Observe(t *testing.T) {
	t.Run("counts within one minute bucket", func(t *testing.T) {
		tracker := NewRateTracker()
		fixed := time.Date(2026, 8, 28, 12, 30, 15, 0, time.UTC)
		tracker.now = func() time.Time { return fixed }

		for i := 1; i <= 21; i++ {
			count := tracker.Observe("1.2.3.4")
			assert.Equal(t, i, count)
		}
		assert.Equal(t, 21, tracker.Count("1.2.3.4"))
	})

	t.Run("addresses are independent", func(t *testing.T) {
		tracker := NewRateTracker()
		tracker.Observe("1.2.3.4")
		tracker.Observe("1.2.3.4")

		assert.Equal(t, 1, tracker.Observe("5.6.7.8"))
	})

	t.Run("new minute starts a new bucket", func(t *testing.T) {
		tracker := NewRateTracker()
		current := time.Date(2026, 8, 28, 12, 30, 59, 0, time.UTC)
		tracker.now = func() time.Time { return current }

		for i := 0; i < 10; i++ {
			tracker.Observe("1.2.3.4")
		}

		current = current.Add(time.Minute)
		assert.Equal(t, 1, tracker.Observe("1.2.3.4"))
	})

	t.Run("stale buckets are pruned", func(t *testing.T) {
		tracker := NewRateTracker()
		current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		tracker.now = func() time.Time { return current }

		tracker.Observe("1.2.3.4")
		current = current.Add(10 * time.Minute)
		tracker.Observe("1.2.3.4")

		assert.Len(t, tracker.buckets["1.2.3.4"], 1)
	})
}
