package resources

import (
	"sync/atomic"
	"time"
)

// stats accumulates lifetime counters for a Manager using atomics so
// Acquire/Release never need the queue mutex just to record a count.
type stats struct {
	acquired        atomic.Int64
	released        atomic.Int64
	queued          atomic.Int64
	dequeued        atomic.Int64
	timeouts        atomic.Int64
	rejected        atomic.Int64
	peakActive      atomic.Int64
	totalDurationNs atomic.Int64
	durationCount   atomic.Int64
}

func (s *stats) updatePeak(current int64) {
	for {
		peak := s.peakActive.Load()
		if current <= peak {
			return
		}
		if s.peakActive.CompareAndSwap(peak, current) {
			return
		}
	}
}

func (s *stats) addDuration(d time.Duration) {
	s.totalDurationNs.Add(int64(d))
	s.durationCount.Add(1)
}

// Snapshot is a point-in-time view of a Manager's usage counters.
type Snapshot struct {
	CurrentActive  int64
	QueueLength    int
	TotalAcquired  int64
	TotalReleased  int64
	TotalQueued    int64
	TotalDequeued  int64
	TotalTimeouts  int64
	TotalRejected  int64
	PeakActive     int64
	AvgDuration    time.Duration
}

func (s *stats) snapshot(active int64, queueLength int) Snapshot {
	count := s.durationCount.Load()
	var avg time.Duration
	if count > 0 {
		avg = time.Duration(s.totalDurationNs.Load() / count)
	}
	return Snapshot{
		CurrentActive: active,
		QueueLength:   queueLength,
		TotalAcquired: s.acquired.Load(),
		TotalReleased: s.released.Load(),
		TotalQueued:   s.queued.Load(),
		TotalDequeued: s.dequeued.Load(),
		TotalTimeouts: s.timeouts.Load(),
		TotalRejected: s.rejected.Load(),
		PeakActive:    s.peakActive.Load(),
		AvgDuration:   avg,
	}
}
