package extract

import (
	"errors"
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int{500, 100, 300, 200, 400} {
		stats.Record(time.Duration(ms)*time.Millisecond, nil)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %f %f", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
}

func TestStatsFailedRunsKeptApart(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(10*time.Millisecond, nil)
	stats.Record(time.Second, errors.New("boom"))

	snap := stats.Snapshot()
	if snap.Count != 1 || snap.Failed != 1 {
		t.Fatalf("expected 1 ok and 1 failed, got %+v", snap)
	}
	if snap.MaxMs != 10 {
		t.Errorf("failed run leaked into latency: max=%f", snap.MaxMs)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats.now = func() time.Time { return clock }

	stats.Record(100*time.Millisecond, nil)
	clock = clock.Add(2 * time.Minute)
	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(-time.Second, nil)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}
