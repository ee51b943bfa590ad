package metrics

import (
	"testing"
	"time"
)

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpSearch, 100*time.Millisecond)
	c.RecordTiming(OpSearch, 300*time.Millisecond)
	c.RecordTiming(OpIngest, 2*time.Second)

	snap := c.Snapshot()

	if snap.Search == nil {
		t.Fatal("search snapshot missing")
	}
	if snap.Search.Count != 2 {
		t.Errorf("search count = %d, want 2", snap.Search.Count)
	}
	if snap.Search.MinTimeMs != 100 || snap.Search.MaxTimeMs != 300 {
		t.Errorf("search min/max = %d/%d, want 100/300", snap.Search.MinTimeMs, snap.Search.MaxTimeMs)
	}
	if snap.Search.AvgTimeMs != 200 {
		t.Errorf("search avg = %v, want 200", snap.Search.AvgTimeMs)
	}

	if snap.Ingest == nil || snap.Ingest.Count != 1 {
		t.Error("ingest snapshot missing or wrong count")
	}

	// Unrecorded operations are omitted entirely
	if snap.Link != nil || snap.Delete != nil || snap.Embedding != nil {
		t.Error("unrecorded operations should be nil")
	}

	if snap.UptimeSeconds < 0 {
		t.Errorf("uptime = %v, want non-negative", snap.UptimeSeconds)
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	c := NewCollector()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpEmbedding, time.Millisecond)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	snap := c.Snapshot()
	if snap.Embedding == nil || snap.Embedding.Count != 400 {
		t.Fatalf("embedding count = %v, want 400", snap.Embedding)
	}
}
