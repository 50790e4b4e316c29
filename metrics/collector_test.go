package metrics

import (
	"sync"
	"testing"
)

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic on a nil receiver.
	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed()
	c.IncWorkerLaunchSuccess()
	c.IncWorkerLaunchFailure()
	c.AddFramesDecoded(3)
	c.IncDecodeError()
	c.AbsorbListenerStats(100, 1, 1)

	snap := c.Snapshot()
	if snap.SessionsStarted != 0 {
		t.Errorf("nil collector snapshot not zero: %+v", snap)
	}
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("unix", "pytest", "sess-001")

	c.IncSessionStarted()
	c.IncWorkerLaunchSuccess()
	c.AddFramesDecoded(5)
	c.AbsorbListenerStats(2048, 1, 0)
	c.IncSessionCompleted()

	snap := c.Snapshot()
	if snap.SessionsStarted != 1 || snap.SessionsCompleted != 1 {
		t.Errorf("lifecycle counters wrong: %+v", snap)
	}
	if snap.FramesDecoded != 5 {
		t.Errorf("FramesDecoded = %d, want 5", snap.FramesDecoded)
	}
	if snap.BytesReceived != 2048 || snap.Reconnects != 1 {
		t.Errorf("listener stats wrong: %+v", snap)
	}
	if snap.Transport != "unix" || snap.Worker != "pytest" || snap.SessionID != "sess-001" {
		t.Errorf("dimensions wrong: %+v", snap)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("unix", "pytest", "sess-002")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddFramesDecoded(1)
		}()
	}
	wg.Wait()

	if got := c.Snapshot().FramesDecoded; got != 50 {
		t.Errorf("FramesDecoded = %d, want 50", got)
	}
}
