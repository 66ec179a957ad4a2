package profiler

import (
	"testing"
	"time"
)

func TestTickDoesNotLogBeforeIntervalElapses(t *testing.T) {
	p := NewProfiler()
	if logged := p.Tick(); logged {
		t.Fatal("expected Tick not to log on the very first call, interval has not elapsed")
	}
	if p.frameCount != 1 {
		t.Fatalf("expected frameCount to accumulate to 1, got %d", p.frameCount)
	}
}

func TestTickLogsAndResetsOnceIntervalElapses(t *testing.T) {
	p := NewProfiler()
	p.frameCount = 59
	p.lastTime = time.Now().Add(-2 * time.Second)

	if logged := p.Tick(); !logged {
		t.Fatal("expected Tick to log once updateInterval has elapsed")
	}
	if p.frameCount != 0 {
		t.Fatalf("expected frameCount to reset after logging, got %d", p.frameCount)
	}
	if time.Since(p.lastTime) > time.Second {
		t.Fatal("expected lastTime to be rebased to the tick that triggered logging")
	}
}
