package framegraph

import (
	"testing"

	"github.com/oxyforge/corerender/engine/drawstream"
	"github.com/oxyforge/corerender/engine/profiler"
)

func newTestFrameGraph() *FrameGraph {
	return New(nil, drawstream.New())
}

func TestCullSortsOpaqueFrontToBack(t *testing.T) {
	fg := newTestFrameGraph()
	instances := []DrawInstance{
		{MaterialHash: 1, Depth: 10},
		{MaterialHash: 1, Depth: 2},
		{MaterialHash: 1, Depth: 6},
	}
	id := fg.Cull(CameraParams{}, []Bucket{{Sort: SortFrontToBack}}, instances)
	v := fg.views[id]
	got := v.buckets[0]
	if len(got) != 3 {
		t.Fatalf("expected 3 instances in bucket, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Depth < got[i-1].Depth {
			t.Fatalf("expected non-decreasing depth order for front-to-back sort, got %v", got)
		}
	}
}

func TestCullSortsTransparentBackToFront(t *testing.T) {
	fg := newTestFrameGraph()
	instances := []DrawInstance{
		{MaterialHash: 1, Depth: 2},
		{MaterialHash: 1, Depth: 10},
		{MaterialHash: 1, Depth: 6},
	}
	id := fg.Cull(CameraParams{}, []Bucket{{Sort: SortBackToFront}}, instances)
	got := fg.views[id].buckets[0]
	for i := 1; i < len(got); i++ {
		if got[i].Depth > got[i-1].Depth {
			t.Fatalf("expected non-increasing depth order for back-to-front sort, got %v", got)
		}
	}
}

func TestRunFrameTonemapFirstClaimWins(t *testing.T) {
	fg := newTestFrameGraph()
	var claimedBy []string

	claimer1 := &Plugin{Name: "a", Tonemap: func(fg *FrameGraph, hdr RenderbufferHandle, out *RenderbufferHandle) bool {
		claimedBy = append(claimedBy, "a")
		*out = hdr
		return true
	}}
	claimer2 := &Plugin{Name: "b", Tonemap: func(fg *FrameGraph, hdr RenderbufferHandle, out *RenderbufferHandle) bool {
		claimedBy = append(claimedBy, "b")
		*out = hdr
		return true
	}}
	fg.RegisterPlugin(claimer1)
	fg.RegisterPlugin(claimer2)

	fg.RunFrame(GBuffer{}, RenderbufferHandle(1), FrameCallbacks{})

	if len(claimedBy) != 1 || claimedBy[0] != "a" {
		t.Fatalf("expected first-registered plugin to claim tonemap exclusively, got %v", claimedBy)
	}
}

func TestRunFramePixelJitterGatesAA(t *testing.T) {
	fg := newTestFrameGraph()
	called := false
	fg.RegisterPlugin(&Plugin{Name: "taa", RenderAA: func(fg *FrameGraph, gb GBuffer, in RenderbufferHandle) RenderbufferHandle {
		called = true
		return in
	}})

	fg.RunFrame(GBuffer{}, RenderbufferHandle(1), FrameCallbacks{})
	if called {
		t.Fatal("expected AA plugin not to run while pixel jitter is disabled")
	}

	fg.EnablePixelJitter(true)
	fg.RunFrame(GBuffer{}, RenderbufferHandle(1), FrameCallbacks{})
	if !called {
		t.Fatal("expected AA plugin to run once pixel jitter is enabled")
	}
}

func TestRunFrameTicksAttachedProfiler(t *testing.T) {
	prof := profiler.NewProfiler()
	fg := New(nil, drawstream.New(), WithProfiler(prof))

	if fg.prof != prof {
		t.Fatal("expected WithProfiler to install the profiler on the frame graph")
	}

	// RunFrame must reach StateEndFrame and tick the profiler without
	// panicking, regardless of whether the interval elapsed enough to log.
	fg.RunFrame(GBuffer{}, RenderbufferHandle(1), FrameCallbacks{})
}

func TestRunFrameEmitsStateDebugGroups(t *testing.T) {
	fg := newTestFrameGraph()
	fg.RunFrame(GBuffer{}, RenderbufferHandle(1), FrameCallbacks{})

	cmds := fg.Stream().Commands()
	var pushes int
	for _, c := range cmds {
		if c.Op == drawstream.OpDebugGroupPush {
			pushes++
		}
	}
	if pushes == 0 {
		t.Fatal("expected RunFrame to emit at least one debug group per state transition")
	}
}
