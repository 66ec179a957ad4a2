package postprocess

import (
	"testing"

	"github.com/oxyforge/corerender/engine/drawstream"
	"github.com/oxyforge/corerender/engine/framegraph"
)

func newTestFrameGraph() *framegraph.FrameGraph {
	return framegraph.New(nil, drawstream.New())
}

func TestFSR3RetiresIdleContext(t *testing.T) {
	f := &FSR3{Enabled: true}
	f.contextFor(1920, 1080)
	if f.ContextCount() != 1 {
		t.Fatalf("expected 1 context after first use, got %d", f.ContextCount())
	}
	for i := 0; i < fsr3IdleFrameLimit-1; i++ {
		f.Tick()
	}
	if f.ContextCount() != 1 {
		t.Fatalf("expected context to survive %d idle frames, got %d", fsr3IdleFrameLimit-1, f.ContextCount())
	}
	f.Tick()
	if f.ContextCount() != 0 {
		t.Fatalf("expected context retired after %d idle frames, got %d", fsr3IdleFrameLimit, f.ContextCount())
	}
}

func TestFSR3ContextSurvivesRepeatedUse(t *testing.T) {
	f := &FSR3{Enabled: true}
	f.contextFor(800, 600)
	for i := 0; i < 20; i++ {
		f.Tick()
		f.contextFor(800, 600)
	}
	if f.ContextCount() != 1 {
		t.Fatalf("expected a single context reused across frames, got %d", f.ContextCount())
	}
}

func TestFilmGrainNilResourcesIsNoop(t *testing.T) {
	fg := newTestFrameGraph()
	plugin := NewFilmGrain(nil, nil)
	out := plugin.RenderAfterTonemap(fg, framegraph.GBuffer{}, framegraph.RenderbufferHandle(1))
	if out != framegraph.RenderbufferHandle(1) {
		t.Fatalf("expected film grain with nil shader/noise to pass input through unchanged")
	}
}

func TestSSAONoopWhenShadersNil(t *testing.T) {
	fg := newTestFrameGraph()
	plugin := NewSSAO(nil, nil)
	before := len(fg.Stream().Commands())
	plugin.RenderBeforeLightPass(fg, framegraph.GBuffer{})
	after := len(fg.Stream().Commands())
	if after != before {
		t.Fatalf("expected SSAO to emit no commands when its shaders are nil")
	}
}

func TestBloomReadyGatesOnAllShaders(t *testing.T) {
	b := &Bloom{Enabled: true}
	if b.ready() {
		t.Fatal("expected Bloom with no shaders set to report not ready")
	}
}

func TestBloomTonemapClaimRequiresOptIn(t *testing.T) {
	fg := newTestFrameGraph()
	b := &Bloom{Enabled: true}
	var out framegraph.RenderbufferHandle
	if b.tonemap(fg, framegraph.RenderbufferHandle(1), &out) {
		t.Fatal("expected bloom tonemap to decline the claim when TonemapEnabled is false")
	}
}

func TestDOFNilShaderIsNoop(t *testing.T) {
	fg := newTestFrameGraph()
	plugin := NewDOF(nil)
	before := len(fg.Stream().Commands())
	out := plugin.RenderBeforeTonemap(fg, framegraph.GBuffer{}, framegraph.RenderbufferHandle(7))
	if out != framegraph.RenderbufferHandle(7) || len(fg.Stream().Commands()) != before {
		t.Fatal("expected DOF with a nil shader to pass input through unchanged")
	}
}

func TestTAADisablesPixelJitterWithoutShaders(t *testing.T) {
	fg := newTestFrameGraph()
	fg.EnablePixelJitter(true)
	plugin := NewTAA(nil, nil)
	plugin.RenderAA(fg, framegraph.GBuffer{}, framegraph.RenderbufferHandle(1))
	if fg.PixelJitterEnabled() {
		t.Fatal("expected TAA with nil shaders to disable pixel jitter")
	}
}
