package rendermodule

import (
	"testing"

	"github.com/oxyforge/corerender/engine/camera"
	"github.com/oxyforge/corerender/engine/drawstream"
	"github.com/oxyforge/corerender/engine/framegraph"
)

func identityCameraParams() framegraph.CameraParams {
	identity := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	return framegraph.CameraParams{View: identity, Proj: identity, ViewProj: identity}
}

func newTestFrameGraph() *framegraph.FrameGraph {
	return framegraph.New(nil, drawstream.New())
}

func TestModuleLightsEmptyOnFreshModule(t *testing.T) {
	m := New()
	if got := m.Lights(); len(got) != 0 {
		t.Fatalf("expected no lights on a fresh module, got %d", len(got))
	}
}

func TestModuleActiveEnvironmentDefaultsToFirstRegistered(t *testing.T) {
	m := New()
	id := m.AddEnvironment(nil)
	active, ok := m.ActiveEnvironment()
	if !ok || active != id {
		t.Fatalf("expected first registered environment to become active, got %v ok=%v", active, ok)
	}
}

func TestModuleSetActiveCameraIgnoresUnknownID(t *testing.T) {
	m := New()
	m.SetActiveCamera(EntityID(999))
	if _, ok := m.ActiveCamera(); ok {
		t.Fatal("expected no active camera when no camera has ever been registered")
	}
}

func TestCullReturnsViewForInstancesInsideAndOutsideFrustum(t *testing.T) {
	m := New()
	fg := newTestFrameGraph()

	insideID := m.AddModelInstance(&ModelInstance{Center: [3]float32{0, 0, 0}, Radius: 0.2})
	outsideID := m.AddModelInstance(&ModelInstance{Center: [3]float32{10, 0, 0}, Radius: 1})
	_ = insideID
	_ = outsideID

	viewID := m.Cull(fg, identityCameraParams())
	if viewID == 0 {
		t.Fatal("expected a nonzero view ID from Cull")
	}
}

func TestCullReturnsViewForOpaqueAndTransparentInstances(t *testing.T) {
	m := New()
	fg := newTestFrameGraph()

	m.AddModelInstance(&ModelInstance{Center: [3]float32{0, 0, 0}, Radius: 0.1, Transparent: false})
	m.AddModelInstance(&ModelInstance{Center: [3]float32{0, 0, 0}, Radius: 0.1, Transparent: true})

	if viewID := m.Cull(fg, identityCameraParams()); viewID == 0 {
		t.Fatal("expected a nonzero view ID from Cull")
	}
}

func TestCameraParamsForHandlesNilController(t *testing.T) {
	cam := camera.NewCamera()
	params := CameraParamsFor(cam)
	if params.Near != 0.1 || params.Far != 100.0 {
		t.Fatalf("expected the camera's default near/far planes to carry through, got %+v", params)
	}
}

func TestModuleAddCameraMakesFirstRegistrationActive(t *testing.T) {
	m := New()
	cam := camera.NewCamera()
	id := m.AddCamera(cam)
	active, ok := m.ActiveCamera()
	if !ok || active != id {
		t.Fatalf("expected first registered camera to become active, got %v ok=%v", active, ok)
	}
	got, ok := m.GetCamera(id)
	if !ok || got != cam {
		t.Fatal("expected GetCamera to return the registered camera")
	}
}
