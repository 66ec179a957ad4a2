// Package rendermodule implements the Render Module of spec.md §4.7: a
// per-world store of cameras, environments, lights, and model instances,
// exposing the culling entry point the Pipeline uses to turn a
// CameraParams into per-bucket draw lists.
package rendermodule

import (
	"sync"
	"sync/atomic"

	"github.com/oxyforge/corerender/common"
	"github.com/oxyforge/corerender/engine/camera"
	"github.com/oxyforge/corerender/engine/framegraph"
	"github.com/oxyforge/corerender/engine/gal"
	"github.com/oxyforge/corerender/engine/light"
	"github.com/oxyforge/corerender/engine/postprocess"
)

// EntityID identifies a camera, environment, or model instance registered
// with a Module.
type EntityID uint64

var nextEntityID atomic.Uint64

func newEntityID() EntityID {
	return EntityID(nextEntityID.Add(1))
}

// ModelInstance is one culled-and-drawn model occurrence: enough GPU
// binding state to emit a draw (spec.md §4.8 DrawInstance) plus the
// bounding sphere and bucket keys the Module needs to cull and sort it.
type ModelInstance struct {
	Program      *gal.Program
	VertexBuffer *gal.Buffer
	IndexBuffer  *gal.Buffer
	IndexCount   uint32
	MaterialHash uint64
	MeshHash     uint64

	Transform   [16]float32 // model-to-world matrix, marshaled as the per-instance uniform payload
	Center      [3]float32  // world-space bounding sphere center
	Radius      float32
	Layer       uint32
	Define      uint64
	Transparent bool

	// LODDistances are squared camera-distance thresholds mirroring the
	// LOD table of a .msh file (engine/formats/model.go); selecting among
	// LOD mesh variants is the caller's responsibility before registering
	// the instance for the frame, so only one ModelInstance is ever culled
	// here per drawn LOD level.
	LODDistances []float32
}

// Module stores per-world render components (spec.md §4.7) and implements
// the Pipeline's culling entry point.
type Module struct {
	mu sync.RWMutex

	cameras       map[EntityID]camera.Camera
	activeCamera  EntityID
	environments  map[EntityID]*postprocess.Environment
	activeEnv     EntityID
	lights        map[EntityID]light.Light
	instances     map[EntityID]*ModelInstance
}

// New creates an empty Render Module.
func New() *Module {
	return &Module{
		cameras:      make(map[EntityID]camera.Camera),
		environments: make(map[EntityID]*postprocess.Environment),
		lights:       make(map[EntityID]light.Light),
		instances:    make(map[EntityID]*ModelInstance),
	}
}

// AddCamera registers a camera and returns its entity ID. The first camera
// registered becomes active automatically.
func (m *Module) AddCamera(cam camera.Camera) EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := newEntityID()
	m.cameras[id] = cam
	if m.activeCamera == 0 {
		m.activeCamera = id
	}
	return id
}

// RemoveCamera unregisters a camera. If it was active, no camera remains
// active until SetActiveCamera is called again.
func (m *Module) RemoveCamera(id EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cameras, id)
	if m.activeCamera == id {
		m.activeCamera = 0
	}
}

// SetActiveCamera marks id as the active camera (spec.md §4.7
// getActiveCamera). No-op if id is not registered.
func (m *Module) SetActiveCamera(id EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cameras[id]; ok {
		m.activeCamera = id
	}
}

// ActiveCamera returns the active camera entity (spec.md §4.7
// getActiveCamera() -> entity?) and whether one is set.
func (m *Module) ActiveCamera() (EntityID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.activeCamera == 0 {
		return 0, false
	}
	return m.activeCamera, true
}

// GetCamera returns the camera registered under id (spec.md §4.7
// getCamera(entity) -> Camera).
func (m *Module) GetCamera(id EntityID) (camera.Camera, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cam, ok := m.cameras[id]
	return cam, ok
}

// AddEnvironment registers an environment and returns its entity ID. The
// first environment registered becomes active automatically.
func (m *Module) AddEnvironment(env *postprocess.Environment) EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := newEntityID()
	m.environments[id] = env
	if m.activeEnv == 0 {
		m.activeEnv = id
	}
	return id
}

// SetActiveEnvironment marks id as the active environment.
func (m *Module) SetActiveEnvironment(id EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.environments[id]; ok {
		m.activeEnv = id
	}
}

// ActiveEnvironment returns the active environment entity (spec.md §4.7
// getActiveEnvironment() -> entity?) and whether one is set.
func (m *Module) ActiveEnvironment() (EntityID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.activeEnv == 0 {
		return 0, false
	}
	return m.activeEnv, true
}

// GetEnvironment returns the environment registered under id (spec.md
// §4.7 getEnvironment(entity) -> Environment).
func (m *Module) GetEnvironment(id EntityID) (*postprocess.Environment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	env, ok := m.environments[id]
	return env, ok
}

// AddLight registers a point/global light (spec.md §4.7 "Point/global
// lights").
func (m *Module) AddLight(l light.Light) EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := newEntityID()
	m.lights[id] = l
	return id
}

// RemoveLight unregisters a light.
func (m *Module) RemoveLight(id EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lights, id)
}

// Lights returns every registered light.
func (m *Module) Lights() []light.Light {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]light.Light, 0, len(m.lights))
	for _, l := range m.lights {
		out = append(out, l)
	}
	return out
}

// AddModelInstance registers a model instance for culling (spec.md §4.7
// "model instances, LOD distances, AABBs").
func (m *Module) AddModelInstance(inst *ModelInstance) EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := newEntityID()
	m.instances[id] = inst
	return id
}

// RemoveModelInstance unregisters a model instance.
func (m *Module) RemoveModelInstance(id EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.instances, id)
}

// UpdateModelInstance replaces the registered data for id, e.g. after an
// animator or physics step moves the instance. No-op if id isn't
// registered.
func (m *Module) UpdateModelInstance(id EntityID, inst *ModelInstance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[id]; ok {
		m.instances[id] = inst
	}
}

// CameraParamsFor builds a framegraph.CameraParams snapshot from cam's
// current matrices and controller position (spec.md §4.8 Pass uniform
// block), applying the origin-shift split so world positions far from the
// origin keep float32 precision (spec.md §4.8, engine/framegraph/
// camera_params.go).
func CameraParamsFor(cam camera.Camera) framegraph.CameraParams {
	var ox, oy, oz float32
	if ctrl := cam.Controller(); ctrl != nil {
		ox, oy, oz = ctrl.Position()
	}
	high, low := framegraph.ShiftOrigin(float64(ox), float64(oy), float64(oz))
	return framegraph.CameraParams{
		View:       cam.ViewMatrix(),
		Proj:       cam.ProjectionMatrix(),
		ViewProj:   cam.ViewProjectionMatrix(),
		OriginHigh: high,
		OriginLow:  low,
		Near:       cam.Near(),
		Far:        cam.Far(),
		FovY:       cam.Fov(),
		Aspect:     cam.Aspect(),
	}
}

// Cull implements spec.md §4.7's "for a given CameraParams it can produce
// view IDs that yield per-bucket draw lists": it frustum-culls every
// registered model instance against params.ViewProj (common.Frustum,
// grounded on the teacher's (now-deleted) scene.go PrepareCompute, which already
// extracts the same frustum for GPU-side light culling), partitions
// survivors into an opaque (front-to-back) and a transparent
// (back-to-front) bucket, and hands them to the frame graph's Cull.
//
// Cull's signature matches postprocess.TDAOCuller, so a Module can be
// passed directly as a TDAO top-down culler.
func (m *Module) Cull(fg *framegraph.FrameGraph, params framegraph.CameraParams) framegraph.ViewID {
	m.mu.RLock()
	instances := make([]*ModelInstance, 0, len(m.instances))
	for _, inst := range m.instances {
		instances = append(instances, inst)
	}
	m.mu.RUnlock()

	frustum := common.ExtractFrustumFromMatrix(params.ViewProj[:])
	camPos := [3]float32{
		params.OriginHigh[0] + params.OriginLow[0],
		params.OriginHigh[1] + params.OriginLow[1],
		params.OriginHigh[2] + params.OriginLow[2],
	}

	draws := make([]framegraph.DrawInstance, 0, len(instances))
	for _, inst := range instances {
		if !frustum.IntersectsSphere(inst.Center, inst.Radius) {
			continue
		}
		dx, dy, dz := inst.Center[0]-camPos[0], inst.Center[1]-camPos[1], inst.Center[2]-camPos[2]
		materialHash := inst.MaterialHash
		if inst.Transparent {
			materialHash |= bucketTransparentBit
		} else {
			materialHash |= bucketOpaqueBit
		}
		draws = append(draws, framegraph.DrawInstance{
			Program:      inst.Program,
			VertexBuffer: inst.VertexBuffer,
			IndexBuffer:  inst.IndexBuffer,
			IndexCount:   inst.IndexCount,
			InstanceData: common.SliceToBytes(inst.Transform[:]),
			Depth:        dx*dx + dy*dy + dz*dz,
			MaterialHash: materialHash,
			MeshHash:     inst.MeshHash,
		})
	}

	buckets := []framegraph.Bucket{
		{Layer: 0, Define: bucketOpaqueBit, Sort: framegraph.SortFrontToBack},
		{Layer: 1, Define: bucketTransparentBit, Sort: framegraph.SortBackToFront},
	}
	return fg.Cull(params, buckets, draws)
}

// bucketOpaqueBit and bucketTransparentBit are reserved high bits ORed into
// DrawInstance.MaterialHash purely to route an instance into exactly one of
// Cull's two buckets (framegraph.matchesBucket requires a nonzero Define to
// avoid its "Define == 0 matches everything" catch-all case). Collisions
// with a real material hash's top two bits are tolerated: they only affect
// sort tie-break grouping within a bucket, never bucket membership.
const (
	bucketOpaqueBit      = uint64(1) << 62
	bucketTransparentBit = uint64(1) << 63
)
