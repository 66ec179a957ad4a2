package resources

import (
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// FileSystem is the minimal synchronous raw-read interface the Hub
// consumes; the real filesystem, a package archive, or a test double can
// all satisfy it (spec.md §1: "File system ... consumed as interfaces").
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// Factory constructs a new, empty Manager for a resource type. Hub calls
// this once per distinct path on first Request.
type Factory func(path string) Manager

// Handle is an opaque reference to a pending or loaded resource. Cancel
// unregisters any pending content-ready callback without interrupting
// in-flight GPU/IO work already underway (spec.md §5 "Cancellation").
type Handle struct {
	id uint64
}

// readyEvent is queued by a worker goroutine and drained on the engine thread
// by Hub.Poll, implementing spec.md §4.6's "a content-ready callback fires
// on the engine thread."
type readyEvent struct {
	id   uint64
	path string
	typ  ResourceType
	ok   bool
}

// entry tracks one distinct (type, path) resource managed by the hub.
type entry struct {
	mgr  Manager
	base *Base
	deps []Dependency
}

// Hub is the Resource Hub from spec.md §4.6: `ResourceType -> ResourceManager`,
// async loading via a worker pool, dependency tracking via a synchronous
// load hook, and reference counting.
type Hub struct {
	mu        sync.RWMutex
	factories map[ResourceType]Factory
	entries   map[ResourceType]map[string]*entry

	fs   FileSystem
	pool worker.DynamicWorkerPool
	log  *slog.Logger

	readyMu sync.Mutex
	ready   []readyEvent
	nextID  uint64

	callbacksMu sync.Mutex
	callbacks   map[uint64]func(ok bool)
	canceled    map[uint64]bool
}

// NewHub creates a Resource Hub backed by `fs` for raw reads and a bounded
// worker pool of `workers` goroutines for async loads, mirroring the
// teacher's `worker.NewDynamicWorkerPool` use in its (now-deleted) scene.go.
func NewHub(fs FileSystem, workers int, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	return &Hub{
		factories: make(map[ResourceType]Factory),
		entries:   make(map[ResourceType]map[string]*entry),
		fs:        fs,
		pool:      worker.NewDynamicWorkerPool(workers, 256, 0),
		log:       log,
		callbacks: make(map[uint64]func(ok bool)),
		canceled:  make(map[uint64]bool),
	}
}

// Register installs the Factory used to construct Manager instances for a
// ResourceType.
func (h *Hub) Register(t ResourceType, f Factory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.factories[t] = f
	if h.entries[t] == nil {
		h.entries[t] = make(map[string]*entry)
	}
}

// Lookup returns the Manager for an already-requested (type, path), or nil.
func (h *Hub) Lookup(t ResourceType, path string) Manager {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if e, ok := h.entries[t][path]; ok {
		return e.mgr
	}
	return nil
}

// Request asynchronously loads the resource at `path` as `t`, incrementing
// its reference count. The first caller for a given (type, path) triggers
// a worker-pool load; subsequent callers observe the same Manager and get
// their own ready callback queued once it reaches StateReady (or
// immediately, if already ready). Returns a pending Handle and the shared
// Manager (which reports Ready()==false until loading completes).
func (h *Hub) Request(t ResourceType, path string, onReady func(ok bool)) (Handle, Manager) {
	h.mu.Lock()
	factory := h.factories[t]
	if factory == nil {
		h.mu.Unlock()
		panic("resources: no factory registered for type " + t.String())
	}
	bucket := h.entries[t]
	e, existed := bucket[path]
	if !existed {
		mgr := factory(path)
		base := baseOf(mgr)
		e = &entry{mgr: mgr, base: base}
		bucket[path] = e
	}
	e.base.IncRef()
	h.mu.Unlock()

	id := h.nextHandleID()
	if onReady != nil {
		h.callbacksMu.Lock()
		h.callbacks[id] = onReady
		h.callbacksMu.Unlock()
	}

	if e.base.Ready() || e.base.Failed() {
		h.enqueueReady(id, t, path, e.base.Ready())
		return Handle{id: id}, e.mgr
	}

	if !existed {
		h.submitLoad(t, path, e)
	}
	return Handle{id: id}, e.mgr
}

// Cancel unregisters a pending content-ready callback. In-flight GPU/IO
// work for the underlying resource still completes (spec.md §5).
func (h *Hub) Cancel(hdl Handle) {
	h.callbacksMu.Lock()
	delete(h.callbacks, hdl.id)
	h.canceled[hdl.id] = true
	h.callbacksMu.Unlock()
}

// Release decrements a resource's reference count, unloading it once the
// count reaches zero.
func (h *Hub) Release(t ResourceType, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[t][path]
	if !ok {
		return
	}
	if e.base.DecRef() <= 0 {
		e.mgr.Unload()
		delete(h.entries[t], path)
	}
}

// Poll drains completed content-ready events on the calling (engine)
// thread, invoking each registered callback once. Call this once per
// engine tick.
func (h *Hub) Poll() {
	h.readyMu.Lock()
	events := h.ready
	h.ready = nil
	h.readyMu.Unlock()

	for _, ev := range events {
		h.callbacksMu.Lock()
		canceled := h.canceled[ev.id]
		cb := h.callbacks[ev.id]
		delete(h.callbacks, ev.id)
		delete(h.canceled, ev.id)
		h.callbacksMu.Unlock()
		if canceled || cb == nil {
			continue
		}
		cb(ev.ok)
	}
}

func (h *Hub) submitLoad(t ResourceType, path string, e *entry) {
	h.pool.SubmitTask(worker.Task{
		ID: int(PathHash(path)),
		Do: func() (any, error) {
			ok := h.loadOne(t, path, e)
			h.enqueueReady(0, t, path, ok)
			return nil, nil
		},
	})
}

// loadOne performs the synchronous read + dependency walk + Manager.Load
// sequence for one resource, following dependencies iteratively (spec.md
// §9 "the load hook walks dependencies iteratively", "No owning cycles;
// back-references are weak").
func (h *Hub) loadOne(t ResourceType, path string, e *entry) bool {
	data, err := h.fs.ReadFile(path)
	if err != nil {
		h.log.Error("resources: read failed", "type", t.String(), "path", path, "error", err)
		e.base.setState(StateFailed)
		return false
	}
	if !e.mgr.Load(data) {
		h.log.Error("resources: decode failed", "type", t.String(), "path", path)
		e.base.setState(StateFailed)
		return false
	}

	visited := map[string]bool{path: true}
	queue := e.mgr.Dependencies()
	for len(queue) > 0 {
		dep := queue[0]
		queue = queue[1:]
		if visited[dep.Path] {
			continue
		}
		visited[dep.Path] = true

		h.mu.Lock()
		depBucket := h.entries[dep.Type]
		depEntry, depExists := depBucket[dep.Path]
		depFactory := h.factories[dep.Type]
		if !depExists {
			depMgr := depFactory(dep.Path)
			depEntry = &entry{mgr: depMgr, base: baseOf(depMgr)}
			depBucket[dep.Path] = depEntry
		}
		depEntry.base.IncRef()
		h.mu.Unlock()

		if !depEntry.base.Ready() {
			if !h.loadOne(dep.Type, dep.Path, depEntry) {
				continue // dependency failure does not abort the whole load (spec.md §7 fallback policy)
			}
		}
		queue = append(queue, depEntry.mgr.Dependencies()...)
	}

	e.mgr.OnBeforeReady()
	e.base.setState(StateReady)
	return true
}

func (h *Hub) enqueueReady(id uint64, t ResourceType, path string, ok bool) {
	h.readyMu.Lock()
	h.ready = append(h.ready, readyEvent{id: id, path: path, typ: t, ok: ok})
	h.readyMu.Unlock()
}

func (h *Hub) nextHandleID() uint64 {
	h.readyMu.Lock()
	defer h.readyMu.Unlock()
	h.nextID++
	return h.nextID
}

// baseOf extracts the embedded *Base from a Manager implementation via the
// unexported resourceBase() accessor concrete resource types must implement.
func baseOf(m Manager) *Base {
	if ba, ok := m.(interface{ resourceBase() *Base }); ok {
		return ba.resourceBase()
	}
	panic("resources: Manager implementation must expose resourceBase() *Base (embed resources.Base and add that accessor)")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
