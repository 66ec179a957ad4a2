// Package resources implements the Render Resource Lifecycle (spec.md
// §4.6): a Resource Hub mapping ResourceType to ResourceManager, with
// asynchronous loading, reference counting, dependency tracking, and
// deferred release tied into the GAL's per-frame graveyard (engine/gal).
package resources

import "hash/fnv"

// ResourceType identifies which ResourceManager a path is routed to.
type ResourceType uint8

const (
	ResourceTexture ResourceType = iota
	ResourceShader
	ResourceMaterial
	ResourceModel
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTexture:
		return "texture"
	case ResourceShader:
		return "shader"
	case ResourceMaterial:
		return "material"
	case ResourceModel:
		return "model"
	default:
		return "unknown"
	}
}

// PathHash computes the stable path hash spec.md §4.6 requires every
// resource to expose ("a path hash").
func PathHash(path string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	return h.Sum64()
}

// State is a resource's lifecycle state, exposed via state queries per
// spec.md §7 ("failed resources are observable via state queries").
type State uint8

const (
	StateEmpty State = iota
	StatePending
	StateReady
	StateFailed
)
