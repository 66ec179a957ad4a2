// Package gal implements the GPU Abstraction Layer: a thread-aware wrapper
// over an explicit GPU API (cogentcore/webgpu) exposing descriptor heaps,
// resource objects, a PSO cache, and a per-frame command recorder.
package gal

import "hash/fnv"

// StableHash computes a deterministic 64-bit hash over the given byte
// sequences, used as the PSO cache key and the shader blob cache key.
// Unlike map iteration or pointer identity, the result is stable across
// runs and processes for identical input, which callers rely on (the
// shader blob cache on disk is keyed by this value).
func StableHash(parts ...[]byte) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum64()
}

// StableHashString is a convenience wrapper around StableHash for string
// inputs (shader source, topology names, paths).
func StableHashString(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
	}
	return h.Sum64()
}
