// Package render defines the narrow interface the core exposes to the
// (out-of-scope) renderer, and the reference-counted handle that lets a
// chunk or block animation outlive the core's interest in it for as long
// as a frame still has it in flight.
package render

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderable is the closed set of two render-proxy variants (chunk-terrain
// proxy, animated-block proxy) behind one interface, each with the same
// enqueue/prepare/draw lifecycle.
type Renderable interface {
	// Enqueue submits the proxy's batches to the renderer's draw queue for
	// the current frame.
	Enqueue()
	// Prepare is called once per frame before Draw, after all Enqueue calls
	// for the frame have been made, to let the proxy upload or validate any
	// pending GPU resources.
	Prepare()
	// Draw issues the actual draw calls for the proxy.
	Draw()
}

// Transformable is implemented by the animated-block render proxy
// variant: unlike chunk-terrain proxies, its placement changes every
// frame without regenerating any geometry.
type Transformable interface {
	Renderable
	SetTransform(position mgl32.Vec3, orientation mgl32.Quat)
}

// Handle is a strong reference to a Renderable. The owning chunk or
// animation record holds exactly one Handle; Clone produces additional
// strong references (for example, one taken by the render queue for the
// duration of a frame) that keep the underlying Renderable alive even after
// the owner releases its own reference.
//
// Reference counting is explicit here rather than relying on a finalizer,
// since Go has no destructor hook to run cleanup implicitly.
type Handle struct {
	shared *shared
}

type shared struct {
	refs    atomic.Int32
	value   Renderable
	release func(Renderable)
}

// NewHandle wraps r in a new strong Handle with an initial reference count
// of one. release, if non-nil, is invoked exactly once, when the last
// strong reference is dropped.
func NewHandle(r Renderable, release func(Renderable)) Handle {
	s := &shared{value: r, release: release}
	s.refs.Store(1)
	return Handle{shared: s}
}

// Valid reports whether the handle wraps a live Renderable. A zero-value
// Handle is not valid.
func (h Handle) Valid() bool { return h.shared != nil }

// Get returns the underlying Renderable, or nil if the handle is the zero
// value.
func (h Handle) Get() Renderable {
	if h.shared == nil {
		return nil
	}
	return h.shared.value
}

// Clone returns a new strong reference to the same Renderable, incrementing
// the refcount. The render queue calls this when it takes ownership of a
// proxy for an in-flight frame so the proxy survives even if the owning
// chunk is deleted before the frame finishes drawing.
func (h Handle) Clone() Handle {
	if h.shared == nil {
		return Handle{}
	}
	h.shared.refs.Add(1)
	return h
}

// Release drops this strong reference. Once the last reference is dropped,
// the release callback given to NewHandle runs.
func (h Handle) Release() {
	if h.shared == nil {
		return
	}
	if h.shared.refs.Add(-1) == 0 && h.shared.release != nil {
		h.shared.release(h.shared.value)
	}
}
