// Package scene defines the data model for room layouts: the room envelope,
// the objects placed inside it, and the resolved scene produced by the
// resolution engine.
//
// A Layout is the raw, machine-generated input: objects with optional
// positions, rotations, parent/anchor references, and sizes. A Resolved
// scene is the output of one resolution pass: absolute transforms for every
// object that resolved, plus the warnings accumulated along the way.
//
// Layouts and resolved scenes serialize to JSON (see io.go) so they can be
// produced by an upstream generation step and consumed by downstream
// presentation layers.
package scene

import "math"

// Room is the axis-aligned envelope objects are placed in. It is centered
// at the origin on the horizontal plane with the floor at y = 0, so valid
// x positions span [-Width/2, Width/2] and z positions [-Depth/2, Depth/2].
type Room struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`

	// Cosmetic attributes, passed through untouched.
	Name  string `json:"name,omitempty"`
	Style string `json:"style,omitempty"`
}

// HalfWidth returns half the room width (the x half-extent).
func (r Room) HalfWidth() float64 { return r.Width / 2 }

// HalfDepth returns half the room depth (the z half-extent).
func (r Room) HalfDepth() float64 { return r.Depth / 2 }

// Valid reports whether all three dimensions are positive and finite.
func (r Room) Valid() bool {
	return isFinitePositive(r.Width) && isFinitePositive(r.Depth) && isFinitePositive(r.Height)
}

// Vec3 is a point or offset in meters (positions) or degrees (rotations).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the component-wise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Finite reports whether all three components are finite numbers.
func (v Vec3) Finite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Size is an object's extent in meters: width (x), depth (z), height (y).
type Size struct {
	W float64 `json:"w"`
	D float64 `json:"d"`
	H float64 `json:"h"`
}

// Valid reports whether all three extents are positive and finite.
// Generated input routinely carries NaN or negative sizes; those are
// treated as absent rather than propagated into the geometry.
func (s Size) Valid() bool {
	return isFinitePositive(s.W) && isFinitePositive(s.D) && isFinitePositive(s.H)
}

// Object is one entry in a raw layout. Everything except the ID is
// optional: missing fields are defaulted during resolution.
type Object struct {
	// ID uniquely identifies the object within its layout.
	ID string `json:"id"`

	// Model references an entry in the spatial metadata catalog. Unknown
	// references fall back to the default footprint.
	Model string `json:"model,omitempty"`

	// Parent names another object this one is anchored to. A parent that
	// does not exist degrades the object to root placement with a warning.
	Parent string `json:"parent,omitempty"`

	// Anchor names a local-space reference point on the parent. When set
	// and known to the catalog, Offset is interpreted relative to it.
	Anchor string `json:"anchor,omitempty"`

	// Offset is the local offset from the parent's anchor frame.
	Offset *Vec3 `json:"offset,omitempty"`

	// Position is the explicit world position, if the generator supplied one.
	Position *Vec3 `json:"position,omitempty"`

	// Rotation is the explicit rotation in Euler degrees per axis.
	Rotation *Vec3 `json:"rotation,omitempty"`

	// Size is the explicit extent, overriding catalog metadata.
	Size *Size `json:"size,omitempty"`

	// Meta carries opaque semantic metadata through resolution untouched.
	Meta map[string]any `json:"meta,omitempty"`
}

// IsRoot reports whether the object declares no parent reference.
func (o Object) IsRoot() bool { return o.Parent == "" }

// Layout is the immutable input snapshot for one resolution pass.
type Layout struct {
	Room    Room     `json:"room"`
	Objects []Object `json:"objects"`
}

// Transform is an absolute position and rotation for one object, computed
// once per resolution pass and never mutated afterwards.
type Transform struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`
}

// Placement pairs an object with its resolved transform.
type Placement struct {
	ID        string         `json:"id"`
	Model     string         `json:"model,omitempty"`
	Transform Transform      `json:"transform"`
	Size      Size           `json:"size"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Resolved is the output of one resolution pass: the room envelope passed
// through, a placement per successfully resolved object, and the full
// warning list. Objects that failed with a cyclic reference carry no
// placement; they appear only in Warnings.
type Resolved struct {
	Room       Room        `json:"room"`
	Placements []Placement `json:"placements"`
	Warnings   []Warning   `json:"warnings,omitempty"`
}

// Placement returns the placement for the given object ID, if present.
func (r *Resolved) Placement(id string) (Placement, bool) {
	for _, p := range r.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFinitePositive(v float64) bool {
	return isFinite(v) && v > 0
}
