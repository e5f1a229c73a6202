// Package resolve implements the layout resolution engine: it turns a raw,
// machine-generated layout into a geometrically valid scene.
//
// # Pipeline
//
// A resolution pass runs a fixed sequence of stages:
//
//  1. Validate: the room envelope must have positive finite dimensions;
//     duplicate object IDs are dropped with a warning.
//  2. Graph: parent references become an anchor graph; cycles and dangling
//     parents are detected here.
//  3. Place: transforms are computed in topological order - roots first,
//     then children composed from their parent's resolved transform.
//     Unparented objects without a vertical position rest on the floor.
//  4. Snap/Clamp: positions snap to the grid and are clamped into the room.
//  5. Mitigate: overlapping top-level footprints are pushed apart for a
//     bounded number of passes.
//
// Only an invalid room fails the whole layout. Every other anomaly is
// recorded as a warning on the resolved scene: cycle members are omitted
// from the placements, dangling parents degrade to root placement, and
// residual overlaps are reported pair by pair.
//
// Resolution is pure and synchronous. Each call allocates its own graph
// and working state, so independent layouts may be resolved concurrently
// without locking.
package resolve

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-dev/stagehand/pkg/anchor"
	"github.com/stagehand-dev/stagehand/pkg/catalog"
	"github.com/stagehand-dev/stagehand/pkg/errors"
	"github.com/stagehand-dev/stagehand/pkg/observability"
	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// overlapEpsilon is the footprint overlap tolerance. Overlaps at or below
// it are ignored so objects pushed flush against each other by a previous
// pass are not separated again by float noise.
const overlapEpsilon = 1e-9

// Resolve runs one resolution pass over the layout snapshot.
// The layout is not mutated; the returned scene is built from scratch.
func Resolve(ctx context.Context, layout *scene.Layout, opts Options) (*scene.Resolved, error) {
	resolved, _, err := ResolveWithStats(ctx, layout, opts)
	return resolved, err
}

// ResolveWithStats is Resolve with per-stage statistics for callers that
// report timings (CLI, API).
func ResolveWithStats(ctx context.Context, layout *scene.Layout, opts Options) (*scene.Resolved, Stats, error) {
	start := time.Now()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, Stats{}, err
	}
	if layout == nil {
		return nil, Stats{}, errors.New(errors.ErrCodeInvalidLayout, "layout is nil")
	}
	if !layout.Room.Valid() {
		return nil, Stats{}, errors.New(errors.ErrCodeInvalidRoom,
			"room dimensions must be positive and finite, got %v × %v × %v",
			layout.Room.Width, layout.Room.Depth, layout.Room.Height)
	}

	observability.Resolve().OnResolveStart(ctx, len(layout.Objects))

	r := &resolution{
		room:  layout.Room,
		opts:  opts,
		index: make(map[string]*node),
	}

	graphStart := time.Now()
	r.dedupe(layout.Objects)
	r.buildGraph()
	r.stats.GraphTime = time.Since(graphStart)

	placeStart := time.Now()
	r.place(ctx)
	r.snapAndClamp()
	r.stats.PlaceTime = time.Since(placeStart)

	mitigateStart := time.Now()
	r.mitigateOverlaps(ctx)
	r.stats.MitigateTime = time.Since(mitigateStart)

	resolved := r.assemble()
	r.stats.ObjectCount = len(layout.Objects)
	r.stats.PlacedCount = len(resolved.Placements)

	opts.Logger.Debug("resolved layout",
		"objects", r.stats.ObjectCount,
		"placed", r.stats.PlacedCount,
		"warnings", len(resolved.Warnings),
		"duration", time.Since(start))

	observability.Resolve().OnResolveComplete(ctx, r.stats.ObjectCount, len(resolved.Warnings), time.Since(start), nil)
	return resolved, r.stats, nil
}

// node holds the working state for one object during a resolution pass.
type node struct {
	obj     scene.Object
	size    scene.Size
	dims    catalog.Dimensions // catalog metadata for anchor lookups
	hasDims bool
	pos     scene.Vec3
	rot     scene.Vec3
	root    bool // no effective parent (none declared, or dangling)
	placed  bool
}

// resolution is the per-call state of one pass. It is never shared.
type resolution struct {
	room     scene.Room
	opts     Options
	objects  []scene.Object // deduplicated, input order preserved
	index    map[string]*node
	graph    *anchor.Graph
	order    []string // topological resolution order
	warnings []scene.Warning
	stats    Stats
}

// dedupe copies objects in input order, dropping later occurrences of a
// reused identifier and assigning fresh IDs to unnamed objects.
func (r *resolution) dedupe(objects []scene.Object) {
	seen := make(map[string]bool, len(objects))
	for _, obj := range objects {
		if obj.ID == "" {
			obj.ID = uuid.NewString()
		}
		if seen[obj.ID] {
			r.warn(scene.Warning{
				Code:     scene.WarnDuplicateID,
				ObjectID: obj.ID,
				Message:  "identifier already used by an earlier object; dropped",
			})
			continue
		}
		seen[obj.ID] = true
		r.objects = append(r.objects, obj)
		r.index[obj.ID] = &node{obj: obj}
	}
}

// buildGraph constructs the anchor graph and records dangling-parent and
// cyclic-reference conditions.
func (r *resolution) buildGraph() {
	r.graph = anchor.New()
	for _, obj := range r.objects {
		// IDs are unique and non-empty after dedupe.
		_ = r.graph.Add(obj.ID, obj.Parent)
	}

	for _, id := range r.graph.Dangling() {
		r.warn(scene.Warning{
			Code:     scene.WarnDanglingParent,
			ObjectID: id,
			Message:  fmt.Sprintf("parent %q does not exist; placed as root", r.index[id].obj.Parent),
		})
	}

	blocked := r.graph.Unresolvable()
	for _, obj := range r.objects {
		if blocked[obj.ID] {
			r.warn(scene.Warning{
				Code:     scene.WarnCyclicReference,
				ObjectID: obj.ID,
				Message:  "parent chain forms a cycle; object not resolved",
			})
		}
	}

	r.order = r.graph.TopoOrder()
}

// place computes absolute transforms in topological order and applies the
// floor fallback to unparented objects.
func (r *resolution) place(ctx context.Context) {
	for _, id := range r.order {
		n := r.index[id]
		n.size, n.dims, n.hasDims = r.resolveSize(ctx, n.obj)

		parentID, hasParent := r.graph.Parent(id)
		if !hasParent {
			r.placeRoot(n)
		} else {
			r.placeChild(n, r.index[parentID])
		}
		n.placed = true
	}
}

// placeRoot resolves an unparented object: its explicit transform when
// supplied, the origin otherwise. An absent or zero vertical coordinate
// rests the object on the floor plane at half its height.
func (r *resolution) placeRoot(n *node) {
	n.root = true
	r.stats.RootCount++

	hasPos := n.obj.Position != nil && n.obj.Position.Finite()
	if hasPos {
		n.pos = *n.obj.Position
	}
	if n.obj.Rotation != nil && n.obj.Rotation.Finite() {
		n.rot = *n.obj.Rotation
	}
	if r.opts.FloorFallback() && (!hasPos || n.pos.Y == 0) {
		n.pos.Y = n.size.H / 2
	}
}

// placeChild composes the child's transform from its parent's resolved
// transform: the named anchor offset when the catalog knows it, then the
// declared offset. Rotation composes additively per axis.
func (r *resolution) placeChild(n *node, parent *node) {
	base := parent.pos
	if n.obj.Anchor != "" && parent.hasDims {
		if off, ok := parent.dims.Anchor(n.obj.Anchor); ok {
			base = base.Add(off)
		}
	}
	if n.obj.Offset != nil && n.obj.Offset.Finite() {
		base = base.Add(*n.obj.Offset)
	}
	n.pos = base

	n.rot = parent.rot
	if n.obj.Rotation != nil && n.obj.Rotation.Finite() {
		n.rot = n.rot.Add(*n.obj.Rotation)
	}
}

// resolveSize picks the object's extent: explicit size, catalog metadata,
// then the default footprint. Catalog dimensions are kept either way so
// children can attach to named anchors.
func (r *resolution) resolveSize(ctx context.Context, obj scene.Object) (scene.Size, catalog.Dimensions, bool) {
	var dims catalog.Dimensions
	var hasDims bool
	if obj.Model != "" {
		dims, hasDims = r.opts.Catalog.Lookup(ctx, obj.Model)
	}

	if obj.Size != nil && obj.Size.Valid() {
		return *obj.Size, dims, hasDims
	}
	if hasDims {
		return dims.Size, dims, true
	}
	return r.opts.DefaultFootprint, dims, false
}

// snapAndClamp quantizes every placed position to the grid and clamps the
// horizontal axes into the room envelope. The vertical axis is never
// clamped; floor handling happened during placement and there is no
// ceiling clamp.
func (r *resolution) snapAndClamp() {
	for _, id := range r.order {
		n := r.index[id]
		n.pos.X = Snap(n.pos.X, r.opts.GridStep)
		n.pos.Y = Snap(n.pos.Y, r.opts.GridStep)
		n.pos.Z = Snap(n.pos.Z, r.opts.GridStep)
		r.clampNode(n, true)
	}
}

// clampNode clamps n's horizontal position. When warnOversized is set, an
// object wider than the room raises a single oversized-footprint warning;
// re-clamps during overlap mitigation pass false to avoid duplicates.
func (r *resolution) clampNode(n *node, warnOversized bool) {
	var oversizedX, oversizedZ bool
	n.pos.X, oversizedX = clampAxis(n.pos.X, n.size.W/2, r.room.HalfWidth())
	n.pos.Z, oversizedZ = clampAxis(n.pos.Z, n.size.D/2, r.room.HalfDepth())

	if warnOversized && (oversizedX || oversizedZ) {
		r.warn(scene.Warning{
			Code:     scene.WarnOversizedFootprint,
			ObjectID: n.obj.ID,
			Message: fmt.Sprintf("footprint %v × %v exceeds room %v × %v; centered",
				n.size.W, n.size.D, r.room.Width, r.room.Depth),
		})
	}
}

// mitigateOverlaps separates overlapping top-level footprints for a bounded
// number of passes. Parented objects move with their parents and are
// excluded so mitigation cannot fight the anchor graph.
func (r *resolution) mitigateOverlaps(ctx context.Context) {
	var roots []*node
	for _, id := range r.order {
		if n := r.index[id]; n.root {
			roots = append(roots, n)
		}
	}
	if len(roots) < 2 {
		return
	}

	for pass := 1; pass <= r.opts.OverlapPasses; pass++ {
		pairs := overlappingPairs(roots)
		observability.Resolve().OnOverlapPass(ctx, pass, len(pairs))
		if len(pairs) == 0 {
			break
		}
		r.stats.OverlapPassesRun = pass
		for _, p := range pairs {
			separate(p[0], p[1])
			r.clampNode(p[0], false)
			r.clampNode(p[1], false)
		}
	}

	for _, p := range overlappingPairs(roots) {
		r.warn(scene.Warning{
			Code:     scene.WarnUnresolvedOverlap,
			ObjectID: p[0].obj.ID,
			Other:    p[1].obj.ID,
			Message:  fmt.Sprintf("footprints still overlap after %d passes", r.opts.OverlapPasses),
		})
	}
}

// overlappingPairs returns the root pairs whose footprints overlap beyond
// the tolerance, in stable resolution order.
func overlappingPairs(roots []*node) [][2]*node {
	var pairs [][2]*node
	for i := 0; i < len(roots); i++ {
		for j := i + 1; j < len(roots); j++ {
			ox, oz := footprintOverlap(roots[i], roots[j])
			if ox > overlapEpsilon && oz > overlapEpsilon {
				pairs = append(pairs, [2]*node{roots[i], roots[j]})
			}
		}
	}
	return pairs
}

// footprintOverlap returns the per-axis penetration depth of two
// axis-aligned footprints. Both positive means the footprints intersect.
func footprintOverlap(a, b *node) (x, z float64) {
	x = a.size.W/2 + b.size.W/2 - math.Abs(a.pos.X-b.pos.X)
	z = a.size.D/2 + b.size.D/2 - math.Abs(a.pos.Z-b.pos.Z)
	return x, z
}

// separate pushes two overlapping objects apart along the axis with the
// smaller penetration: the minimum translation, split half/half between
// the pair. Coincident centers break the tie deterministically - the
// earlier object moves toward negative.
func separate(a, b *node) {
	ox, oz := footprintOverlap(a, b)
	if ox <= oz {
		shift := ox / 2
		if a.pos.X <= b.pos.X {
			a.pos.X -= shift
			b.pos.X += shift
		} else {
			a.pos.X += shift
			b.pos.X -= shift
		}
		return
	}
	shift := oz / 2
	if a.pos.Z <= b.pos.Z {
		a.pos.Z -= shift
		b.pos.Z += shift
	} else {
		a.pos.Z += shift
		b.pos.Z -= shift
	}
}

// assemble builds the resolved scene: placements in input order for every
// object that resolved, plus the accumulated warnings.
func (r *resolution) assemble() *scene.Resolved {
	resolved := &scene.Resolved{
		Room:     r.room,
		Warnings: r.warnings,
	}
	for _, obj := range r.objects {
		n := r.index[obj.ID]
		if !n.placed {
			continue
		}
		resolved.Placements = append(resolved.Placements, scene.Placement{
			ID:        obj.ID,
			Model:     obj.Model,
			Transform: scene.Transform{Position: n.pos, Rotation: n.rot},
			Size:      n.size,
			Meta:      obj.Meta,
		})
	}
	return resolved
}

func (r *resolution) warn(w scene.Warning) {
	r.warnings = append(r.warnings, w)
}
