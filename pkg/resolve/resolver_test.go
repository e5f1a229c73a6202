package resolve

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stagehand-dev/stagehand/pkg/catalog"
	"github.com/stagehand-dev/stagehand/pkg/errors"
	"github.com/stagehand-dev/stagehand/pkg/scene"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testRoom() scene.Room {
	return scene.Room{Width: 4, Depth: 3.5, Height: 2.7}
}

func size(w, d, h float64) *scene.Size {
	return &scene.Size{W: w, D: d, H: h}
}

func vec(x, y, z float64) *scene.Vec3 {
	return &scene.Vec3{X: x, Y: y, Z: z}
}

func mustResolve(t *testing.T, layout *scene.Layout, opts Options) *scene.Resolved {
	t.Helper()
	resolved, err := Resolve(context.Background(), layout, opts)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return resolved
}

func mustPlacement(t *testing.T, resolved *scene.Resolved, id string) scene.Placement {
	t.Helper()
	p, ok := resolved.Placement(id)
	if !ok {
		t.Fatalf("no placement for %q", id)
	}
	return p
}

func TestResolveRejectsInvalidRoom(t *testing.T) {
	rooms := []scene.Room{
		{Width: 0, Depth: 3, Height: 2.5},
		{Width: 4, Depth: -1, Height: 2.5},
		{Width: 4, Depth: 3, Height: math.NaN()},
		{Width: math.Inf(1), Depth: 3, Height: 2.5},
	}
	for _, room := range rooms {
		_, err := Resolve(context.Background(), &scene.Layout{Room: room}, Options{})
		if err == nil {
			t.Errorf("room %+v: expected error", room)
			continue
		}
		if errors.GetCode(err) != errors.ErrCodeInvalidRoom {
			t.Errorf("room %+v: code = %v, want %v", room, errors.GetCode(err), errors.ErrCodeInvalidRoom)
		}
	}
}

func TestResolveRejectsNilLayout(t *testing.T) {
	if _, err := Resolve(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil layout")
	}
}

func TestResolveEmptyLayout(t *testing.T) {
	resolved := mustResolve(t, &scene.Layout{Room: testRoom()}, Options{})
	if len(resolved.Placements) != 0 {
		t.Errorf("expected no placements, got %d", len(resolved.Placements))
	}
	if len(resolved.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", resolved.Warnings)
	}
}

func TestResolveFloorResting(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "crate", Size: size(1, 1, 1)},
		},
	}
	p := mustPlacement(t, mustResolve(t, layout, Options{}), "crate")
	if !approx(p.Transform.Position.Y, 0.5) {
		t.Errorf("y = %v, want 0.5 (resting on floor)", p.Transform.Position.Y)
	}
}

func TestResolveExplicitZeroYRestsOnFloor(t *testing.T) {
	// An out-of-bounds position is clamped and a zero vertical coordinate
	// still rests the object on the floor.
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "sofa", Size: size(1, 1, 1), Position: vec(10, 0, 0)},
		},
	}
	p := mustPlacement(t, mustResolve(t, layout, Options{}), "sofa")
	if !approx(p.Transform.Position.X, 1.5) {
		t.Errorf("x = %v, want 1.5 (clamped to room)", p.Transform.Position.X)
	}
	if !approx(p.Transform.Position.Y, 0.5) {
		t.Errorf("y = %v, want 0.5", p.Transform.Position.Y)
	}
}

func TestResolveSkipFloorFallback(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "crate", Size: size(1, 1, 1)},
		},
	}
	p := mustPlacement(t, mustResolve(t, layout, Options{SkipFloorFallback: true}), "crate")
	if p.Transform.Position.Y != 0 {
		t.Errorf("y = %v, want 0 with floor fallback disabled", p.Transform.Position.Y)
	}
}

func TestResolveExplicitYIsKept(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "shelf", Size: size(1, 0.3, 0.4), Position: vec(0, 1.8, -1.5)},
		},
	}
	p := mustPlacement(t, mustResolve(t, layout, Options{}), "shelf")
	if !approx(p.Transform.Position.Y, 1.8) {
		t.Errorf("y = %v, want 1.8 (explicit height kept)", p.Transform.Position.Y)
	}
}

func TestResolveSnapsPositions(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "a", Size: size(0.5, 0.5, 0.5), Position: vec(0.73, 0.25, -0.31)},
		},
	}
	p := mustPlacement(t, mustResolve(t, layout, Options{}), "a")
	if !approx(p.Transform.Position.X, 0.7) {
		t.Errorf("x = %v, want 0.7", p.Transform.Position.X)
	}
	if !approx(p.Transform.Position.Z, -0.3) {
		t.Errorf("z = %v, want -0.3", p.Transform.Position.Z)
	}
}

func TestResolveRotationsNeverSnapped(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "chair", Size: size(0.5, 0.5, 0.9), Rotation: vec(0, 37.5, 0)},
		},
	}
	p := mustPlacement(t, mustResolve(t, layout, Options{}), "chair")
	if !approx(p.Transform.Rotation.Y, 37.5) {
		t.Errorf("rotation y = %v, want 37.5 untouched", p.Transform.Rotation.Y)
	}
}

func TestResolveOversizedFootprintCenters(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "rug", Size: size(10, 1, 0.02), Position: vec(3, 0, 0)},
		},
	}
	resolved := mustResolve(t, layout, Options{})
	p := mustPlacement(t, resolved, "rug")
	if p.Transform.Position.X != 0 {
		t.Errorf("x = %v, want 0 (centered)", p.Transform.Position.X)
	}
	if ws := scene.FilterWarnings(resolved.Warnings, scene.WarnOversizedFootprint); len(ws) != 1 {
		t.Errorf("oversized warnings = %d, want 1", len(ws))
	}
}

func TestResolveChildComposition(t *testing.T) {
	cat := catalog.NewStatic(map[string]catalog.Dimensions{
		"table": {
			Size:    scene.Size{W: 1.2, D: 0.8, H: 0.8},
			Anchors: map[string]scene.Vec3{"top": {Y: 0.8}},
		},
	})
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "table", Model: "table"},
			{ID: "lamp", Parent: "table", Anchor: "top", Offset: vec(0.2, 0, 0), Size: size(0.2, 0.2, 0.4)},
		},
	}
	resolved := mustResolve(t, layout, Options{Catalog: cat})

	table := mustPlacement(t, resolved, "table")
	if !approx(table.Transform.Position.Y, 0.4) {
		t.Errorf("table y = %v, want 0.4 (half catalog height)", table.Transform.Position.Y)
	}

	lamp := mustPlacement(t, resolved, "lamp")
	// table center y (0.4) + top anchor (0.8) = 1.2, offset x 0.2.
	if !approx(lamp.Transform.Position.Y, 1.2) {
		t.Errorf("lamp y = %v, want 1.2", lamp.Transform.Position.Y)
	}
	if !approx(lamp.Transform.Position.X, 0.2) {
		t.Errorf("lamp x = %v, want 0.2", lamp.Transform.Position.X)
	}
}

func TestResolveChildRotationComposesAdditively(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "desk", Size: size(1.4, 0.7, 0.75), Rotation: vec(0, 90, 0)},
			{ID: "monitor", Parent: "desk", Size: size(0.5, 0.2, 0.4), Rotation: vec(0, -15, 0)},
		},
	}
	p := mustPlacement(t, mustResolve(t, layout, Options{}), "monitor")
	if !approx(p.Transform.Rotation.Y, 75) {
		t.Errorf("rotation y = %v, want 75 (90 + -15)", p.Transform.Rotation.Y)
	}
}

func TestResolveDanglingParentBecomesRoot(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "vase", Parent: "ghost", Size: size(0.2, 0.2, 0.4), Position: vec(1, 0, 1)},
		},
	}
	resolved := mustResolve(t, layout, Options{})
	p := mustPlacement(t, resolved, "vase")
	if !approx(p.Transform.Position.X, 1) || !approx(p.Transform.Position.Z, 1) {
		t.Errorf("position = %+v, want explicit (1, _, 1) kept", p.Transform.Position)
	}
	if !approx(p.Transform.Position.Y, 0.2) {
		t.Errorf("y = %v, want 0.2 (floor rested)", p.Transform.Position.Y)
	}
	if ws := scene.FilterWarnings(resolved.Warnings, scene.WarnDanglingParent); len(ws) != 1 || ws[0].ObjectID != "vase" {
		t.Errorf("dangling warnings = %v, want one for vase", ws)
	}
}

func TestResolveCycleMembersOmitted(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "a", Parent: "b", Size: size(0.5, 0.5, 0.5)},
			{ID: "b", Parent: "a", Size: size(0.5, 0.5, 0.5)},
			{ID: "c", Parent: "a", Size: size(0.5, 0.5, 0.5)},
			{ID: "free", Size: size(0.5, 0.5, 0.5)},
		},
	}
	resolved := mustResolve(t, layout, Options{})

	for _, id := range []string{"a", "b", "c"} {
		if _, ok := resolved.Placement(id); ok {
			t.Errorf("%q should not be placed", id)
		}
	}
	if _, ok := resolved.Placement("free"); !ok {
		t.Error("unrelated object should still resolve")
	}
	if ws := scene.FilterWarnings(resolved.Warnings, scene.WarnCyclicReference); len(ws) != 3 {
		t.Errorf("cyclic warnings = %d, want 3 (members plus descendant)", len(ws))
	}
}

func TestResolveSelfReferenceIsCycle(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "ouroboros", Parent: "ouroboros"},
		},
	}
	resolved := mustResolve(t, layout, Options{})
	if len(resolved.Placements) != 0 {
		t.Errorf("expected no placements, got %d", len(resolved.Placements))
	}
	if ws := scene.FilterWarnings(resolved.Warnings, scene.WarnCyclicReference); len(ws) != 1 {
		t.Errorf("cyclic warnings = %d, want 1", len(ws))
	}
}

func TestResolveDuplicateIDDropped(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "twin", Size: size(0.5, 0.5, 0.5), Position: vec(1, 0, 0)},
			{ID: "twin", Size: size(0.5, 0.5, 0.5), Position: vec(-1, 0, 0)},
		},
	}
	resolved := mustResolve(t, layout, Options{})
	if len(resolved.Placements) != 1 {
		t.Fatalf("placements = %d, want 1", len(resolved.Placements))
	}
	p := resolved.Placements[0]
	if !approx(p.Transform.Position.X, 1) {
		t.Errorf("x = %v, want 1 (earlier occurrence wins)", p.Transform.Position.X)
	}
	if ws := scene.FilterWarnings(resolved.Warnings, scene.WarnDuplicateID); len(ws) != 1 {
		t.Errorf("duplicate warnings = %d, want 1", len(ws))
	}
}

func TestResolveEmptyIDAssigned(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{Size: size(0.5, 0.5, 0.5)},
		},
	}
	resolved := mustResolve(t, layout, Options{})
	if len(resolved.Placements) != 1 {
		t.Fatalf("placements = %d, want 1", len(resolved.Placements))
	}
	if resolved.Placements[0].ID == "" {
		t.Error("placement should carry a generated identifier")
	}
}

func TestResolveOverlapSeparation(t *testing.T) {
	layout := &scene.Layout{
		Room: scene.Room{Width: 6, Depth: 6, Height: 2.7},
		Objects: []scene.Object{
			{ID: "a", Size: size(1, 1, 1)},
			{ID: "b", Size: size(1, 1, 1)},
		},
	}
	resolved := mustResolve(t, layout, Options{})

	a := mustPlacement(t, resolved, "a")
	b := mustPlacement(t, resolved, "b")
	gap := math.Abs(a.Transform.Position.X - b.Transform.Position.X)
	if gap < 1-1e-9 {
		t.Errorf("centers %v apart on x, want at least 1 (touching)", gap)
	}
	if ws := scene.FilterWarnings(resolved.Warnings, scene.WarnUnresolvedOverlap); len(ws) != 0 {
		t.Errorf("unexpected unresolved overlap warnings: %v", ws)
	}
}

func TestResolveOverlapResidualWarning(t *testing.T) {
	// Two unit footprints can never coexist in a 1.5m room: clamping keeps
	// their centers within 0.5m of each other. Mitigation must terminate at
	// the pass cap and report the pair.
	layout := &scene.Layout{
		Room: scene.Room{Width: 1.5, Depth: 1.5, Height: 2.7},
		Objects: []scene.Object{
			{ID: "a", Size: size(1, 1, 1)},
			{ID: "b", Size: size(1, 1, 1)},
		},
	}
	resolved := mustResolve(t, layout, Options{})

	ws := scene.FilterWarnings(resolved.Warnings, scene.WarnUnresolvedOverlap)
	if len(ws) != 1 {
		t.Fatalf("unresolved overlap warnings = %d, want 1", len(ws))
	}
	if ws[0].ObjectID != "a" || ws[0].Other != "b" {
		t.Errorf("warning pair = (%s, %s), want (a, b)", ws[0].ObjectID, ws[0].Other)
	}

	// Mitigation must not push objects out of the room.
	for _, id := range []string{"a", "b"} {
		p := mustPlacement(t, resolved, id)
		if math.Abs(p.Transform.Position.X) > 0.25+1e-9 {
			t.Errorf("%s x = %v, outside clamped range", id, p.Transform.Position.X)
		}
	}
}

func TestResolveChildrenExcludedFromMitigation(t *testing.T) {
	layout := &scene.Layout{
		Room: scene.Room{Width: 6, Depth: 6, Height: 2.7},
		Objects: []scene.Object{
			{ID: "table", Size: size(1, 1, 0.8), Position: vec(0, 0.4, 0)},
			{ID: "book", Parent: "table", Offset: vec(0, 0.5, 0), Size: size(2, 2, 0.05)},
			{ID: "chair", Size: size(1, 1, 0.9), Position: vec(1.8, 0, 0)},
		},
	}
	resolved := mustResolve(t, layout, Options{})
	book := mustPlacement(t, resolved, "book")
	// The book's footprint overlaps the chair, but parented objects never
	// move during mitigation.
	if !approx(book.Transform.Position.X, 0) {
		t.Errorf("book x = %v, want 0 (children are not mitigated)", book.Transform.Position.X)
	}
}

func TestResolveDeterministic(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "a", Size: size(1, 1, 1), Position: vec(0.33, 0, 0.41)},
			{ID: "b", Size: size(1, 1, 1), Position: vec(0.35, 0, 0.39)},
			{ID: "c", Parent: "a", Offset: vec(0, 0.5, 0), Size: size(0.2, 0.2, 0.2)},
		},
	}
	first := mustResolve(t, layout, Options{})
	second := mustResolve(t, layout, Options{})

	fj, err := scene.MarshalResolved(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	sj, err := scene.MarshalResolved(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(fj, sj) {
		t.Error("identical inputs produced different resolved scenes")
	}
}

func TestResolveStats(t *testing.T) {
	layout := &scene.Layout{
		Room: testRoom(),
		Objects: []scene.Object{
			{ID: "a", Size: size(0.5, 0.5, 0.5), Position: vec(-1, 0, 0)},
			{ID: "b", Size: size(0.5, 0.5, 0.5), Position: vec(1, 0, 0)},
			{ID: "c", Parent: "a", Size: size(0.2, 0.2, 0.2)},
		},
	}
	_, stats, err := ResolveWithStats(context.Background(), layout, Options{})
	if err != nil {
		t.Fatalf("ResolveWithStats failed: %v", err)
	}
	if stats.ObjectCount != 3 {
		t.Errorf("ObjectCount = %d, want 3", stats.ObjectCount)
	}
	if stats.PlacedCount != 3 {
		t.Errorf("PlacedCount = %d, want 3", stats.PlacedCount)
	}
	if stats.RootCount != 2 {
		t.Errorf("RootCount = %d, want 2", stats.RootCount)
	}
	if stats.OverlapPassesRun != 0 {
		t.Errorf("OverlapPassesRun = %d, want 0", stats.OverlapPassesRun)
	}
}

func TestOptionsValidation(t *testing.T) {
	t.Run("negative grid step rejected", func(t *testing.T) {
		opts := Options{GridStep: -0.1}
		if err := opts.ValidateAndSetDefaults(); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("negative passes rejected", func(t *testing.T) {
		opts := Options{OverlapPasses: -1}
		if err := opts.ValidateAndSetDefaults(); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("zero values get defaults", func(t *testing.T) {
		opts := Options{}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.GridStep != DefaultGridStep {
			t.Errorf("GridStep = %v, want %v", opts.GridStep, DefaultGridStep)
		}
		if opts.OverlapPasses != DefaultOverlapPasses {
			t.Errorf("OverlapPasses = %d, want %d", opts.OverlapPasses, DefaultOverlapPasses)
		}
	})
	t.Run("passes capped", func(t *testing.T) {
		opts := Options{OverlapPasses: 10_000}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.OverlapPasses != MaxOverlapPasses {
			t.Errorf("OverlapPasses = %d, want %d", opts.OverlapPasses, MaxOverlapPasses)
		}
	})
}
