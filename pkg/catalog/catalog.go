// Package catalog provides spatial metadata lookup for model references:
// nominal width/depth/height plus named anchor points used to attach
// children during resolution.
//
// The resolution engine treats the catalog as a read-only collaborator with
// no failure mode beyond "not found" - an unknown reference falls back to
// the engine's default footprint rather than failing the layout. Backends:
//   - Static: immutable in-memory map, for tests and embedded catalogs
//   - TOML file (toml.go), for CLI usage
//   - MongoDB collection (mongo.go), for service deployments
//
// All backends must be safe for concurrent reads; resolution may run in
// parallel for independent layouts.
package catalog

import (
	"context"
	"sort"

	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// Dimensions is the spatial metadata for one model reference.
type Dimensions struct {
	// Size is the nominal footprint and height in meters.
	Size scene.Size

	// Anchors maps named local-space reference points to offsets from the
	// model's center. Children attached via a named anchor interpret their
	// offset relative to these points.
	Anchors map[string]scene.Vec3
}

// Anchor returns the named anchor offset and whether it exists.
func (d Dimensions) Anchor(name string) (scene.Vec3, bool) {
	v, ok := d.Anchors[name]
	return v, ok
}

// Catalog looks up spatial metadata by model reference.
type Catalog interface {
	// Lookup returns the dimensions for ref, or ok=false when the
	// reference is unknown. Implementations must be safe for concurrent
	// use and must not fail for reasons other than "not found".
	Lookup(ctx context.Context, ref string) (Dimensions, bool)
}

// Static is an immutable in-memory catalog. The map is not copied; callers
// must not mutate it after construction.
type Static struct {
	models map[string]Dimensions
}

// NewStatic creates a catalog from the given model map. A nil map yields an
// empty catalog where every lookup misses.
func NewStatic(models map[string]Dimensions) *Static {
	if models == nil {
		models = map[string]Dimensions{}
	}
	return &Static{models: models}
}

// Lookup implements Catalog.
func (s *Static) Lookup(_ context.Context, ref string) (Dimensions, bool) {
	d, ok := s.models[ref]
	return d, ok
}

// Len returns the number of models in the catalog.
func (s *Static) Len() int { return len(s.models) }

// Models returns the model references in sorted order.
func (s *Static) Models() []string {
	out := make([]string, 0, len(s.models))
	for name := range s.models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Empty is a catalog with no models; every lookup misses. Useful when the
// generator supplies explicit sizes for everything.
var Empty Catalog = NewStatic(nil)

// Ensure Static implements Catalog.
var _ Catalog = (*Static)(nil)
