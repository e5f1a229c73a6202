package resolve

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/stagehand-dev/stagehand/pkg/cache"
	"github.com/stagehand-dev/stagehand/pkg/catalog"
	"github.com/stagehand-dev/stagehand/pkg/errors"
	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Library
// =============================================================================

const (
	// DefaultGridStep is the grid resolution positions snap to, in meters.
	DefaultGridStep = 0.1

	// DefaultOverlapPasses caps the overlap mitigation loop. Residual
	// overlaps after the cap become warnings, never more iterations.
	DefaultOverlapPasses = 4

	// MaxOverlapPasses bounds caller-supplied pass counts so a hostile
	// request cannot turn mitigation into a long-running loop.
	MaxOverlapPasses = 64
)

// DefaultFootprint is the fallback extent for objects with no usable size:
// no explicit size, and no catalog entry for their model reference.
var DefaultFootprint = scene.Size{W: 0.8, D: 0.8, H: 1.0}

// Options configures one resolution pass. The zero value resolves with all
// defaults, no catalog, and a discarded logger; pass Options by value so
// concurrent resolutions stay independent.
//
// This struct supports JSON serialization for API requests.
type Options struct {
	// GridStep is the snap resolution in meters. Zero means DefaultGridStep.
	GridStep float64 `json:"grid_step,omitempty"`

	// OverlapPasses caps overlap mitigation iterations. Zero means
	// DefaultOverlapPasses.
	OverlapPasses int `json:"overlap_passes,omitempty"`

	// DefaultFootprint overrides the fallback object extent. Zero value
	// means the package-level DefaultFootprint.
	DefaultFootprint scene.Size `json:"default_footprint,omitempty"`

	// SkipFloorFallback disables resting unparented objects on the floor
	// plane (default: false = objects without a vertical position rest at
	// half their height).
	SkipFloorFallback bool `json:"skip_floor_fallback,omitempty"`

	// Runtime options (not serialized)
	Catalog catalog.Catalog `json:"-"`
	Logger  *log.Logger     `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks option ranges and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.GridStep < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "grid step must not be negative, got %v", o.GridStep)
	}
	if o.GridStep == 0 {
		o.GridStep = DefaultGridStep
	}
	if o.OverlapPasses < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "overlap passes must not be negative, got %d", o.OverlapPasses)
	}
	if o.OverlapPasses == 0 {
		o.OverlapPasses = DefaultOverlapPasses
	}
	if o.OverlapPasses > MaxOverlapPasses {
		o.OverlapPasses = MaxOverlapPasses
	}
	if !o.DefaultFootprint.Valid() {
		o.DefaultFootprint = DefaultFootprint
	}
	if o.Catalog == nil {
		o.Catalog = catalog.Empty
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// FloorFallback reports whether unparented objects without a vertical
// position should rest on the floor plane.
func (o *Options) FloorFallback() bool { return !o.SkipFloorFallback }

// SceneKeyOpts returns the cache key options for this resolution, covering
// every option that changes the resolved output.
func (o *Options) SceneKeyOpts() cache.SceneKeyOpts {
	return cache.SceneKeyOpts{
		GridStep:      o.GridStep,
		OverlapPasses: o.OverlapPasses,
		FootprintW:    o.DefaultFootprint.W,
		FootprintD:    o.DefaultFootprint.D,
		FootprintH:    o.DefaultFootprint.H,
		FloorFallback: o.FloorFallback(),
	}
}
