package resolve

import "time"

// Stats captures measurements from one resolution pass.
type Stats struct {
	// ObjectCount is the number of objects in the input layout, including
	// duplicates and cycle members.
	ObjectCount int `json:"object_count"`

	// PlacedCount is the number of objects that resolved to a placement.
	PlacedCount int `json:"placed_count"`

	// RootCount is the number of top-level objects, dangling parents
	// included.
	RootCount int `json:"root_count"`

	// OverlapPassesRun is the number of mitigation passes that actually
	// moved objects. Zero when no footprints overlapped.
	OverlapPassesRun int `json:"overlap_passes_run"`

	// Stage durations.
	GraphTime    time.Duration `json:"graph_time"`
	PlaceTime    time.Duration `json:"place_time"`
	MitigateTime time.Duration `json:"mitigate_time"`
}

// CacheInfo reports how the cache participated in a Runner execution.
type CacheInfo struct {
	// Hit is true when the resolved scene came from the cache.
	Hit bool `json:"hit"`

	// Key is the content-addressed cache key for this layout and options.
	Key string `json:"key"`
}
