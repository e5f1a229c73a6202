package scene

import "fmt"

// WarningCode classifies a non-fatal anomaly recorded during resolution.
type WarningCode string

const (
	// WarnCyclicReference marks an object that is part of a parent cycle,
	// or whose ancestor chain passes through one. The object fails
	// resolution; the rest of the layout still resolves.
	WarnCyclicReference WarningCode = "CYCLIC_REFERENCE"

	// WarnDanglingParent marks an object whose parent does not exist in
	// the layout. The object is placed as a root instead.
	WarnDanglingParent WarningCode = "DANGLING_PARENT"

	// WarnUnresolvedOverlap marks a pair of top-level objects whose
	// footprints still overlap after the mitigation pass cap.
	WarnUnresolvedOverlap WarningCode = "UNRESOLVED_OVERLAP"

	// WarnDuplicateID marks an object dropped because an earlier object
	// in the layout already claimed its identifier.
	WarnDuplicateID WarningCode = "DUPLICATE_ID"

	// WarnOversizedFootprint marks an object whose footprint exceeds the
	// room on at least one horizontal axis. It is centered on that axis.
	WarnOversizedFootprint WarningCode = "OVERSIZED_FOOTPRINT"
)

// Warning records one non-fatal anomaly. ObjectID names the object the
// warning is attached to; Other names the second object for pairwise
// conditions such as unresolved overlaps.
type Warning struct {
	Code     WarningCode `json:"code"`
	ObjectID string      `json:"object_id"`
	Other    string      `json:"other,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// String formats the warning for logs and CLI output.
func (w Warning) String() string {
	switch {
	case w.Other != "":
		return fmt.Sprintf("%s: %s ↔ %s: %s", w.Code, w.ObjectID, w.Other, w.Message)
	case w.Message != "":
		return fmt.Sprintf("%s: %s: %s", w.Code, w.ObjectID, w.Message)
	default:
		return fmt.Sprintf("%s: %s", w.Code, w.ObjectID)
	}
}

// FilterWarnings returns the warnings matching the given code.
func FilterWarnings(warnings []Warning, code WarningCode) []Warning {
	var out []Warning
	for _, w := range warnings {
		if w.Code == code {
			out = append(out, w)
		}
	}
	return out
}
