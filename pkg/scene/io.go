package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// =============================================================================
// Layout / Resolved Serialization API
// =============================================================================

// MarshalLayout converts a layout to indented JSON bytes.
func MarshalLayout(l *Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTo(l, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalResolved converts a resolved scene to indented JSON bytes.
func MarshalResolved(r *Resolved) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTo(r, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadLayoutFile reads a JSON file and returns the decoded layout.
func ReadLayoutFile(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}

// ReadLayout decodes a JSON layout from an io.Reader.
// Use ReadLayoutFile for files or pass bytes.NewReader for in-memory data.
func ReadLayout(r io.Reader) (*Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &l, nil
}

// ReadResolved decodes a JSON resolved scene from an io.Reader.
func ReadResolved(r io.Reader) (*Resolved, error) {
	var res Resolved
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &res, nil
}

// WriteResolved writes a resolved scene as JSON to an io.Writer.
func WriteResolved(res *Resolved, w io.Writer) error {
	return encodeTo(res, w)
}

// WriteResolvedFile writes a resolved scene to a JSON file.
// The file is created with 0644 permissions.
func WriteResolvedFile(res *Resolved, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return encodeTo(res, f)
}

// WriteLayout writes a layout as JSON to an io.Writer.
func WriteLayout(l *Layout, w io.Writer) error {
	return encodeTo(l, w)
}

// EnsureIDs assigns a fresh UUID to every object with an empty identifier.
// Generators occasionally omit IDs for decorative objects; resolution
// requires every object to be addressable.
func EnsureIDs(l *Layout) {
	for i := range l.Objects {
		if l.Objects[i].ID == "" {
			l.Objects[i].ID = uuid.NewString()
		}
	}
}

// =============================================================================
// Internal Implementation
// =============================================================================

func encodeTo(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
