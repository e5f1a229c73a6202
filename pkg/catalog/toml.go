package catalog

import (
	"github.com/BurntSushi/toml"

	"github.com/stagehand-dev/stagehand/pkg/errors"
	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// tomlFile mirrors the on-disk catalog format:
//
//	[models.sofa]
//	width = 2.0
//	depth = 0.9
//	height = 0.8
//
//	[models.sofa.anchors]
//	seat = { x = 0.0, y = 0.45, z = 0.0 }
type tomlFile struct {
	Models map[string]tomlModel `toml:"models"`
}

type tomlModel struct {
	Width   float64             `toml:"width"`
	Depth   float64             `toml:"depth"`
	Height  float64             `toml:"height"`
	Anchors map[string]tomlVec3 `toml:"anchors"`
}

type tomlVec3 struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	Z float64 `toml:"z"`
}

// LoadFile reads a TOML catalog file into a Static catalog.
// Models with non-positive dimensions are rejected so a malformed catalog
// cannot inject degenerate geometry into resolutions.
func LoadFile(path string) (*Static, error) {
	var file tomlFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalog, err, "load catalog %s", path)
	}
	return fromTOML(file)
}

// Parse reads a TOML catalog from a string. Primarily for tests and
// embedded catalogs.
func Parse(data string) (*Static, error) {
	var file tomlFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalog, err, "parse catalog")
	}
	return fromTOML(file)
}

func fromTOML(file tomlFile) (*Static, error) {
	models := make(map[string]Dimensions, len(file.Models))
	for name, m := range file.Models {
		size := scene.Size{W: m.Width, D: m.Depth, H: m.Height}
		if !size.Valid() {
			return nil, errors.New(errors.ErrCodeCatalog,
				"model %q has non-positive dimensions %v×%v×%v", name, m.Width, m.Depth, m.Height)
		}
		dims := Dimensions{Size: size}
		if len(m.Anchors) > 0 {
			dims.Anchors = make(map[string]scene.Vec3, len(m.Anchors))
			for anchorName, v := range m.Anchors {
				dims.Anchors[anchorName] = scene.Vec3{X: v.X, Y: v.Y, Z: v.Z}
			}
		}
		models[name] = dims
	}
	return NewStatic(models), nil
}
