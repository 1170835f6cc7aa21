// Package settings provides project file handling and persistence for
// calibration projects.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wallcal/internal/imaging"
	"wallcal/internal/separation"
	"wallcal/pkg/geometry"
)

// DefaultNumGreyPatches is the grey step count of the EOTF ramp.
const DefaultNumGreyPatches = 30

// DefaultTargetMaxLumNits is the assumed wall peak luminance when the
// project does not set one.
const DefaultTargetMaxLumNits = 1000.0

// DefaultPrimariesSaturation is the saturation the desaturated primary
// patches are played back at.
const DefaultPrimariesSaturation = 0.7

// LedWall holds the per-wall calibration configuration.
type LedWall struct {
	Name             string        `json:"name"`
	SequenceFolder   string        `json:"sequence_folder,omitempty"`
	NumGreyPatches   int           `json:"num_grey_patches"`
	InputPlateGamut  imaging.Space `json:"input_plate_gamut"`
	TargetMaxLumNits float64       `json:"target_max_lum_nits"`

	// PrimariesSaturation is the saturation of the desaturated primary
	// patches, passed through to the solver with the samples.
	PrimariesSaturation float64 `json:"primaries_saturation"`

	// ROI is the region of the plate covering the wall. Nil means the
	// region is detected automatically from the calibration patches.
	ROI *geometry.ROI `json:"roi,omitempty"`

	// ReferenceWall names another wall whose separation results this wall
	// reuses when MatchReferenceWall is set. Walls shot in the same take
	// share one temporal alignment.
	ReferenceWall      string `json:"reference_wall,omitempty"`
	MatchReferenceWall bool   `json:"match_reference_wall"`

	// Separation is runtime state filled in during processing.
	Separation *separation.Results `json:"-"`
}

// HasValidROI reports whether the wall carries a usable manual region.
func (w *LedWall) HasValidROI() bool {
	return w.ROI != nil && !w.ROI.Empty()
}

// Project is a calibration project file holding the shared reference space
// and the walls to process.
type Project struct {
	Version        int           `json:"version"`
	Name           string        `json:"name"`
	Created        time.Time     `json:"created"`
	Modified       time.Time     `json:"modified"`
	ReferenceGamut imaging.Space `json:"reference_gamut"`
	Walls          []*LedWall    `json:"led_walls"`
}

// New creates a project with default settings.
func New(name string) *Project {
	now := time.Now()
	return &Project{
		Version:        1,
		Name:           name,
		Created:        now,
		Modified:       now,
		ReferenceGamut: imaging.SpaceACES,
	}
}

// AddWall appends a wall with per-wall defaults applied.
func (p *Project) AddWall(name string) *LedWall {
	wall := &LedWall{
		Name:                name,
		NumGreyPatches:      DefaultNumGreyPatches,
		InputPlateGamut:     imaging.SpaceACES,
		TargetMaxLumNits:    DefaultTargetMaxLumNits,
		PrimariesSaturation: DefaultPrimariesSaturation,
	}
	p.Walls = append(p.Walls, wall)
	p.Modified = time.Now()
	return wall
}

// GetWall returns the wall with the given name, or nil.
func (p *Project) GetWall(name string) *LedWall {
	for _, wall := range p.Walls {
		if wall.Name == name {
			return wall
		}
	}
	return nil
}

// SequencePath returns the absolute path of a wall's plate sequence folder,
// resolving relative folders against the project file location.
func (p *Project) SequencePath(projectPath string, wall *LedWall) string {
	if wall.SequenceFolder == "" || filepath.IsAbs(wall.SequenceFolder) {
		return wall.SequenceFolder
	}
	return filepath.Join(filepath.Dir(projectPath), wall.SequenceFolder)
}

// WallsInProcessingOrder returns the walls sorted so every referenced wall
// precedes the walls that borrow its separation results. Reference cycles
// and dangling references are reported as errors.
func (p *Project) WallsInProcessingOrder() ([]*LedWall, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(p.Walls))
	ordered := make([]*LedWall, 0, len(p.Walls))

	var visit func(wall *LedWall) error
	visit = func(wall *LedWall) error {
		switch state[wall.Name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("reference wall cycle involving %q", wall.Name)
		}
		state[wall.Name] = visiting

		if wall.ReferenceWall != "" {
			ref := p.GetWall(wall.ReferenceWall)
			if ref == nil {
				return fmt.Errorf("wall %q references unknown wall %q", wall.Name, wall.ReferenceWall)
			}
			if err := visit(ref); err != nil {
				return err
			}
		}

		state[wall.Name] = done
		ordered = append(ordered, wall)
		return nil
	}

	for _, wall := range p.Walls {
		if err := visit(wall); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// Load loads a project from a JSON file, applying defaults to fields older
// files omit.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj Project
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	if proj.ReferenceGamut == "" {
		proj.ReferenceGamut = imaging.SpaceACES
	}
	for _, wall := range proj.Walls {
		if wall.NumGreyPatches == 0 {
			wall.NumGreyPatches = DefaultNumGreyPatches
		}
		if wall.InputPlateGamut == "" {
			wall.InputPlateGamut = imaging.SpaceACES
		}
		if wall.TargetMaxLumNits == 0 {
			wall.TargetMaxLumNits = DefaultTargetMaxLumNits
		}
		if wall.PrimariesSaturation == 0 {
			wall.PrimariesSaturation = DefaultPrimariesSaturation
		}
	}
	return &proj, nil
}

// Save saves the project to a file.
func (p *Project) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
