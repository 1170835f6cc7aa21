package settings

import (
	"os"
	"path/filepath"
	"testing"

	"wallcal/internal/imaging"
	"wallcal/pkg/geometry"
)

func TestAddWallDefaults(t *testing.T) {
	project := New("stage_a")
	wall := project.AddWall("wall_main")

	if wall.NumGreyPatches != DefaultNumGreyPatches {
		t.Errorf("got %d grey patches, want %d", wall.NumGreyPatches, DefaultNumGreyPatches)
	}
	if wall.InputPlateGamut != imaging.SpaceACES {
		t.Errorf("got plate gamut %q, want %q", wall.InputPlateGamut, imaging.SpaceACES)
	}
	if wall.TargetMaxLumNits != DefaultTargetMaxLumNits {
		t.Errorf("got %v nits, want %v", wall.TargetMaxLumNits, DefaultTargetMaxLumNits)
	}
	if wall.PrimariesSaturation != DefaultPrimariesSaturation {
		t.Errorf("got saturation %v, want %v", wall.PrimariesSaturation, DefaultPrimariesSaturation)
	}
	if project.GetWall("wall_main") != wall {
		t.Error("GetWall did not return the added wall")
	}
	if project.GetWall("missing") != nil {
		t.Error("GetWall returned a wall for an unknown name")
	}
}

func TestHasValidROI(t *testing.T) {
	wall := &LedWall{}
	if wall.HasValidROI() {
		t.Error("nil ROI should not be valid")
	}
	wall.ROI = &geometry.ROI{}
	if wall.HasValidROI() {
		t.Error("empty ROI should not be valid")
	}
	inverted := geometry.NewROI(50, 10, 0, 63)
	wall.ROI = &inverted
	if wall.HasValidROI() {
		t.Error("inverted ROI should not be valid")
	}
	region := geometry.NewROI(10, 90, 10, 90)
	wall.ROI = &region
	if !wall.HasValidROI() {
		t.Error("non-empty ROI should be valid")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	project := New("stage_a")
	wall := project.AddWall("wall_main")
	wall.SequenceFolder = "plates/wall_main"
	wall.TargetMaxLumNits = 1500
	region := geometry.NewROI(100, 900, 50, 500)
	wall.ROI = &region

	path := filepath.Join(t.TempDir(), "project.json")
	if err := project.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "stage_a" || len(loaded.Walls) != 1 {
		t.Fatalf("loaded project %q with %d walls", loaded.Name, len(loaded.Walls))
	}

	got := loaded.Walls[0]
	if got.Name != "wall_main" || got.TargetMaxLumNits != 1500 {
		t.Errorf("wall round trip lost fields: %+v", got)
	}
	if got.ROI == nil || *got.ROI != region {
		t.Errorf("ROI round trip lost: %+v", got.ROI)
	}
	if got.Separation != nil {
		t.Error("runtime separation state should not persist")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	data := `{"name": "legacy", "led_walls": [{"name": "wall_a"}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	project, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if project.ReferenceGamut != imaging.SpaceACES {
		t.Errorf("got reference gamut %q, want %q", project.ReferenceGamut, imaging.SpaceACES)
	}

	wall := project.Walls[0]
	if wall.NumGreyPatches != DefaultNumGreyPatches {
		t.Errorf("got %d grey patches, want %d", wall.NumGreyPatches, DefaultNumGreyPatches)
	}
	if wall.InputPlateGamut != imaging.SpaceACES {
		t.Errorf("got plate gamut %q, want %q", wall.InputPlateGamut, imaging.SpaceACES)
	}
	if wall.TargetMaxLumNits != DefaultTargetMaxLumNits {
		t.Errorf("got %v nits, want %v", wall.TargetMaxLumNits, DefaultTargetMaxLumNits)
	}
	if wall.PrimariesSaturation != DefaultPrimariesSaturation {
		t.Errorf("got saturation %v, want %v", wall.PrimariesSaturation, DefaultPrimariesSaturation)
	}
}

func TestSequencePath(t *testing.T) {
	project := New("stage_a")
	wall := project.AddWall("wall_main")

	wall.SequenceFolder = "/abs/plates"
	if got := project.SequencePath("/proj/stage.json", wall); got != "/abs/plates" {
		t.Errorf("absolute folder changed: %q", got)
	}

	wall.SequenceFolder = "plates/main"
	want := filepath.Join("/proj", "plates/main")
	if got := project.SequencePath("/proj/stage.json", wall); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWallsInProcessingOrder(t *testing.T) {
	project := New("stage_a")
	b := project.AddWall("wall_b")
	a := project.AddWall("wall_a")
	c := project.AddWall("wall_c")

	b.ReferenceWall = "wall_a"
	b.MatchReferenceWall = true
	c.ReferenceWall = "wall_b"
	c.MatchReferenceWall = true
	_ = a

	ordered, err := project.WallsInProcessingOrder()
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}

	pos := map[string]int{}
	for i, wall := range ordered {
		pos[wall.Name] = i
	}
	if pos["wall_a"] > pos["wall_b"] || pos["wall_b"] > pos["wall_c"] {
		names := make([]string, len(ordered))
		for i, w := range ordered {
			names[i] = w.Name
		}
		t.Errorf("got order %v, want wall_a before wall_b before wall_c", names)
	}
}

func TestWallsInProcessingOrderCycle(t *testing.T) {
	project := New("stage_a")
	a := project.AddWall("wall_a")
	b := project.AddWall("wall_b")
	a.ReferenceWall = "wall_b"
	b.ReferenceWall = "wall_a"

	if _, err := project.WallsInProcessingOrder(); err == nil {
		t.Fatal("expected an error for a reference cycle")
	}
}

func TestWallsInProcessingOrderUnknownReference(t *testing.T) {
	project := New("stage_a")
	a := project.AddWall("wall_a")
	a.ReferenceWall = "missing"

	if _, err := project.WallsInProcessingOrder(); err == nil {
		t.Fatal("expected an error for an unknown reference wall")
	}
}
