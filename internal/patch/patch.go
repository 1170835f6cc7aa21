// Package patch defines the fixed order of calibration patches played back
// on the LED wall. A patch's position in this order, scaled by the detected
// frame separation, determines where its frames fall in the recorded
// sequence.
package patch

// Name identifies a calibration patch.
type Name string

const (
	Slate                   Name = "Slate"
	RedPrimaryDesaturated   Name = "Red_Primary_Desaturated"
	GreenPrimaryDesaturated Name = "Green_Primary_Desaturated"
	BluePrimaryDesaturated  Name = "Blue_Primary_Desaturated"
	Grey18Percent           Name = "Grey_18_Percent"
	RedPrimary              Name = "Red_Primary"
	GreenPrimary            Name = "Green_Primary"
	BluePrimary             Name = "Blue_Primary"
	MaxWhite                Name = "White"
	Macbeth                 Name = "Macbeth"
	SaturationRamp          Name = "Saturation_Ramp"
	DistortAndROI           Name = "Distort_and_Roi"
	FlatField               Name = "Flat_Field"
	EOTFRamps               Name = "EOTF_Ramps"
	EndSlate                Name = "End_Slate"
)

var order = []Name{
	Slate,
	RedPrimaryDesaturated,
	GreenPrimaryDesaturated,
	BluePrimaryDesaturated,
	Grey18Percent,
	RedPrimary,
	GreenPrimary,
	BluePrimary,
	MaxWhite,
	Macbeth,
	SaturationRamp,
	DistortAndROI,
	FlatField,
	EOTFRamps,
	EndSlate,
}

// Order returns the playback order of the calibration patches.
func Order() []Name {
	out := make([]Name, len(order))
	copy(out, order)
	return out
}

// Index returns the position of a patch in the playback order, or -1 for an
// unknown patch.
func Index(name Name) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}
