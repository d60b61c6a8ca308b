// Package pose holds the landmark frame model and the joint geometry shared
// by every exercise processor.
package pose

import "math"

// Landmark indices of the 33-point body model. Only the joints used by the
// exercise processors are named.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28

	NumLandmarks = 33
)

// Landmark is one normalized body joint position. X and Y are in [0,1]
// relative to the camera frame, Y grows downward.
type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z,omitempty"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// Frame is one video frame worth of landmarks. A JSON null entry decodes to
// a nil landmark.
type Frame []*Landmark

// Complete reports whether the frame carries the full landmark set.
func (f Frame) Complete() bool {
	return len(f) >= NumLandmarks
}

// Joints returns the landmarks at the given indices. ok is false when the
// frame is incomplete or any requested landmark is missing.
func (f Frame) Joints(idx ...int) (joints []*Landmark, ok bool) {
	if !f.Complete() {
		return nil, false
	}
	joints = make([]*Landmark, len(idx))
	for i, j := range idx {
		if j < 0 || j >= len(f) || f[j] == nil {
			return nil, false
		}
		joints[i] = f[j]
	}
	return joints, true
}

// Angle returns the interior angle in degrees at vertex b between the
// segments b→a and b→c, in [0,180]. ok is false if any point is nil.
func Angle(a, b, c *Landmark) (deg float64, ok bool) {
	if a == nil || b == nil || c == nil {
		return 0, false
	}
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	deg = math.Abs(radians * 180.0 / math.Pi)
	if deg > 180.0 {
		deg = 360.0 - deg
	}
	return deg, true
}

// MidY is the mean vertical position of two landmarks.
func MidY(a, b *Landmark) float64 {
	return (a.Y + b.Y) / 2
}
