package exercise

import (
	"math"

	"github.com/claude/formcoach/internal/pose"
)

func newFrame() pose.Frame {
	f := make(pose.Frame, pose.NumLandmarks)
	for i := range f {
		f[i] = &pose.Landmark{X: 0.5, Y: 0.5}
	}
	return f
}

func pt(x, y float64) *pose.Landmark { return &pose.Landmark{X: x, Y: y} }

// bend places a point at distance length from b so that the angle a-b-c is deg.
func bend(a, b *pose.Landmark, deg, length float64) *pose.Landmark {
	r := math.Atan2(a.Y-b.Y, a.X-b.X) + deg*math.Pi/180
	return pt(b.X+length*math.Cos(r), b.Y+length*math.Sin(r))
}

// legFrame builds a standing/squatting body with the given hip
// (shoulder-hip-knee) and knee (hip-knee-ankle) angles on both sides.
func legFrame(hipDeg, kneeDeg float64) pose.Frame {
	f := newFrame()
	for _, side := range []struct {
		x                          float64
		shoulder, hip, knee, ankle int
	}{
		{0.4, pose.LeftShoulder, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
		{0.6, pose.RightShoulder, pose.RightHip, pose.RightKnee, pose.RightAnkle},
	} {
		s := pt(side.x, 0.2)
		h := pt(side.x, 0.5)
		k := bend(s, h, hipDeg, 0.2)
		a := bend(h, k, kneeDeg, 0.2)
		f[side.shoulder], f[side.hip], f[side.knee], f[side.ankle] = s, h, k, a
	}
	return f
}

// armFrame builds both arms with the given shoulder (hip-shoulder-elbow)
// and elbow angles. shoulderY moves the whole upper body vertically.
func armFrame(shoulderDeg, elbowDeg, shoulderY float64) pose.Frame {
	f := newFrame()
	for _, side := range []struct {
		x                           float64
		hip, shoulder, elbow, wrist int
	}{
		{0.4, pose.LeftHip, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
		{0.6, pose.RightHip, pose.RightShoulder, pose.RightElbow, pose.RightWrist},
	} {
		h := pt(side.x, shoulderY+0.3)
		s := pt(side.x, shoulderY)
		e := bend(h, s, shoulderDeg, 0.15)
		w := bend(s, e, elbowDeg, 0.15)
		f[side.hip], f[side.shoulder], f[side.elbow], f[side.wrist] = h, s, e, w
	}
	return f
}
