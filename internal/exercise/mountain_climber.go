package exercise

import (
	"math"

	"github.com/claude/formcoach/internal/pose"
)

// FeedbackPlank is reported when the hips sag out of the plank.
const FeedbackPlank = "Keep your back straight!"

// climberAux tracks which legs have been credited for their current drive.
// A leg re-arms once its knee goes back behind the hip.
type climberAux struct {
	leftDriven  bool
	rightDriven bool
}

// MountainClimberProcessor counts every knee drive as one rep. The stage is
// the leg that was driven last, or none when both legs are back.
type MountainClimberProcessor struct {
	state
	th  MountainClimberThresholds
	aux climberAux
}

func NewMountainClimber(th MountainClimberThresholds) *MountainClimberProcessor {
	return &MountainClimberProcessor{
		state: state{stage: StageNone, feedback: "Get into a plank position to start."},
		th:    th,
	}
}

func (p *MountainClimberProcessor) Kind() Kind { return KindMountainClimber }

func (p *MountainClimberProcessor) Process(f pose.Frame) Result {
	j, ok := f.Joints(
		pose.LeftShoulder, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle,
		pose.RightShoulder, pose.RightHip, pose.RightKnee, pose.RightAnkle,
	)
	if !ok {
		return p.noPose()
	}
	ls, lh, lk, la := j[0], j[1], j[2], j[3]
	rs, rh, rk, ra := j[4], j[5], j[6], j[7]

	leftBody := angle(ls, lh, la)
	rightBody := angle(rs, rh, ra)

	plankErr := math.Min(1, (math.Abs(180-leftBody)+math.Abs(180-rightBody))/2/40)
	drive := func(hip, knee, ankle *pose.Landmark) float64 {
		reach := math.Max(minSpan, math.Abs(ankle.Y-hip.Y))
		return clamp((knee.Y-hip.Y)/reach, 0, 1)
	}
	driveScore := (drive(lh, lk, la) + drive(rh, rk, ra)) / 2
	p.smooth(100 * (1 - 0.5*plankErr) * (0.5 + 0.5*driveScore))

	// Only an extended leg has to hold the plank line.
	if (!p.aux.leftDriven && leftBody < p.th.MinPlank) || (!p.aux.rightDriven && rightBody < p.th.MinPlank) {
		p.feedback = FeedbackPlank
		return p.Snapshot()
	}

	leftForward := lk.Y > lh.Y
	rightForward := rk.Y > rh.Y
	if !leftForward {
		p.aux.leftDriven = false
	}
	if !rightForward {
		p.aux.rightDriven = false
	}

	switch {
	case leftForward && !p.aux.leftDriven:
		p.aux.leftDriven = true
		p.stage = StageLeft
		p.reps++
		p.feedback = "Good pace!"
	case rightForward && !p.aux.rightDriven:
		p.aux.rightDriven = true
		p.stage = StageRight
		p.reps++
		p.feedback = "Keep it up!"
	case !leftForward && !rightForward:
		p.stage = StageNone
	}

	return p.Snapshot()
}
