package exercise

import (
	"math"

	"github.com/claude/formcoach/internal/pose"
)

// ShoulderPressProcessor starts with the weights at shoulder level and
// counts a rep once they come back down after a full lockout.
type ShoulderPressProcessor struct {
	state
	th ShoulderPressThresholds
}

func NewShoulderPress(th ShoulderPressThresholds) *ShoulderPressProcessor {
	return &ShoulderPressProcessor{
		state: state{stage: StageDown, feedback: "Start with weights at shoulder level."},
		th:    th,
	}
}

func (p *ShoulderPressProcessor) Kind() Kind { return KindShoulderPress }

func (p *ShoulderPressProcessor) Process(f pose.Frame) Result {
	j, ok := f.Joints(
		pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip,
		pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip,
	)
	if !ok {
		return p.noPose()
	}
	ls, le, lw, lh := j[0], j[1], j[2], j[3]
	rs, re, rw, rh := j[4], j[5], j[6], j[7]

	leftElbow := angle(ls, le, lw)
	rightElbow := angle(rs, re, rw)
	leftShoulder := angle(lh, ls, le)
	rightShoulder := angle(rh, rs, re)

	up := leftElbow > p.th.UpElbow && rightElbow > p.th.UpElbow &&
		leftShoulder > p.th.UpShoulder && rightShoulder > p.th.UpShoulder
	// Y grows downward, so "below the shoulder" is a larger y.
	down := leftElbow < p.th.DownElbow && rightElbow < p.th.DownElbow &&
		le.Y > ls.Y && re.Y > rs.Y

	switch {
	case p.stage == StageDown && up:
		p.stage = StageUp
		p.feedback = "Lower the weight with control."
	case p.stage == StageUp && down:
		p.stage = StageDown
		p.reps++
		p.feedback = "Great press!"
	}

	switch {
	case p.stage == StageDown && leftShoulder > p.th.PartialShoulder:
		p.feedback = "Press all the way up."
	case p.stage == StageUp && leftElbow < p.th.PartialElbow:
		p.feedback = "Lower until your elbows are below your shoulders."
	}

	elbowTarget, shoulderTarget, span := 90.0, 90.0, 45.0
	if p.stage == StageUp {
		elbowTarget, shoulderTarget, span = 175, 170, 25
	}
	elbowErr := math.Min(1, (math.Abs(leftElbow-elbowTarget)+math.Abs(rightElbow-elbowTarget))/2/span)
	shoulderErr := math.Min(1, (math.Abs(leftShoulder-shoulderTarget)+math.Abs(rightShoulder-shoulderTarget))/2/span)
	p.smooth(100 * (1 - (0.7*elbowErr + 0.3*shoulderErr)))

	return p.Snapshot()
}
