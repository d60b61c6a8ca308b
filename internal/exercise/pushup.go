package exercise

import (
	"math"

	"github.com/claude/formcoach/internal/pose"
)

// PushUpProcessor starts in the plank (up) position. A sagging body line
// blocks every transition until it is fixed.
type PushUpProcessor struct {
	state
	th PushUpThresholds
}

func NewPushUp(th PushUpThresholds) *PushUpProcessor {
	return &PushUpProcessor{
		state: state{stage: StageUp, feedback: "Get into a plank position to start."},
		th:    th,
	}
}

func (p *PushUpProcessor) Kind() Kind { return KindPushUp }

func (p *PushUpProcessor) Process(f pose.Frame) Result {
	j, ok := f.Joints(
		pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip, pose.LeftAnkle,
		pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip, pose.RightAnkle,
	)
	if !ok {
		return p.noPose()
	}

	leftElbow := angle(j[0], j[1], j[2])
	rightElbow := angle(j[5], j[6], j[7])
	leftBody := angle(j[0], j[3], j[4])
	rightBody := angle(j[5], j[8], j[9])

	straight := leftBody > p.th.MinBodyLine && rightBody > p.th.MinBodyLine
	down := leftElbow < p.th.DownElbow && rightElbow < p.th.DownElbow
	up := leftElbow > p.th.UpElbow && rightElbow > p.th.UpElbow

	switch {
	case !straight:
		p.feedback = "Straighten your back! Don't let your hips sag."
	case p.stage == StageUp && down:
		p.stage = StageDown
		p.feedback = "Now push up."
	case p.stage == StageDown && up:
		p.stage = StageUp
		p.reps++
		p.feedback = "Great rep!"
	case p.stage == StageUp && leftElbow < p.th.PartialElbow:
		p.feedback = "Go lower."
	}

	target, span := 170.0, 30.0
	if p.stage == StageDown {
		target, span = 90, 60
	}
	elbowErr := math.Min(1, (math.Abs(leftElbow-target)+math.Abs(rightElbow-target))/2/span)
	bodyErr := math.Min(1, (math.Abs(180-leftBody)+math.Abs(180-rightBody))/2/40)
	p.smooth(100 * (1 - (0.6*elbowErr + 0.4*bodyErr)))

	return p.Snapshot()
}
