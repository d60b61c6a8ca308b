package exercise

import (
	"math"

	"github.com/claude/formcoach/internal/pose"
)

type TricepDipProcessor struct {
	state
	th TricepDipThresholds
}

func NewTricepDip(th TricepDipThresholds) *TricepDipProcessor {
	return &TricepDipProcessor{
		state: state{stage: StageUp, feedback: "Start with your arms fully extended."},
		th:    th,
	}
}

func (p *TricepDipProcessor) Kind() Kind { return KindTricepDip }

func (p *TricepDipProcessor) Process(f pose.Frame) Result {
	j, ok := f.Joints(
		pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist,
		pose.RightShoulder, pose.RightElbow, pose.RightWrist,
	)
	if !ok {
		return p.noPose()
	}

	leftElbow := angle(j[0], j[1], j[2])
	rightElbow := angle(j[3], j[4], j[5])

	down := leftElbow < p.th.DownElbow && rightElbow < p.th.DownElbow
	up := leftElbow > p.th.UpElbow && rightElbow > p.th.UpElbow

	switch {
	case p.stage == StageUp && down:
		p.stage = StageDown
		p.feedback = "Now push up."
	case p.stage == StageDown && up:
		p.stage = StageUp
		p.reps++
		p.feedback = "Great rep!"
	}

	if p.stage == StageUp && leftElbow < p.th.PartialElbow {
		p.feedback = "Lower your body until your elbows hit 90 degrees."
	}

	target, span := 170.0, 30.0
	if p.stage == StageDown {
		target, span = 90, 45
	}
	elbowErr := math.Min(1, (math.Abs(leftElbow-target)+math.Abs(rightElbow-target))/2/span)
	p.smooth(100 * (1 - elbowErr))

	return p.Snapshot()
}
