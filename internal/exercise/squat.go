package exercise

import "github.com/claude/formcoach/internal/pose"

// SquatProcessor counts a rep on the down→up edge. Entering the down stage
// requires knee depth on both sides and a hip angle that shows the chest is
// up.
type SquatProcessor struct {
	state
	th SquatThresholds
}

func NewSquat(th SquatThresholds) *SquatProcessor {
	return &SquatProcessor{
		state: state{stage: StageUp, feedback: "Start your squat."},
		th:    th,
	}
}

func (p *SquatProcessor) Kind() Kind { return KindSquat }

func (p *SquatProcessor) Process(f pose.Frame) Result {
	j, ok := f.Joints(
		pose.LeftShoulder, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle,
		pose.RightShoulder, pose.RightHip, pose.RightKnee, pose.RightAnkle,
	)
	if !ok {
		return p.noPose()
	}

	leftKnee := angle(j[1], j[2], j[3])
	rightKnee := angle(j[5], j[6], j[7])
	leftHip := angle(j[0], j[1], j[2])
	rightHip := angle(j[4], j[5], j[6])

	deep := leftKnee < p.th.DownKnee && rightKnee < p.th.DownKnee
	backStraight := leftHip > p.th.MinHip && rightHip > p.th.MinHip
	standing := leftKnee > p.th.UpKnee && rightKnee > p.th.UpKnee

	switch {
	case p.stage == StageDown && standing:
		p.stage = StageUp
		p.reps++
		p.feedback = "Great rep!"
	case p.stage == StageUp && deep && backStraight:
		p.stage = StageDown
		p.feedback = "Now go up."
	}

	switch {
	case p.stage == StageDown && !backStraight:
		p.feedback = "Keep your chest up and back straight!"
	case p.stage == StageUp && !deep && (leftKnee < p.th.PartialKnee || rightKnee < p.th.PartialKnee):
		p.feedback = "Go lower!"
	}

	target, span := 170.0, 30.0
	if p.stage == StageDown {
		target, span = 90, 60
	}
	back := 1.0
	if (leftHip+rightHip)/2 <= p.th.UprightHip {
		back = 0.7
	}
	kneeErr := (deviation(leftKnee, target, span) + deviation(rightKnee, target, span)) / 2
	p.smooth(100 * back * (1 - kneeErr))

	return p.Snapshot()
}
