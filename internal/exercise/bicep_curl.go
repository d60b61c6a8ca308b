package exercise

import (
	"math"

	"github.com/claude/formcoach/internal/pose"
)

// FeedbackSway is reported when the torso moves during a curl.
const FeedbackSway = "Avoid swinging your body. Keep your torso stable."

// curlAux remembers the shoulder height at the bottom of the curl.
type curlAux struct {
	baselineY   float64
	hasBaseline bool
}

// BicepCurlProcessor counts a rep on the up→down edge, i.e. after the
// weight is lowered again. Shoulder drift while the arms are up blocks the
// rep.
type BicepCurlProcessor struct {
	state
	th  BicepCurlThresholds
	aux curlAux
}

func NewBicepCurl(th BicepCurlThresholds) *BicepCurlProcessor {
	return &BicepCurlProcessor{
		state: state{stage: StageDown, feedback: "Start with your arms extended."},
		th:    th,
	}
}

func (p *BicepCurlProcessor) Kind() Kind { return KindBicepCurl }

func (p *BicepCurlProcessor) Process(f pose.Frame) Result {
	j, ok := f.Joints(
		pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist,
		pose.RightShoulder, pose.RightElbow, pose.RightWrist,
	)
	if !ok {
		return p.noPose()
	}

	leftElbow := angle(j[0], j[1], j[2])
	rightElbow := angle(j[3], j[4], j[5])
	shoulderY := pose.MidY(j[0], j[3])

	up := leftElbow < p.th.UpElbow && rightElbow < p.th.UpElbow
	down := leftElbow > p.th.DownElbow && rightElbow > p.th.DownElbow

	if p.stage == StageDown && down {
		p.aux = curlAux{baselineY: shoulderY, hasBaseline: true}
	}
	swaying := p.stage == StageUp && p.aux.hasBaseline &&
		math.Abs(shoulderY-p.aux.baselineY) > p.th.MaxShoulderDrift

	switch {
	case swaying:
		p.feedback = FeedbackSway
	case p.stage == StageDown && up:
		p.stage = StageUp
		p.feedback = "Now lower with control."
	case p.stage == StageUp && down:
		p.stage = StageDown
		p.reps++
		p.feedback = "Excellent curl!"
		p.aux = curlAux{}
	}

	if !swaying && p.stage == StageDown && leftElbow < p.th.PartialElbow {
		if leftElbow < p.th.SqueezeElbow {
			p.feedback = "Squeeze at the top."
		} else {
			p.feedback = "Curl higher."
		}
	}

	target, span := 170.0, 30.0
	if p.stage == StageUp {
		target, span = 40, 60
	}
	inst := 100 * (1 - (deviation(leftElbow, target, span)+deviation(rightElbow, target, span))/2)
	if swaying {
		inst *= 0.7
	}
	p.smooth(inst)

	return p.Snapshot()
}
