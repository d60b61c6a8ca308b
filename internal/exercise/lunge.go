package exercise

import (
	"math"

	"github.com/claude/formcoach/internal/pose"
)

type lungeLeg int

const (
	legNone lungeLeg = iota
	legLeft
	legRight
)

// LungeProcessor tracks split-stance lunges from a side view. The leading
// leg is re-detected from the ankle offset while standing, so alternating
// lunges are handled.
type LungeProcessor struct {
	state
	th   LungeThresholds
	lead lungeLeg
}

func NewLunge(th LungeThresholds) *LungeProcessor {
	return &LungeProcessor{
		state: state{stage: StageUp, feedback: "Start your lunge."},
		th:    th,
	}
}

func (p *LungeProcessor) Kind() Kind { return KindLunge }

func (p *LungeProcessor) Process(f pose.Frame) Result {
	j, ok := f.Joints(
		pose.LeftShoulder, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle,
		pose.RightShoulder, pose.RightHip, pose.RightKnee, pose.RightAnkle,
	)
	if !ok {
		return p.noPose()
	}
	left, right := j[0:4], j[4:8]

	if p.stage == StageUp {
		// Smaller x is forward in the usual camera placement.
		switch {
		case math.Abs(left[3].X-right[3].X) <= p.th.StanceWidth:
			p.lead = legNone
		case left[3].X < right[3].X:
			p.lead = legLeft
		default:
			p.lead = legRight
		}
	}
	if p.lead == legNone {
		p.feedback = "Please step into a lunge position."
		return p.Snapshot()
	}

	front, back := left, right
	if p.lead == legRight {
		front, back = right, left
	}
	frontKnee := angle(front[1], front[2], front[3])
	backKnee := angle(back[1], back[2], back[3])
	torso := angle(back[0], back[1], back[2])

	inRange := func(a float64) bool { return a > p.th.DownKneeMin && a < p.th.DownKneeMax }
	down := inRange(frontKnee) && inRange(backKnee)
	up := frontKnee > p.th.UpKnee && backKnee > p.th.UpKnee
	upright := torso > p.th.MinTorso

	switch {
	case p.stage == StageDown && up:
		p.stage = StageUp
		p.reps++
		p.feedback = "Good rep!"
	case p.stage == StageUp && down:
		if upright {
			p.stage = StageDown
			p.feedback = "Now push back up."
		} else {
			p.feedback = "Keep your chest up!"
		}
	}

	if p.stage == StageUp && frontKnee < p.th.PartialKnee {
		switch {
		case front[2].X < front[3].X-p.th.KneeOverToe:
			p.feedback = "Don't let your front knee pass your toes."
		case !upright:
			p.feedback = "Keep your torso upright."
		default:
			p.feedback = "Lower your back knee."
		}
	}

	target, span := 170.0, 30.0
	if p.stage == StageDown {
		target, span = 90, 45
	}
	posture := 1.0
	if !upright {
		posture = 0.8
	}
	kneeErr := (deviation(frontKnee, target, span) + deviation(backKnee, target, span)) / 2
	p.smooth(100 * posture * (1 - kneeErr))

	return p.Snapshot()
}
