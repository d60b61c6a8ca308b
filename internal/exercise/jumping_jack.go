package exercise

import (
	"math"

	"github.com/claude/formcoach/internal/pose"
)

// minSpan guards the ratio computations against a degenerate frame.
const minSpan = 0.001

// JumpingJackProcessor works on positions rather than angles: arms are
// judged against shoulders and hips, legs against the shoulder width.
type JumpingJackProcessor struct {
	state
	th JumpingJackThresholds
}

func NewJumpingJack(th JumpingJackThresholds) *JumpingJackProcessor {
	return &JumpingJackProcessor{
		state: state{stage: StageIn, feedback: "Start with your feet together and arms by your side."},
		th:    th,
	}
}

func (p *JumpingJackProcessor) Kind() Kind { return KindJumpingJack }

func (p *JumpingJackProcessor) Process(f pose.Frame) Result {
	j, ok := f.Joints(
		pose.LeftShoulder, pose.LeftWrist, pose.LeftHip, pose.LeftAnkle,
		pose.RightShoulder, pose.RightWrist, pose.RightHip, pose.RightAnkle,
	)
	if !ok {
		return p.noPose()
	}
	ls, lw, lh, la := j[0], j[1], j[2], j[3]
	rs, rw, rh, ra := j[4], j[5], j[6], j[7]

	shoulderWidth := math.Abs(ls.X - rs.X)
	spread := math.Abs(la.X - ra.X)

	armsUp := lw.Y < ls.Y && rw.Y < rs.Y
	armsDown := lw.Y > lh.Y && rw.Y > rh.Y
	legsOut := spread > shoulderWidth*p.th.OutSpread
	legsIn := spread < shoulderWidth*p.th.InSpread

	switch {
	case p.stage == StageIn && armsUp && legsOut:
		p.stage = StageOut
		p.feedback = "Good! Now back in."
	case p.stage == StageOut && armsDown && legsIn:
		p.stage = StageIn
		p.reps++
		p.feedback = "Nice rhythm!"
	}

	if p.stage == StageIn && (spread > shoulderWidth || lw.Y < rh.Y) {
		switch {
		case !armsUp && legsOut:
			p.feedback = "Bring your arms up!"
		case armsUp && !legsOut:
			p.feedback = "Jump your feet out!"
		}
	}

	torso := math.Max(minSpan, math.Abs((lh.Y+rh.Y)/2-(ls.Y+rs.Y)/2))
	var inst float64
	if p.stage == StageOut {
		raise := (math.Max(0, (ls.Y-lw.Y)/torso) + math.Max(0, (rs.Y-rw.Y)/torso)) / 2
		armScore := math.Min(1, raise)
		legScore := math.Min(1, spread/math.Max(minSpan, shoulderWidth*p.th.OutSpread))
		inst = 0.6*armScore + 0.4*legScore
	} else {
		armScore := clamp(((lw.Y-lh.Y)+(rw.Y-rh.Y))/(2*torso), 0, 1)
		inWidth := math.Max(minSpan, shoulderWidth*p.th.InSpread)
		legScore := clamp((inWidth-spread)/inWidth, 0, 1)
		inst = 0.6*armScore + 0.4*legScore
	}
	p.smooth(100 * inst)

	return p.Snapshot()
}
