// Package exercise implements the per-exercise repetition state machines.
//
// Every processor consumes one pose.Frame at a time and returns the running
// rep count, the current stage, an EMA-smoothed form score and a short
// coaching message. Processors are not safe for concurrent use; the session
// layer serializes frames per session.
package exercise

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/claude/formcoach/internal/pose"
)

// FeedbackNoPose is returned for frames without a usable landmark set.
const FeedbackNoPose = "Pose data not found."

// emaWeight is the share of the previous score kept on every frame.
const emaWeight = 0.8

// ErrUnknownKind is returned by New for kinds without a processor.
var ErrUnknownKind = errors.New("no processor for exercise kind")

// Result is the per-frame output of a processor.
type Result struct {
	RepCount int    `json:"repCount"`
	Feedback string `json:"feedback"`
	Stage    Stage  `json:"stage"`
	Score    int    `json:"score"`
}

// Processor is the contract shared by all exercise state machines.
type Processor interface {
	Kind() Kind
	// Process advances the state machine by one frame. Incomplete frames
	// leave the state untouched.
	Process(f pose.Frame) Result
	// Snapshot returns the current state without consuming a frame.
	Snapshot() Result
}

// Factory builds a fresh processor from the engine thresholds.
type Factory func(th Thresholds) Processor

var factories = map[Kind]Factory{
	KindSquat:           func(th Thresholds) Processor { return NewSquat(th.Squat) },
	KindLunge:           func(th Thresholds) Processor { return NewLunge(th.Lunge) },
	KindPushUp:          func(th Thresholds) Processor { return NewPushUp(th.PushUp) },
	KindBicepCurl:       func(th Thresholds) Processor { return NewBicepCurl(th.BicepCurl) },
	KindShoulderPress:   func(th Thresholds) Processor { return NewShoulderPress(th.ShoulderPress) },
	KindJumpingJack:     func(th Thresholds) Processor { return NewJumpingJack(th.JumpingJack) },
	KindTricepDip:       func(th Thresholds) Processor { return NewTricepDip(th.TricepDip) },
	KindMountainClimber: func(th Thresholds) Processor { return NewMountainClimber(th.MountainClimber) },
}

// New returns a fresh processor for the given kind.
func New(k Kind, th Thresholds) (Processor, error) {
	f, ok := factories[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
	return f(th), nil
}

// Lookup returns the factory registered for a canonical exercise name.
func Lookup(name string) (Factory, bool) {
	k, ok := KindOf(name)
	if !ok {
		return nil, false
	}
	f, ok := factories[k]
	return f, ok
}

// Supported lists the canonical names of all exercises with a processor.
func Supported() []string {
	names := make([]string, 0, len(factories))
	for k := range factories {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return names
}

// state is the bookkeeping every processor embeds.
type state struct {
	stage    Stage
	reps     int
	feedback string
	ema      float64
}

func (s *state) Snapshot() Result {
	return Result{
		RepCount: s.reps,
		Feedback: s.feedback,
		Stage:    s.stage,
		Score:    roundScore(s.ema),
	}
}

// noPose reports the current state for an unusable frame without touching it.
func (s *state) noPose() Result {
	r := s.Snapshot()
	r.Feedback = FeedbackNoPose
	return r
}

// smooth folds an instantaneous score into the running EMA.
func (s *state) smooth(inst float64) {
	s.ema = smoothScore(s.ema, inst)
}

func smoothScore(prev, inst float64) float64 {
	if math.IsNaN(inst) {
		inst = 0
	}
	return clamp(emaWeight*prev+(1-emaWeight)*clamp(inst, 0, 100), 0, 100)
}

func roundScore(v float64) int {
	return int(math.Round(clamp(v, 0, 100)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// deviation is the normalized distance of angle from target, capped at 1.
func deviation(angle, target, span float64) float64 {
	return math.Min(1, math.Abs(angle-target)/span)
}

// angle is pose.Angle for joints already checked by Frame.Joints.
func angle(a, b, c *pose.Landmark) float64 {
	deg, _ := pose.Angle(a, b, c)
	return deg
}
