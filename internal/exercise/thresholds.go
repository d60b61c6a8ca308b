package exercise

import (
	"fmt"

	"go.uber.org/multierr"
)

// Thresholds holds the tunable angle and distance gates of every processor.
// Angles are in degrees, distances in normalized frame units.
type Thresholds struct {
	Squat           SquatThresholds           `yaml:"squat"`
	Lunge           LungeThresholds           `yaml:"lunge"`
	PushUp          PushUpThresholds          `yaml:"push_up"`
	BicepCurl       BicepCurlThresholds       `yaml:"bicep_curl"`
	ShoulderPress   ShoulderPressThresholds   `yaml:"shoulder_press"`
	JumpingJack     JumpingJackThresholds     `yaml:"jumping_jack"`
	TricepDip       TricepDipThresholds       `yaml:"tricep_dip"`
	MountainClimber MountainClimberThresholds `yaml:"mountain_climber"`
}

type SquatThresholds struct {
	DownKnee    float64 `yaml:"down_knee"`
	UpKnee      float64 `yaml:"up_knee"`
	MinHip      float64 `yaml:"min_hip"`
	PartialKnee float64 `yaml:"partial_knee"`
	UprightHip  float64 `yaml:"upright_hip"`
}

type LungeThresholds struct {
	DownKneeMin float64 `yaml:"down_knee_min"`
	DownKneeMax float64 `yaml:"down_knee_max"`
	UpKnee      float64 `yaml:"up_knee"`
	MinTorso    float64 `yaml:"min_torso"`
	PartialKnee float64 `yaml:"partial_knee"`
	StanceWidth float64 `yaml:"stance_width"`
	KneeOverToe float64 `yaml:"knee_over_toe"`
}

type PushUpThresholds struct {
	DownElbow    float64 `yaml:"down_elbow"`
	UpElbow      float64 `yaml:"up_elbow"`
	MinBodyLine  float64 `yaml:"min_body_line"`
	PartialElbow float64 `yaml:"partial_elbow"`
}

type BicepCurlThresholds struct {
	UpElbow          float64 `yaml:"up_elbow"`
	DownElbow        float64 `yaml:"down_elbow"`
	MaxShoulderDrift float64 `yaml:"max_shoulder_drift"`
	PartialElbow     float64 `yaml:"partial_elbow"`
	SqueezeElbow     float64 `yaml:"squeeze_elbow"`
}

type ShoulderPressThresholds struct {
	UpElbow         float64 `yaml:"up_elbow"`
	UpShoulder      float64 `yaml:"up_shoulder"`
	DownElbow       float64 `yaml:"down_elbow"`
	PartialShoulder float64 `yaml:"partial_shoulder"`
	PartialElbow    float64 `yaml:"partial_elbow"`
}

// JumpingJackThresholds are ratios of ankle spread to shoulder width.
type JumpingJackThresholds struct {
	OutSpread float64 `yaml:"out_spread"`
	InSpread  float64 `yaml:"in_spread"`
}

type TricepDipThresholds struct {
	DownElbow    float64 `yaml:"down_elbow"`
	UpElbow      float64 `yaml:"up_elbow"`
	PartialElbow float64 `yaml:"partial_elbow"`
}

type MountainClimberThresholds struct {
	MinPlank float64 `yaml:"min_plank"`
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Squat: SquatThresholds{
			DownKnee:    100,
			UpKnee:      160,
			MinHip:      80,
			PartialKnee: 150,
			UprightHip:  100,
		},
		Lunge: LungeThresholds{
			DownKneeMin: 80,
			DownKneeMax: 110,
			UpKnee:      160,
			MinTorso:    150,
			PartialKnee: 150,
			StanceWidth: 0.1,
			KneeOverToe: 0.05,
		},
		PushUp: PushUpThresholds{
			DownElbow:    100,
			UpElbow:      160,
			MinBodyLine:  160,
			PartialElbow: 150,
		},
		BicepCurl: BicepCurlThresholds{
			UpElbow:          50,
			DownElbow:        160,
			MaxShoulderDrift: 0.05,
			PartialElbow:     150,
			SqueezeElbow:     70,
		},
		ShoulderPress: ShoulderPressThresholds{
			UpElbow:         160,
			UpShoulder:      160,
			DownElbow:       100,
			PartialShoulder: 100,
			PartialElbow:    150,
		},
		JumpingJack: JumpingJackThresholds{
			OutSpread: 1.5,
			InSpread:  0.8,
		},
		TricepDip: TricepDipThresholds{
			DownElbow:    100,
			UpElbow:      160,
			PartialElbow: 150,
		},
		MountainClimber: MountainClimberThresholds{
			MinPlank: 150,
		},
	}
}

// Validate checks that every hysteresis pair keeps its enter and exit
// thresholds apart, so no processor can oscillate on a single angle.
func (t Thresholds) Validate() (err error) {
	check := func(name string, lo, hi float64) {
		if !(lo < hi) {
			err = multierr.Append(err, fmt.Errorf("%s: %v must be below %v", name, lo, hi))
		}
	}
	check("squat.down_knee/up_knee", t.Squat.DownKnee, t.Squat.UpKnee)
	check("lunge.down_knee_min/down_knee_max", t.Lunge.DownKneeMin, t.Lunge.DownKneeMax)
	check("lunge.down_knee_max/up_knee", t.Lunge.DownKneeMax, t.Lunge.UpKnee)
	check("push_up.down_elbow/up_elbow", t.PushUp.DownElbow, t.PushUp.UpElbow)
	check("bicep_curl.up_elbow/down_elbow", t.BicepCurl.UpElbow, t.BicepCurl.DownElbow)
	check("shoulder_press.down_elbow/up_elbow", t.ShoulderPress.DownElbow, t.ShoulderPress.UpElbow)
	check("jumping_jack.in_spread/out_spread", t.JumpingJack.InSpread, t.JumpingJack.OutSpread)
	check("tricep_dip.down_elbow/up_elbow", t.TricepDip.DownElbow, t.TricepDip.UpElbow)
	if t.BicepCurl.MaxShoulderDrift <= 0 {
		err = multierr.Append(err, fmt.Errorf("bicep_curl.max_shoulder_drift must be positive"))
	}
	if t.MountainClimber.MinPlank <= 0 || t.MountainClimber.MinPlank > 180 {
		err = multierr.Append(err, fmt.Errorf("mountain_climber.min_plank must be in (0,180]"))
	}
	return err
}
