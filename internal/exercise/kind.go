package exercise

// Kind identifies one of the exercises the engine can track.
type Kind int

const (
	KindUnknown Kind = iota
	KindSquat
	KindLunge
	KindPushUp
	KindBicepCurl
	KindShoulderPress
	KindJumpingJack
	KindTricepDip
	KindMountainClimber
)

// Canonical exercise names, as stored in the exercise catalog.
const (
	NameSquat           = "Squat"
	NameLunge           = "Lunge"
	NamePushUp          = "Push-up"
	NameBicepCurl       = "Bicep Curl"
	NameShoulderPress   = "Shoulder Press"
	NameJumpingJack     = "Jumping Jack"
	NameTricepDip       = "Tricep Dip"
	NameMountainClimber = "Mountain Climber"
)

var kindNames = map[Kind]string{
	KindSquat:           NameSquat,
	KindLunge:           NameLunge,
	KindPushUp:          NamePushUp,
	KindBicepCurl:       NameBicepCurl,
	KindShoulderPress:   NameShoulderPress,
	KindJumpingJack:     NameJumpingJack,
	KindTricepDip:       NameTricepDip,
	KindMountainClimber: NameMountainClimber,
}

// String returns the canonical catalog name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// KindOf maps a canonical exercise name to its kind. The match is exact:
// callers are expected to canonicalize through the catalog first.
func KindOf(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// Stage is the discrete phase of a repetition cycle.
type Stage string

const (
	StageUp    Stage = "up"
	StageDown  Stage = "down"
	StageIn    Stage = "in"
	StageOut   Stage = "out"
	StageNone  Stage = "none"
	StageLeft  Stage = "left"
	StageRight Stage = "right"
)
