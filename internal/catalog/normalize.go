package catalog

import (
	"strings"
	"unicode"
)

// synonyms maps normalized alternative spellings to canonical catalog names.
var synonyms = map[string]string{
	// Squat
	"squats":          "Squat",
	"airsquat":        "Squat",
	"bodyweightsquat": "Squat",

	// Lunge
	"lunges":       "Lunge",
	"forwardlunge": "Lunge",
	"walkinglunge": "Lunge",

	// Push-up
	"pushups":  "Push-up",
	"pressup":  "Push-up",
	"pressups": "Push-up",

	// Bicep Curl
	"bicepcurls":   "Bicep Curl",
	"bicepscurl":   "Bicep Curl",
	"curl":         "Bicep Curl",
	"curls":        "Bicep Curl",
	"dumbbellcurl": "Bicep Curl",

	// Shoulder Press
	"shoulderpresses": "Shoulder Press",
	"overheadpress":   "Shoulder Press",
	"militarypress":   "Shoulder Press",
	"ohp":             "Shoulder Press",

	// Jumping Jack
	"jumpingjacks": "Jumping Jack",
	"starjump":     "Jumping Jack",
	"starjumps":    "Jumping Jack",

	// Tricep Dip
	"tricepdips": "Tricep Dip",
	"tricepsdip": "Tricep Dip",
	"dip":        "Tricep Dip",
	"dips":       "Tricep Dip",
	"benchdip":   "Tricep Dip",

	// Mountain Climber
	"mountainclimbers": "Mountain Climber",
	"climber":          "Mountain Climber",
}

// Normalize folds an exercise name into its lookup key: lowercase letters
// and digits only. "Push-up", "push up" and "PUSHUP" share one key.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// key resolves synonyms on top of Normalize.
func key(name string) string {
	k := Normalize(name)
	if canonical, ok := synonyms[k]; ok {
		return Normalize(canonical)
	}
	return k
}
