package storage

import "math"

// DefaultMET is used for exercises missing from the MET table.
const DefaultMET = 5.0

// mets holds approximate metabolic equivalents per catalog exercise.
var mets = map[string]float64{
	"Squat":            5.0,
	"Lunge":            5.0,
	"Push-up":          8.0,
	"Bicep Curl":       3.8,
	"Shoulder Press":   3.8,
	"Jumping Jack":     8.0,
	"Tricep Dip":       6.0,
	"Mountain Climber": 8.0,
}

// EstimateCalories applies MET × 3.5 × kg / 200 per minute, rounded to one
// decimal.
func EstimateCalories(exercise string, minutes, weightKg float64) float64 {
	if minutes <= 0 || weightKg <= 0 {
		return 0
	}
	met, ok := mets[exercise]
	if !ok {
		met = DefaultMET
	}
	return math.Round(met*3.5*weightKg/200*minutes*10) / 10
}
