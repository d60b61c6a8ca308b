package storage

import "github.com/claude/formcoach/internal/models"

// DefaultExercises is the catalog a fresh database starts with.
var DefaultExercises = []models.ExerciseRow{
	{
		Name:        "Squat",
		Description: "A fundamental lower-body exercise that strengthens the quadriceps, glutes, and hamstrings.",
		Difficulty:  "Beginner",
		Muscles:     []string{"Quadriceps", "Glutes", "Hamstrings", "Calves"},
	},
	{
		Name:        "Push-up",
		Description: "A classic bodyweight exercise that builds upper-body strength in the chest, shoulders, and triceps.",
		Difficulty:  "Intermediate",
		Muscles:     []string{"Pectorals", "Deltoids", "Triceps", "Core"},
	},
	{
		Name:        "Lunge",
		Description: "A single-leg exercise that improves balance, stability, and strength in the legs and glutes.",
		Difficulty:  "Beginner",
		Muscles:     []string{"Quadriceps", "Glutes", "Hamstrings"},
	},
	{
		Name:        "Bicep Curl",
		Description: "An isolation exercise that targets the biceps by flexing the elbow to lift a weight towards the shoulder.",
		Difficulty:  "Beginner",
		Muscles:     []string{"Biceps", "Brachialis"},
	},
	{
		Name:        "Shoulder Press",
		Description: "An upper-body strength exercise that presses a weight overhead to develop the deltoids.",
		Difficulty:  "Intermediate",
		Muscles:     []string{"Deltoids", "Triceps", "Trapezius"},
	},
	{
		Name:        "Jumping Jack",
		Description: "A full-body cardio exercise: jump to a wide stance with the hands overhead, then back.",
		Difficulty:  "Beginner",
		Muscles:     []string{"Full Body", "Cardio"},
	},
	{
		Name:        "Tricep Dip",
		Description: "A bodyweight exercise that targets the triceps by lowering and raising the body on a bench or chair.",
		Difficulty:  "Intermediate",
		Muscles:     []string{"Triceps", "Pectorals", "Deltoids"},
	},
	{
		Name:        "Mountain Climber",
		Description: "A dynamic full-body exercise that mimics climbing and builds core strength and endurance.",
		Difficulty:  "Intermediate",
		Muscles:     []string{"Core", "Deltoids", "Glutes", "Cardio"},
	},
}
