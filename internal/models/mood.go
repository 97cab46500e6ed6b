package models

// Mood labels the extractor may return.
var MoodLabels = []string{
	"happy",
	"sad",
	"anxious",
	"stressed",
	"neutral",
	"angry",
	"tired",
	"depressed",
	"hopeful",
}

// MaxHabits caps the number of habit suggestions attached to a response.
const MaxHabits = 3

// Habit is one actionable suggestion.
type Habit struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MoodAnalysis is attached to a chat response when extraction succeeded.
// It is never persisted.
type MoodAnalysis struct {
	Mood   string  `json:"mood"`
	Habits []Habit `json:"habits"`
}

// IsMoodLabel reports whether label belongs to the closed mood set.
func IsMoodLabel(label string) bool {
	for _, m := range MoodLabels {
		if m == label {
			return true
		}
	}
	return false
}
