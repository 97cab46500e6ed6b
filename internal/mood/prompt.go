package mood

import (
	"fmt"
	"strings"

	"wellness-backend/internal/models"
)

// Instruction is the system instruction for the structured extraction model.
const Instruction = `You analyse short messages written to a mental-wellness companion.
You answer with a single JSON object and nothing else.`

// BuildPrompt asks for the mood label and up to MaxHabits habit suggestions.
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Classify the emotional tone of the message below and suggest small, actionable habits.

Return JSON with exactly this shape:
{"mood": "<one of: %s>", "habits": [{"title": "<short title>", "description": "<one sentence>"}]}

Rules:
- "mood" must be one of the listed labels, lowercase.
- "habits" has at most %d items; use an empty list if nothing fits.

Message:
"""
%s
"""`, strings.Join(models.MoodLabels, ", "), models.MaxHabits, text)
}
