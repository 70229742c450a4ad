package services

import "echelon-backend/internal/models"

const DefaultMode = "coach"

var systemPrompts = map[string]string{
	"coach":   "You are an inspiring life coach. Help users plan their day, set goals, and stay motivated. Be encouraging and positive.",
	"planner": "You are a strategic task planner. Help users organize tasks, prioritize goals, and create actionable plans. Be practical and specific.",
	"analyst": "You are a data analyst focused on productivity. Help users understand their habits, track progress, and optimize their routines. Use data-driven insights.",
}

// ResolveMode maps unknown or empty modes to the default.
func ResolveMode(mode string) string {
	if _, ok := systemPrompts[mode]; ok {
		return mode
	}
	return DefaultMode
}

func SystemPrompt(mode string) string {
	return systemPrompts[ResolveMode(mode)]
}

// Modes lists the supported assistant modes.
func Modes() []string {
	return []string{"coach", "planner", "analyst"}
}

// BuildPrompt returns [system] ++ history ++ [user message].
func BuildPrompt(mode string, history []models.ChatMessage, message string) []models.ChatMessage {
	prompt := make([]models.ChatMessage, 0, len(history)+2)
	prompt = append(prompt, models.ChatMessage{Role: models.RoleSystem, Content: SystemPrompt(mode)})
	prompt = append(prompt, history...)
	prompt = append(prompt, models.ChatMessage{Role: models.RoleUser, Content: message})
	return prompt
}
