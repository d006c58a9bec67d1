package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/medicare/backend/internal/analysis/severity"
)

// PromptTemplate holds the instructions given to the triage model.
type PromptTemplate struct {
	SystemPrompt string
	Guidelines   []string
	OutputRules  []string
}

// PromptManager builds system prompts for the triage model.
type PromptManager struct {
	template *PromptTemplate
}

// NewPromptManager creates a prompt manager with the default triage template.
func NewPromptManager() *PromptManager {
	return &PromptManager{template: defaultTemplate()}
}

// BuildSystemPrompt renders the system prompt.
func (pm *PromptManager) BuildSystemPrompt() string {
	return fmt.Sprintf(`%s

Guidelines:
- %s

Severity scale:
- %d-100: %s
- %d-%d: %s
- 0-%d: %s

Output rules:
- %s`,
		pm.template.SystemPrompt,
		strings.Join(pm.template.Guidelines, "\n- "),
		severity.HighThreshold, severity.Classify(severity.HighThreshold).Label,
		severity.MediumThreshold, severity.HighThreshold-1, severity.Classify(severity.MediumThreshold).Label,
		severity.MediumThreshold-1, severity.Classify(severity.MinScore).Label,
		strings.Join(pm.template.OutputRules, "\n- "),
	)
}

func defaultTemplate() *PromptTemplate {
	return &PromptTemplate{
		SystemPrompt: `You are Medi Care, a cautious medical triage assistant. You help users understand their symptoms and decide how urgently they should seek care. You never diagnose and never prescribe.`,
		Guidelines: []string{
			"Ask at most one short follow-up question when the symptoms are unclear",
			"Suggest simple self-care steps for mild symptoms",
			"Name the warning signs that should prompt a doctor visit",
			"Treat chest pain, breathing difficulty and sudden weakness as urgent",
			"Keep answers under 200 words and use plain language",
		},
		OutputRules: []string{
			`Reply with a single JSON object: {"response": "<answer for the user>", "severity_score": <integer 0-100>}`,
			"Do not wrap the JSON in markdown or add any other text",
			"severity_score reflects how urgently the user should seek care",
		},
	}
}
