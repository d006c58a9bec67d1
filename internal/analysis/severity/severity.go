package severity

import "fmt"

// Tier is the discrete urgency bucket shown next to a bot reply.
type Tier string

const (
	Low    Tier = "Low"
	Medium Tier = "Medium"
	High   Tier = "High"
)

// Score boundaries of the canonical three-tier scheme.
const (
	MediumThreshold = 40
	HighThreshold   = 70

	MinScore = 0
	MaxScore = 100
)

var labels = map[Tier]string{
	High:   "Seek immediate medical attention",
	Medium: "Consider seeing a doctor",
	Low:    "Monitor symptoms",
}

// Assessment is the presentation of a triage score.
type Assessment struct {
	Score int    `json:"score"`
	Tier  Tier   `json:"tier"`
	Label string `json:"label"`
}

// Clamp pins a score into [MinScore, MaxScore].
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Classify maps a score to its tier and label. Out-of-range scores are clamped first.
func Classify(score int) Assessment {
	score = Clamp(score)

	tier := Low
	switch {
	case score >= HighThreshold:
		tier = High
	case score >= MediumThreshold:
		tier = Medium
	}

	return Assessment{Score: score, Tier: tier, Label: labels[tier]}
}

// Display renders the indicator line, e.g. "Severity: 85/100 - High - Seek immediate medical attention".
func (a Assessment) Display() string {
	return fmt.Sprintf("Severity: %d/%d - %s - %s", a.Score, MaxScore, a.Tier, a.Label)
}

// Class is the css-style class name UIs use for the tier.
func (a Assessment) Class() string {
	switch a.Tier {
	case High:
		return "severity-high"
	case Medium:
		return "severity-medium"
	default:
		return "severity-low"
	}
}
