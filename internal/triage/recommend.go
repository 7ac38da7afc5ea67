package triage

// Tier is the escalation level of a recommendation.
type Tier string

const (
	TierSelfCare    Tier = "self-care"
	TierTeleconsult Tier = "teleconsult"
	TierUrgent      Tier = "urgent"
)

type Recommendation struct {
	Tier        Tier     `json:"level"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

// Recommend picks the tier. A red flag always means urgent; high severity or
// a duration over three days means teleconsult; anything else is self-care.
// category does not influence the tier, it only routes facility ranking.
func Recommend(severity int, duration Duration, redFlag bool, category Category) Recommendation {
	if redFlag {
		return Recommendation{
			Tier:        TierUrgent,
			Title:       "Emergency Attention Required",
			Description: "A serious symptom pattern was detected.",
			Actions: []string{
				"Go to the nearest emergency hospital",
				"Call 108 immediately",
			},
		}
	}

	if severity >= 8 || duration == DurationMoreThanThreeDays {
		return Recommendation{
			Tier:        TierTeleconsult,
			Title:       "Doctor Consultation Recommended",
			Description: "Medical evaluation within 24 hours is advised.",
			Actions: []string{
				"Avoid self-medication",
				"Monitor symptoms closely",
			},
		}
	}

	return Recommendation{
		Tier:        TierSelfCare,
		Title:       "Self-Care Suggested",
		Description: "Your symptoms appear manageable at home.",
		Actions: []string{
			"Get adequate rest",
			"Stay hydrated",
			"Monitor for worsening",
		},
	}
}
