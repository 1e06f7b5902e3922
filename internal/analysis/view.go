package analysis

import "docassist-web/internal/summary"

// Risk level labels derived when the payload carries none.
const (
	RiskLevelHigh   = "Высокий"
	RiskLevelMedium = "Средний"
	RiskLevelLow    = "Низкий"
)

// View is everything the detail page renders for one analysis.
type View struct {
	Opinion     *Opinion     `json:"opinion,omitempty"`
	LegalErrors []LegalError `json:"legalErrors"`
	Risks       []Risk       `json:"risks"`
	// Recommendations falls back to entries synthesized from next steps
	// when no recommendation survives filtering.
	Recommendations []Recommendation `json:"recommendations"`
	// NextSteps is empty when it was used as the recommendations fallback.
	NextSteps  []Step        `json:"nextSteps"`
	Compliance *Compliance   `json:"compliance,omitempty"`
	Summary    summary.Panel `json:"summary"`
}

// Normalize builds the render model for p. A nil payload yields an empty view.
func Normalize(p Payload) View {
	var v View
	if op, ok := NormalizeOpinion(ParseOpinion(get(p, "expertOpinion", "opinion"))); ok {
		v.Opinion = &op
	}
	v.LegalErrors = NormalizeLegalErrors(get(p, "legalErrors", "errors"))
	v.Risks = NormalizeRisks(get(p, "risks"))
	v.Recommendations = NormalizeRecommendations(get(p, "recommendations"))

	next := NormalizeSteps(get(p, "nextSteps"))
	if len(v.Recommendations) == 0 {
		for i, s := range next {
			v.Recommendations = append(v.Recommendations, RecommendationFromStep(s, i))
		}
	} else {
		v.NextSteps = next
	}

	if c, ok := NormalizeCompliance(get(p, "compliance")); ok {
		v.Compliance = &c
	}
	v.Summary = summarize(p, v)
	return v
}

// Recommendation returns the rendered recommendation with id.
func (v View) Recommendation(id string) (Recommendation, bool) {
	for _, r := range v.Recommendations {
		if r.ID == id {
			return r, true
		}
	}
	return Recommendation{}, false
}

// Empty reports whether there is nothing to render.
func (v View) Empty() bool {
	return v.Opinion == nil && len(v.LegalErrors) == 0 && len(v.Risks) == 0 &&
		len(v.Recommendations) == 0 && len(v.NextSteps) == 0 && v.Compliance == nil
}

// summarize counts legal errors and risks by severity; critical and high both
// count as critical.
func summarize(p Payload, v View) summary.Panel {
	var panel summary.Panel
	count := func(severity string) {
		panel.TotalProblems++
		switch severity {
		case SeverityCritical, SeverityHigh:
			panel.Critical++
		case SeverityLow:
			panel.Low++
		default:
			panel.Medium++
		}
	}
	for _, e := range v.LegalErrors {
		count(e.Severity)
	}
	for _, r := range v.Risks {
		count(r.Severity)
	}
	panel.Recommendations = len(v.Recommendations)
	panel.RiskLevel = riskLevel(p, panel)
	return panel
}

func riskLevel(p Payload, panel summary.Panel) string {
	level := getString(p, "riskLevel", "overallRisk")
	if level == "" {
		if sm, ok := get(p, "summary").(map[string]any); ok {
			level = getString(sm, "riskLevel", "overallRisk")
		}
	}
	if level != "" {
		if knownSeverity(level) {
			return SeverityLabel(NormalizeSeverity(level))
		}
		return level
	}
	switch {
	case panel.Critical > 0:
		return RiskLevelHigh
	case panel.Medium > 0:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
