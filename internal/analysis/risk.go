package analysis

// RiskVariant is a risk entry as it arrived.
type RiskVariant struct {
	Kind   Kind
	Text   string
	Fields map[string]any
}

// Risk is the canonical risk.
type Risk struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Probability string `json:"probability,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Severity    string `json:"severity"`
	Mitigation  string `json:"mitigation,omitempty"`
}

// ParseRisk classifies one risk entry. Objects carrying a "risk" field use
// the legacy layout.
func ParseRisk(v any) RiskVariant {
	switch val := v.(type) {
	case string:
		return RiskVariant{Kind: KindText, Text: val}
	case map[string]any:
		if has(val, "risk") {
			return RiskVariant{Kind: KindLegacy, Fields: val}
		}
		return RiskVariant{Kind: KindStructured, Fields: val}
	default:
		return RiskVariant{}
	}
}

// NormalizeRisk converts a variant into the canonical shape. The boolean is
// false when the result has neither title nor description.
func NormalizeRisk(v RiskVariant) (Risk, bool) {
	var out Risk
	switch v.Kind {
	case KindText:
		out.Title = scalar(v.Text)
	case KindLegacy:
		out = riskFromFields(v.Fields)
		out.Title = getString(v.Fields, "risk")
	case KindStructured:
		out = riskFromFields(v.Fields)
		out.Title = getString(v.Fields, "title", "name")
	default:
		return Risk{}, false
	}
	if out.Severity == "" {
		out.Severity = SeverityMedium
	}
	return out, out.Title != "" || out.Description != ""
}

func riskFromFields(m map[string]any) Risk {
	out := Risk{
		Description: getString(m, "description", "details"),
		Category:    getString(m, "category", "type"),
		Probability: getString(m, "probability", "likelihood"),
		Impact:      getString(m, "impact", "consequences"),
		Mitigation:  getString(m, "mitigation", "recommendation"),
	}
	// Severity falls back to the impact, then the probability, when those
	// carry a level word.
	for _, candidate := range []string{getString(m, "severity", "level"), out.Impact, out.Probability} {
		if knownSeverity(candidate) {
			out.Severity = NormalizeSeverity(candidate)
			break
		}
	}
	return out
}

// NormalizeRisks normalizes a risks list and drops empty entries.
func NormalizeRisks(v any) []Risk {
	var out []Risk
	for _, item := range list(v) {
		if r, ok := NormalizeRisk(ParseRisk(item)); ok {
			out = append(out, r)
		}
	}
	return out
}
