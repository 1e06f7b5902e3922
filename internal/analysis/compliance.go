package analysis

// Compliance is the canonical compliance record. Every value comes from the
// payload; nothing is filled in when it is missing.
type Compliance struct {
	Status  string           `json:"status,omitempty"`
	Score   string           `json:"score,omitempty"`
	Summary string           `json:"summary,omitempty"`
	Items   []ComplianceItem `json:"items,omitempty"`
}

// ComplianceItem is one checked requirement.
type ComplianceItem struct {
	Requirement string `json:"requirement"`
	Status      string `json:"status,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// NormalizeCompliance converts the compliance value. The boolean is false when
// there is nothing to render.
func NormalizeCompliance(v any) (Compliance, bool) {
	var out Compliance
	switch val := v.(type) {
	case string:
		out.Summary = scalar(val)
	case map[string]any:
		out.Status = getString(val, "status", "overallStatus")
		out.Score = getString(val, "score", "percentage")
		out.Summary = getString(val, "summary", "description", "comment")
		for _, item := range list(get(val, "items", "requirements", "checks")) {
			if ci, ok := normalizeComplianceItem(item); ok {
				out.Items = append(out.Items, ci)
			}
		}
	default:
		return Compliance{}, false
	}
	return out, out.Status != "" || out.Score != "" || out.Summary != "" || len(out.Items) > 0
}

func normalizeComplianceItem(v any) (ComplianceItem, bool) {
	switch val := v.(type) {
	case string:
		s := scalar(val)
		return ComplianceItem{Requirement: s}, s != ""
	case map[string]any:
		out := ComplianceItem{
			Requirement: getString(val, "requirement", "title", "name", "rule"),
			Status:      getString(val, "status", "compliant"),
			Comment:     getString(val, "comment", "details", "note"),
		}
		return out, out.Requirement != ""
	default:
		return ComplianceItem{}, false
	}
}
