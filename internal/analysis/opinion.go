package analysis

// OpinionPlaceholder is shown when a structured opinion has no assessment.
const OpinionPlaceholder = "Общая оценка не предоставлена"

// OpinionVariant is the expert opinion as it arrived.
type OpinionVariant struct {
	Kind   Kind
	Text   string
	Fields map[string]any
}

// Opinion is the canonical expert opinion.
type Opinion struct {
	// Text is set for a plain-string opinion and rendered as is.
	Text string `json:"text,omitempty"`
	// Assessment and CriticalPoints are set for a structured opinion.
	Assessment     string   `json:"assessment,omitempty"`
	CriticalPoints []string `json:"criticalPoints,omitempty"`
}

// Structured reports whether the opinion came from an object.
func (o Opinion) Structured() bool { return o.Text == "" }

// ParseOpinion classifies the expert opinion value.
func ParseOpinion(v any) OpinionVariant {
	switch val := v.(type) {
	case string:
		return OpinionVariant{Kind: KindText, Text: val}
	case map[string]any:
		return OpinionVariant{Kind: KindStructured, Fields: val}
	default:
		return OpinionVariant{}
	}
}

// NormalizeOpinion returns the canonical opinion, or false when there is
// nothing to render.
func NormalizeOpinion(v OpinionVariant) (Opinion, bool) {
	switch v.Kind {
	case KindText:
		text := scalar(v.Text)
		return Opinion{Text: text}, text != ""
	case KindStructured:
		return Opinion{
			Assessment:     fallbackString(getString(v.Fields, "overallAssessment", "assessment", "summary"), OpinionPlaceholder),
			CriticalPoints: stringList(get(v.Fields, "criticalPoints"), "point", "description", "text", "title"),
		}, true
	default:
		return Opinion{}, false
	}
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
