package analysis

// DefaultErrorType is the display type of an error without one.
const DefaultErrorType = "Ошибка"

// LegalErrorVariant is a legal error as it arrived.
type LegalErrorVariant struct {
	Kind   Kind
	Text   string
	Fields map[string]any
}

// LegalError is the canonical legal error.
type LegalError struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	// Solution is empty when the source only advised a consultation.
	Solution string `json:"solution,omitempty"`
	Basis    string `json:"basis,omitempty"`
}

// ParseLegalError classifies one legal error entry.
func ParseLegalError(v any) LegalErrorVariant {
	switch val := v.(type) {
	case string:
		return LegalErrorVariant{Kind: KindText, Text: val}
	case map[string]any:
		return LegalErrorVariant{Kind: KindStructured, Fields: val}
	default:
		return LegalErrorVariant{}
	}
}

// NormalizeLegalError converts a variant into the canonical shape. A bare
// string is treated as {error: s, severity: "medium"}.
func NormalizeLegalError(v LegalErrorVariant) (LegalError, bool) {
	fields := v.Fields
	switch v.Kind {
	case KindText:
		fields = map[string]any{"error": v.Text, "severity": SeverityMedium}
	case KindStructured:
	default:
		return LegalError{}, false
	}

	out := LegalError{
		Type:        fallbackString(getString(fields, "type", "error"), DefaultErrorType),
		Description: getString(fields, "description", "error", "article"),
		Severity:    NormalizeSeverity(getString(fields, "severity")),
		Basis:       getString(fields, "basis", "legalBasis"),
	}
	if v.Kind == KindText {
		out.Type = DefaultErrorType
	}
	if solution := getString(fields, "solution"); !isConsultationAdvice(solution) {
		out.Solution = solution
	}
	return out, true
}

func isConsultationAdvice(s string) bool {
	return containsFold(s, "консультац", "consultation")
}

// NormalizeLegalErrors normalizes every entry of a legal errors list.
func NormalizeLegalErrors(v any) []LegalError {
	var out []LegalError
	for _, item := range list(v) {
		if e, ok := NormalizeLegalError(ParseLegalError(item)); ok {
			out = append(out, e)
		}
	}
	return out
}
