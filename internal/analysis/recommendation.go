package analysis

import (
	"strconv"
	"strings"
)

// OwnerPersona is the owner shown on every recommendation. Recommendations
// are presented as work the assistant takes on, so whatever owner the
// backend proposes is replaced with this name.
const OwnerPersona = "Юрист-ассистент ДокАссист"

// InformationalCategory marks recommendations that only inform and are never
// listed.
const InformationalCategory = "информирование"

// documentKeywords are stems of Russian legal-document nouns. A match in a
// recommendation's text offers to draft that document.
var documentKeywords = []string{
	"жалоб",
	"исков",
	"заявлени",
	"претензи",
	"ходатайств",
	"отзыв на",
	"апелляц",
	"кассац",
	"возражени",
	"запрос",
	"уведомлени",
	"письм",
	"требовани",
}

// Step is one execution step of a recommendation.
type Step struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Timeframe   string   `json:"timeframe,omitempty"`
	Responsible string   `json:"responsible,omitempty"`
	Documents   []string `json:"documents,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Priority    string   `json:"priority,omitempty"`
}

// StepVariant is a step or next-step entry as it arrived.
type StepVariant struct {
	Kind   Kind
	Text   string
	Fields map[string]any
}

// ParseStep classifies a step entry.
func ParseStep(v any) StepVariant {
	switch val := v.(type) {
	case string:
		return StepVariant{Kind: KindText, Text: val}
	case map[string]any:
		return StepVariant{Kind: KindStructured, Fields: val}
	default:
		return StepVariant{}
	}
}

// NormalizeStep converts a variant into a Step; false when it has no text.
func NormalizeStep(v StepVariant) (Step, bool) {
	switch v.Kind {
	case KindText:
		s := scalar(v.Text)
		return Step{Title: s}, s != ""
	case KindStructured:
		m := v.Fields
		out := Step{
			Title:       getString(m, "step", "action", "title", "name"),
			Description: getString(m, "description", "details"),
			Timeframe:   getString(m, "timeframe", "deadline", "timeline", "term"),
			Responsible: getString(m, "responsible", "executor"),
			Documents:   stringList(get(m, "documents", "requiredDocuments"), "name", "title"),
			Notes:       getString(m, "notes", "note", "comment"),
			Priority:    getString(m, "priority"),
		}
		if out.Title == "" {
			out.Title, out.Description = out.Description, ""
		}
		return out, out.Title != ""
	default:
		return Step{}, false
	}
}

// NormalizeSteps normalizes a steps list.
func NormalizeSteps(v any) []Step {
	var out []Step
	for _, item := range list(v) {
		if s, ok := NormalizeStep(ParseStep(item)); ok {
			out = append(out, s)
		}
	}
	return out
}

// Recommendation is the canonical recommendation.
type Recommendation struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	Category            string `json:"category,omitempty"`
	Priority            string `json:"priority,omitempty"`
	Badge               string `json:"badge"`
	Timeline            string `json:"timeline,omitempty"`
	Owner               string `json:"owner"`
	Implementation      string `json:"implementation,omitempty"`
	ExpectedResult      string `json:"expectedResult,omitempty"`
	LegalBasis          string `json:"legalBasis,omitempty"`
	DocumentType        string `json:"documentType,omitempty"`
	Steps               []Step `json:"steps,omitempty"`
	CanGenerateDocument bool   `json:"canGenerateDocument"`
	// FromNextStep is set for entries synthesized from next steps.
	FromNextStep bool `json:"fromNextStep,omitempty"`
}

// NormalizeRecommendation converts one entry. index is its position in the
// source list and provides a stable ID when the entry has none. The boolean
// is false for informational or empty entries.
func NormalizeRecommendation(v any, index int) (Recommendation, bool) {
	var m map[string]any
	switch val := v.(type) {
	case string:
		m = map[string]any{"title": val}
	case map[string]any:
		m = val
	default:
		return Recommendation{}, false
	}

	out := Recommendation{
		ID:             getString(m, "id"),
		Title:          getString(m, "title", "recommendation", "action"),
		Description:    getString(m, "description", "details"),
		Category:       getString(m, "category"),
		Priority:       getString(m, "priority"),
		Timeline:       getString(m, "timeline", "timeframe", "deadline"),
		Implementation: getString(m, "implementation", "howTo"),
		ExpectedResult: getString(m, "expectedResult", "result"),
		LegalBasis:     getString(m, "legalBasis", "basis"),
		DocumentType:   getString(m, "documentType"),
		Steps:          NormalizeSteps(get(m, "steps")),
	}
	if strings.EqualFold(out.Category, InformationalCategory) {
		return Recommendation{}, false
	}
	if out.Title == "" && out.Description == "" {
		return Recommendation{}, false
	}
	if out.ID == "" {
		out.ID = "rec-" + strconv.Itoa(index+1)
	}
	out.Owner = OwnerPersona
	out.Badge = PriorityBadge(out.Priority)
	out.CanGenerateDocument = boolish(get(m, "canGenerateDocument")) || RequestsDocument(out.Title, out.Description, out.Implementation)
	return out, true
}

// NormalizeRecommendations normalizes a recommendations list, dropping
// informational entries.
func NormalizeRecommendations(v any) []Recommendation {
	var out []Recommendation
	for i, item := range list(v) {
		if r, ok := NormalizeRecommendation(item, i); ok {
			out = append(out, r)
		}
	}
	return out
}

// RequestsDocument reports whether the text asks for a legal filing to be
// drafted. Matching is a case-insensitive substring search over Russian
// document-noun stems.
func RequestsDocument(parts ...string) bool {
	text := strings.ToLower(strings.Join(parts, " "))
	for _, kw := range documentKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// RecommendationFromStep synthesizes a recommendation out of a next step.
func RecommendationFromStep(s Step, index int) Recommendation {
	description := s.Description
	if description == "" {
		description = s.Notes
	}
	out := Recommendation{
		ID:           "next-" + strconv.Itoa(index+1),
		Title:        s.Title,
		Description:  description,
		Priority:     s.Priority,
		Badge:        PriorityBadge(s.Priority),
		Timeline:     s.Timeframe,
		Owner:        OwnerPersona,
		FromNextStep: true,
	}
	out.CanGenerateDocument = RequestsDocument(out.Title, out.Description)
	return out
}
