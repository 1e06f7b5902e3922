package analysis

import "strings"

const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

var severityAliases = map[string]string{
	"critical":    SeverityCritical,
	"blocker":     SeverityCritical,
	"критический": SeverityCritical,
	"критическая": SeverityCritical,
	"критичный":   SeverityCritical,
	"критично":    SeverityCritical,
	"high":        SeverityHigh,
	"major":       SeverityHigh,
	"высокий":     SeverityHigh,
	"высокая":     SeverityHigh,
	"высокое":     SeverityHigh,
	"medium":      SeverityMedium,
	"moderate":    SeverityMedium,
	"средний":     SeverityMedium,
	"средняя":     SeverityMedium,
	"среднее":     SeverityMedium,
	"low":         SeverityLow,
	"minor":       SeverityLow,
	"низкий":      SeverityLow,
	"низкая":      SeverityLow,
	"низкое":      SeverityLow,
}

// NormalizeSeverity maps English and Russian labels onto the four levels.
// Anything unrecognized is medium.
func NormalizeSeverity(raw string) string {
	if s, ok := severityAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return SeverityMedium
}

func knownSeverity(raw string) bool {
	_, ok := severityAliases[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// SeverityLabel is the Russian display label of a normalized severity.
func SeverityLabel(severity string) string {
	switch severity {
	case SeverityCritical:
		return "Критический"
	case SeverityHigh:
		return "Высокий"
	case SeverityLow:
		return "Низкий"
	default:
		return "Средний"
	}
}

// Priority badges.
const (
	BadgeHigh   = "high"
	BadgeMedium = "medium"
	BadgeLow    = "low"
	BadgeNormal = "normal"
)

// PriorityBadge maps a recommendation priority onto a badge class.
func PriorityBadge(priority string) string {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "critical", "high", "urgent", "критический", "критическая", "высокий", "высокая", "высокое", "срочно", "срочный":
		return BadgeHigh
	case "medium", "moderate", "средний", "средняя", "среднее":
		return BadgeMedium
	case "low", "низкий", "низкая", "низкое":
		return BadgeLow
	default:
		return BadgeNormal
	}
}
