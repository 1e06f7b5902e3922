package analysis

import (
	"fmt"
	"strings"
)

// Report renders v as a plain-text report for export.
func Report(title string, v View) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("Анализ документа: %s", title)
	line("")
	line("Сводка")
	for _, cell := range v.Summary.Cells() {
		line("  %s: %s", cell.Label, cell.Value)
	}

	if v.Opinion != nil {
		line("")
		line("Экспертное заключение")
		if v.Opinion.Structured() {
			line("  %s", v.Opinion.Assessment)
			for _, p := range v.Opinion.CriticalPoints {
				line("  - %s", p)
			}
		} else {
			line("  %s", v.Opinion.Text)
		}
	}

	if len(v.LegalErrors) > 0 {
		line("")
		line("Юридические ошибки")
		for i, e := range v.LegalErrors {
			line("  %d. [%s] %s: %s", i+1, SeverityLabel(e.Severity), e.Type, e.Description)
			if e.Solution != "" {
				line("     Решение: %s", e.Solution)
			}
			if e.Basis != "" {
				line("     Основание: %s", e.Basis)
			}
		}
	}

	if len(v.Risks) > 0 {
		line("")
		line("Риски")
		for i, r := range v.Risks {
			line("  %d. [%s] %s", i+1, SeverityLabel(r.Severity), strings.TrimSpace(r.Title+" "+r.Description))
			if r.Probability != "" {
				line("     Вероятность: %s", r.Probability)
			}
			if r.Impact != "" {
				line("     Влияние: %s", r.Impact)
			}
		}
	}

	if len(v.Recommendations) > 0 {
		line("")
		line("Рекомендации")
		for i, r := range v.Recommendations {
			line("  %d. %s", i+1, r.Title)
			if r.Description != "" {
				line("     %s", r.Description)
			}
			line("     Ответственный: %s", r.Owner)
			for j, s := range r.Steps {
				line("     %d.%d %s", i+1, j+1, s.Title)
			}
		}
	}

	if len(v.NextSteps) > 0 {
		line("")
		line("Следующие шаги")
		for i, s := range v.NextSteps {
			line("  %d. %s", i+1, s.Title)
		}
	}

	if c := v.Compliance; c != nil {
		line("")
		line("Соответствие требованиям")
		if c.Status != "" {
			line("  Статус: %s", c.Status)
		}
		if c.Score != "" {
			line("  Оценка: %s", c.Score)
		}
		if c.Summary != "" {
			line("  %s", c.Summary)
		}
		for _, item := range c.Items {
			line("  - %s %s", item.Requirement, item.Status)
		}
	}
	return b.String()
}
