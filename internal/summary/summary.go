// Package summary renders the six-figure results grid.
package summary

import "strconv"

// Panel holds the caller-supplied figures. Values are rendered as given.
type Panel struct {
	TotalProblems   int    `json:"totalProblems"`
	Critical        int    `json:"critical"`
	Medium          int    `json:"medium"`
	Low             int    `json:"low"`
	Recommendations int    `json:"recommendations"`
	RiskLevel       string `json:"riskLevel"`
}

// Cell is one tile of the grid.
type Cell struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Tone  string `json:"tone"`
}

// Cells returns the grid in fixed order.
func (p Panel) Cells() []Cell {
	return []Cell{
		{Label: "Всего проблем", Value: strconv.Itoa(p.TotalProblems), Tone: "total"},
		{Label: "Критические", Value: strconv.Itoa(p.Critical), Tone: "critical"},
		{Label: "Средние", Value: strconv.Itoa(p.Medium), Tone: "medium"},
		{Label: "Низкие", Value: strconv.Itoa(p.Low), Tone: "low"},
		{Label: "Рекомендации", Value: strconv.Itoa(p.Recommendations), Tone: "recommendations"},
		{Label: "Уровень риска", Value: p.RiskLevel, Tone: "risk"},
	}
}
