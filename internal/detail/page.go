package detail

import (
	"embed"
	"html/template"
	"strings"

	"docassist-web/internal/analysis"
)

//go:embed templates/*.html
var templateFS embed.FS

// Labels are the captions of the page controls.
type Labels struct {
	Generate      string
	Generating    string
	StartAnalysis string
}

var defaultLabels = Labels{
	Generate:      LabelGenerate,
	Generating:    LabelGenerating,
	StartAnalysis: LabelStartAnalysis,
}

// PageData is the data passed to the page templates.
type PageData struct {
	State      State
	LastNotice int64
	Labels     Labels
}

func newPageData(st State) PageData {
	var last int64
	for _, n := range st.Notices {
		if n.ID > last {
			last = n.ID
		}
	}
	return PageData{State: st, LastNotice: last, Labels: defaultLabels}
}

// ParseTemplates parses the embedded detail page templates.
func ParseTemplates() (*template.Template, error) {
	return template.New("detail").Funcs(template.FuncMap{
		"severityLabel": analysis.SeverityLabel,
		"join":          strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
}
