package progress

// Stage names a phase of an analysis run.
type Stage string

const (
	StageStarting         Stage = "starting"
	StagePreprocessing    Stage = "preprocessing"
	StageAnalyzing        Stage = "analyzing"
	StageGeneratingReport Stage = "generating_report"
	StageComplete         Stage = "complete"
	StageProcessing       Stage = "processing"
)

// StageInfo is the display data for a stage.
type StageInfo struct {
	Stage   Stage  `json:"stage"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Ordinal int    `json:"ordinal"`
}

var stages = []StageInfo{
	{Stage: StageStarting, Name: "Запуск анализа", Icon: "🚀", Ordinal: 1},
	{Stage: StagePreprocessing, Name: "Предварительная обработка", Icon: "📄", Ordinal: 2},
	{Stage: StageAnalyzing, Name: "Анализ документа", Icon: "🔍", Ordinal: 3},
	{Stage: StageGeneratingReport, Name: "Формирование отчета", Icon: "📊", Ordinal: 4},
	{Stage: StageComplete, Name: "Готово", Icon: "✅", Ordinal: 5},
}

var fallbackStage = StageInfo{Stage: StageProcessing, Name: "Обработка", Icon: "⏳", Ordinal: 0}

// Stages returns the known stages in display order.
func Stages() []StageInfo {
	out := make([]StageInfo, len(stages))
	copy(out, stages)
	return out
}

// Lookup resolves a stage name. Unknown names map to a generic processing
// stage with ordinal 0.
func Lookup(s Stage) StageInfo {
	for _, info := range stages {
		if info.Stage == s {
			return info
		}
	}
	return fallbackStage
}

// StepStatus marks a stage relative to the current one.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepActive    StepStatus = "active"
	StepPending   StepStatus = "pending"
)

// Step is one row of the step tracker.
type Step struct {
	StageInfo
	Status StepStatus `json:"status"`
}

// StepsFor marks every known stage against current.
func StepsFor(current Stage) []Step {
	cur := Lookup(current).Ordinal
	out := make([]Step, 0, len(stages))
	for _, info := range stages {
		status := StepPending
		switch {
		case info.Ordinal < cur:
			status = StepCompleted
		case info.Ordinal == cur:
			status = StepActive
		}
		out = append(out, Step{StageInfo: info, Status: status})
	}
	return out
}
