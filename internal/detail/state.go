package detail

import (
	"docassist-web/internal/analysis"
	"docassist-web/internal/chat"
	"docassist-web/internal/progress"
	"docassist-web/internal/summary"
)

// State is the serializable state of a view.
type State struct {
	DocumentID string            `json:"documentId"`
	Name       string            `json:"name"`
	HasText    bool              `json:"hasText"`
	Phase      Phase             `json:"phase"`
	Progress   progress.Snapshot `json:"progress"`
	Analysis   *analysis.View    `json:"analysis,omitempty"`
	Cells      []summary.Cell    `json:"cells,omitempty"`
	Messages   []chat.Message    `json:"messages"`
	ChatBusy   bool              `json:"chatBusy"`
	Generating string            `json:"generating,omitempty"`
	Notices    []Notice          `json:"notices"`
}

// State captures the view. Notices are limited to those newer than
// afterNotice.
func (v *View) State(afterNotice int64) State {
	snap := v.tracker.Snapshot()

	v.mu.Lock()
	st := State{
		DocumentID: v.documentID,
		Name:       v.doc.Name,
		HasText:    v.doc.Text != "",
		Generating: v.generating,
	}
	if v.rendered != nil {
		rendered := *v.rendered
		st.Analysis = &rendered
		st.Cells = rendered.Summary.Cells()
	}
	v.mu.Unlock()

	st.Progress = snap
	switch {
	case snap.Visible:
		st.Phase = PhaseRunning
	case st.Analysis != nil:
		st.Phase = PhaseComplete
	default:
		st.Phase = PhaseIdle
	}
	st.Messages = v.chat.Messages()
	st.ChatBusy = v.chat.Busy()
	st.Notices = v.notices.since(afterNotice)
	return st
}
