package backend

import "encoding/json"

// Document is a document as served by the backend.
type Document struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Text         string          `json:"text,omitempty"`
	DocumentType string          `json:"documentType,omitempty"`
	Analysis     json.RawMessage `json:"analysis,omitempty"`
}

// HasAnalysis reports whether an analysis is embedded.
func (d Document) HasAnalysis() bool {
	return !isNull(d.Analysis)
}

// documentData accepts the field spellings the document endpoint has used.
type documentData struct {
	ID             string          `json:"id"`
	MongoID        string          `json:"_id"`
	Name           string          `json:"name"`
	FileName       string          `json:"fileName"`
	OriginalName   string          `json:"originalName"`
	Text           string          `json:"text"`
	ExtractedText  string          `json:"extractedText"`
	RecognizedText string          `json:"recognizedText"`
	DocumentType   string          `json:"documentType"`
	Analysis       json.RawMessage `json:"analysis"`
}

func (d documentData) document() Document {
	return Document{
		ID:           first(d.ID, d.MongoID),
		Name:         first(d.Name, d.OriginalName, d.FileName),
		Text:         first(d.RecognizedText, d.ExtractedText, d.Text),
		DocumentType: d.DocumentType,
		Analysis:     d.Analysis,
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AnalysisRequest is the advanced-analysis body.
type AnalysisRequest struct {
	DocumentText string `json:"documentText"`
	DocumentType string `json:"documentType"`
	FileName     string `json:"fileName"`
	UserID       string `json:"userId"`
}

// ChatTurn is one history entry sent with a chat message.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat body.
type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
	UserID  string     `json:"userId"`
	DocID   string     `json:"docId"`
}

// UserInfo identifies the person a generated document is drafted for.
type UserInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// GenerateRequest is the legal-document generation body.
type GenerateRequest struct {
	Recommendation       any             `json:"recommendation"`
	OriginalDocumentText string          `json:"originalDocumentText"`
	Analysis             json.RawMessage `json:"analysis"`
	UserInfo             UserInfo        `json:"userInfo"`
}

// GeneratedDocument is a drafted document.
type GeneratedDocument struct {
	Text         string `json:"generatedDocument"`
	FileName     string `json:"fileName"`
	DocumentType string `json:"documentType"`
}
