package detail

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"docassist-web/internal/backend"
	"docassist-web/internal/chat"
	"docassist-web/internal/download"
	"docassist-web/internal/live"
	"docassist-web/internal/shared/server/middleware"
	"docassist-web/internal/shared/server/respond"
	"docassist-web/internal/shared/telemetry"
	"docassist-web/internal/users"
)

// maxSourceBytes caps uploaded source files.
const maxSourceBytes = 10 << 20

// Subscriber serves live updates for a topic.
type Subscriber interface {
	Serve(w http.ResponseWriter, r *http.Request, topic string, initial *live.Message) error
}

// Profiles loads registered users.
type Profiles interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

// Archiver stores delivered generated documents.
type Archiver interface {
	Archiver(ctx context.Context, userID, documentID, recommendationID, title string) download.SaveFunc
}

// ExtractFunc turns an uploaded file into plain text.
type ExtractFunc func(ctx context.Context, data []byte, mimeType, fileName string) (string, error)

// Handler serves the detail page and its actions.
type Handler struct {
	Views    *Registry
	Live     Subscriber
	Profiles Profiles
	Archive  Archiver
	Extract  ExtractFunc

	tmpl *template.Template
}

// NewHandler parses the page templates and returns a Handler.
func NewHandler(views *Registry) (*Handler, error) {
	tmpl, err := ParseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{Views: views, tmpl: tmpl}, nil
}

// RegisterRoutes mounts the page routes on rg. limited wraps the endpoints
// that call the analysis backend.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limited ...gin.HandlerFunc) {
	docs := rg.Group("/documents/:id")
	docs.GET("", h.page)
	docs.GET("/state", h.state)
	docs.GET("/analysis", h.analysisFragment)
	docs.GET("/export", h.export)
	docs.GET("/progress/ws", h.progress)
	docs.POST("/source", h.source)
	docs.DELETE("/chat", h.resetChat)

	with := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, limited...), fn)
	}
	docs.POST("/analyze", with(h.analyze)...)
	docs.POST("/chat", with(h.chat)...)
	docs.POST("/recommendations/:rid/generate", with(h.generate)...)
}

func (h *Handler) view(c *gin.Context) (*View, bool) {
	documentID := strings.TrimSpace(c.Param("id"))
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "document id is required", nil)
		return nil, false
	}
	c.Set(middleware.DocumentIDKey, documentID)
	v, err := h.Views.Get(c.Request.Context(), middleware.UserIDFromContext(c), documentID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return nil, false
		}
		respond.Error(c, http.StatusBadGateway, "backend_unavailable", "failed to load document", nil)
		return nil, false
	}
	c.Set(middleware.ViewPhaseKey, string(v.Phase()))
	return v, true
}

func (h *Handler) page(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	c.Render(http.StatusOK, render.HTML{Template: h.tmpl, Name: "page", Data: newPageData(v.State(0))})
}

func (h *Handler) analysisFragment(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	c.Render(http.StatusOK, render.HTML{Template: h.tmpl, Name: "analysis", Data: newPageData(v.State(0))})
}

func (h *Handler) state(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	after, _ := strconv.ParseInt(c.Query("after"), 10, 64)
	respond.OK(c, v.State(after))
}

func (h *Handler) analyze(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	err := v.StartAnalysis(c.Request.Context())
	switch {
	case err == nil:
		respond.JSON(c, http.StatusAccepted, gin.H{"phase": PhaseRunning})
	case errors.Is(err, ErrEmptyText):
		respond.Error(c, http.StatusBadRequest, "empty_text", MsgEmptyText, nil)
	case errors.Is(err, ErrAnalysisRunning):
		respond.Error(c, http.StatusConflict, "analysis_running", "analysis already running", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to start analysis", nil)
	}
}

func (h *Handler) source(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	if h.Extract == nil {
		respond.Error(c, http.StatusNotImplemented, "not_supported", "text extraction is not configured", nil)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "file is required", nil)
		return
	}
	if fh.Size > maxSourceBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "file is too large", gin.H{"maxBytes": maxSourceBytes})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to read file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxSourceBytes))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to read file", nil)
		return
	}

	text, err := h.Extract(c.Request.Context(), data, fh.Header.Get("Content-Type"), fh.Filename)
	if err != nil || strings.TrimSpace(text) == "" {
		telemetry.Warn("detail.extract_failed", map[string]any{
			"request_id":  middleware.RequestIDFromContext(c),
			"document_id": v.DocumentID(),
			"file_name":   fh.Filename,
		})
		respond.Error(c, http.StatusUnprocessableEntity, "extract_failed", "no text could be extracted", nil)
		return
	}
	v.SetSourceText(fh.Filename, text)
	respond.OK(c, gin.H{"characters": len([]rune(text))})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) chat(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid json", nil)
		return
	}
	reply, err := v.Chat().Send(c.Request.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respond.Error(c, http.StatusBadRequest, "empty_message", "message is required", nil)
	case errors.Is(err, chat.ErrBusy):
		respond.Error(c, http.StatusConflict, "chat_busy", "a message is already being answered", nil)
	case errors.Is(err, chat.ErrStale):
		respond.Error(c, http.StatusConflict, "chat_reset", "the conversation was reset", nil)
	default:
		// Backend failures are reported through the failure reply.
		respond.OK(c, gin.H{"reply": reply})
	}
}

func (h *Handler) resetChat(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	if err := v.Chat().Reset(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to clear conversation", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) generate(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	recID := c.Param("rid")

	var d download.Downloader = download.NewResponse(c)
	if h.Archive != nil {
		title := recID
		if rendered, ok := v.Analysis(); ok {
			if rec, ok := rendered.Recommendation(recID); ok {
				title = rec.Title
			}
		}
		d = &download.Archive{
			Next: d,
			Save: h.Archive.Archiver(middleware.Detach(c.Request.Context()), v.UserID(), v.DocumentID(), recID, title),
		}
	}

	_, err := v.GenerateDocument(c.Request.Context(), recID, h.userInfo(c), d)
	if err == nil || c.Writer.Written() {
		return
	}
	switch {
	case errors.Is(err, ErrNoAnalysis):
		respond.Error(c, http.StatusConflict, "no_analysis", "run the analysis first", nil)
	case errors.Is(err, ErrUnknownRecommendation):
		respond.Error(c, http.StatusNotFound, "not_found", "recommendation not found", nil)
	case errors.Is(err, ErrGenerating):
		respond.Error(c, http.StatusConflict, "generating", "document generation in progress", nil)
	default:
		respond.Error(c, http.StatusBadGateway, "generation_failed", MsgGenerateFailed, nil)
	}
}

func (h *Handler) export(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", FormatJSON)
	if format != FormatJSON && format != FormatText {
		respond.Error(c, http.StatusBadRequest, "invalid_format", "format must be json or txt", nil)
		return
	}
	if err := v.ExportAnalysis(format, download.NewResponse(c)); err != nil && !c.Writer.Written() {
		if errors.Is(err, ErrNoAnalysis) {
			respond.Error(c, http.StatusNotFound, "no_analysis", "analysis not available", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "export failed", nil)
	}
}

func (h *Handler) progress(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	if h.Live == nil {
		respond.Error(c, http.StatusNotImplemented, "not_supported", "live updates are disabled", nil)
		return
	}
	initial := &live.Message{Type: EventState, Data: v.State(0)}
	if err := h.Live.Serve(c.Writer, c.Request, Key(v.UserID(), v.DocumentID()), initial); err != nil {
		telemetry.Warn("detail.live_failed", map[string]any{
			"request_id":  middleware.RequestIDFromContext(c),
			"document_id": v.DocumentID(),
			"error":       err.Error(),
		})
	}
}

// userInfo builds the identity block for document generation. Guests and
// users without a stored profile get GuestUserInfo.
func (h *Handler) userInfo(c *gin.Context) backend.UserInfo {
	info := GuestUserInfo
	if middleware.IsGuest(c) || h.Profiles == nil {
		return info
	}
	user, err := h.Profiles.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		if name := middleware.UserNameFromContext(c); name != "" {
			info.Name = name
		}
		if email := middleware.UserEmailFromContext(c); email != "" {
			info.Email = email
		}
		return info
	}
	if user.Name != "" {
		info.Name = user.Name
	}
	if user.Email != "" {
		info.Email = user.Email
	}
	if user.Phone != "" {
		info.Phone = user.Phone
	}
	if user.Address != "" {
		info.Address = user.Address
	}
	return info
}

// Publisher fans view changes out to live subscribers.
type Publisher interface {
	Publish(topic, kind string, data any)
}

// PublishingFactory builds views whose state and progress changes are
// published under their registry key.
func PublishingFactory(deps Deps, pub Publisher, opts ...Option) Factory {
	return func(userID, documentID string) *View {
		topic := Key(userID, documentID)
		var v *View
		onChange := func(event string, data any) {
			if pub == nil || v == nil {
				return
			}
			if event == EventProgress {
				pub.Publish(topic, EventProgress, data)
				return
			}
			pub.Publish(topic, EventState, v.State(0))
		}
		all := append(append([]Option{}, opts...), WithOnChange(onChange))
		v = New(userID, documentID, deps, all...)
		return v
	}
}
