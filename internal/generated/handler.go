package generated

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docassist-web/internal/download"
	"docassist-web/internal/shared/server/middleware"
	"docassist-web/internal/shared/server/respond"
	"docassist-web/internal/shared/telemetry"
)

// maxDOCXSource caps the text converted to DOCX on download.
const maxDOCXSource = 5 << 20

// Handler serves the generated documents history.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/generated", h.list)
	rg.GET("/generated/:gid/download", h.download)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, err := h.svc.List(c.Request.Context(), userID, c.Query("documentId"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to list generated documents", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": docs})
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	doc, rc, err := h.svc.Open(c.Request.Context(), userID, c.Param("gid"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Generated document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to open generated document", nil)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDOCXSource+1))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to read generated document", nil)
		return
	}

	name, contentType := doc.FileName, doc.MimeType
	if c.Query("format") == "docx" {
		if len(data) > maxDOCXSource {
			respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "Document is too large to convert", nil)
			return
		}
		data, err = RenderDOCX(doc.Title, string(data))
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal", "Failed to render document", nil)
			return
		}
		name, contentType = DOCXName(doc.FileName), DOCXContentType
	}

	if !download.NewResponse(c).Blob(name, data, contentType) {
		telemetry.Warn("generated.download_unavailable", map[string]any{"generated_id": doc.ID})
	}
}
