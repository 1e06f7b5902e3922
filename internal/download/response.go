package download

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docassist-web/internal/shared/telemetry"
)

// Response delivers files as attachments on an HTTP response.
type Response struct {
	c *gin.Context
}

// NewResponse binds a Downloader to the response of c.
func NewResponse(c *gin.Context) *Response {
	return &Response{c: c}
}

// Available is false once the response has been written.
func (r *Response) Available() bool {
	return r != nil && r.c != nil && r.c.Writer != nil && !r.c.Writer.Written()
}

func (r *Response) Blob(name string, data []byte, contentType string) bool {
	if !r.Available() {
		unavailable(name)
		return false
	}
	if contentType == "" {
		contentType = ContentTypeBinary
	}
	r.c.Header("Content-Disposition", ContentDisposition(name))
	r.c.Header("Cache-Control", "no-store")
	r.c.Data(http.StatusOK, contentType, data)
	return true
}

// URL redirects the client to rawURL and passes the file name as a hint.
func (r *Response) URL(name, rawURL string) bool {
	if !r.Available() {
		unavailable(name)
		return false
	}
	if !validURL(rawURL) {
		telemetry.Warn("download.invalid_url", map[string]any{"file_name": name, "url": rawURL})
		return false
	}
	r.c.Header("X-Download-Filename", cleanName(name))
	r.c.Redirect(http.StatusFound, rawURL)
	return true
}
