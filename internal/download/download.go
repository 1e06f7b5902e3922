// Package download delivers generated files to whoever asked for them.
//
// Callers depend on Downloader and never inspect the environment they run in:
// an HTTP handler injects Response, the terminal client injects Dir, and code
// running without any client falls back to Nop.
package download

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"
)

// ErrUnavailable is returned by callers that need an error when a Downloader
// reports failure.
var ErrUnavailable = errors.New("download unavailable")

const (
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeJSON   = "application/json; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
)

// Downloader is the file-download capability.
//
// Every method reports failure through its boolean result and never panics.
type Downloader interface {
	// Available reports whether a client context exists to receive files.
	Available() bool
	// Blob delivers data under name.
	Blob(name string, data []byte, contentType string) bool
	// URL hands rawURL to the client's native download behaviour.
	URL(name, rawURL string) bool
}

// Text delivers text as a plain-text file.
func Text(d Downloader, name, text string) bool {
	return d.Blob(name, []byte(text), ContentTypeText)
}

// JSON delivers v pretty-printed with a two-space indent.
func JSON(d Downloader, name string, v any) bool {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		warn("download.encode_failed", name, err)
		return false
	}
	return d.Blob(name, data, ContentTypeJSON)
}

// ContentDisposition builds an attachment header value for name. ASCII names
// are quoted directly; other names get an ASCII fallback plus an RFC 5987
// filename* parameter.
func ContentDisposition(name string) string {
	name = cleanName(name)
	if isASCII(name) {
		return fmt.Sprintf("attachment; filename=%q", name)
	}
	fallback := "download" + path.Ext(name)
	if !isASCII(fallback) {
		fallback = "download"
	}
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, url.PathEscape(name))
}

func cleanName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || strings.Trim(name, ".") == "" {
		return "download"
	}
	return name
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func validURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
