package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

// ErrNotFound is returned by Open and Delete when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Object describes a stored blob.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStore saves, opens and removes binary objects owned by a user.
type ObjectStore interface {
	// Put stores r under a fresh key in the owner's namespace. An empty
	// contentType is sniffed from the first bytes of r.
	Put(ctx context.Context, ownerID, fileName, contentType string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Sniff resolves the content type of r when contentType is empty and returns
// a reader that still yields the full body.
func Sniff(r io.Reader, contentType string) (io.Reader, string, error) {
	if contentType != "" {
		return r, contentType, nil
	}
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, "", err
	}
	return io.MultiReader(bytes.NewReader(head[:n]), r), http.DetectContentType(head[:n]), nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}
