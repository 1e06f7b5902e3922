package object

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidName is returned for file names that cannot be stored.
var ErrInvalidName = errors.New("invalid file name")

// OwnerKey returns a path-safe namespace for an owner ID.
func OwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

// SanitizeFileName strips separators and control characters and rejects traversal.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" {
		return "", ErrInvalidName
	}
	return s, nil
}

// NewKey builds "<owner hash>/<random>_<sanitized name>".
func NewKey(ownerID, fileName string) (string, error) {
	clean, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(OwnerKey(ownerID), randomID()+"_"+clean), nil
}

// ValidKey reports whether key is relative and free of traversal.
func ValidKey(key string) bool {
	clean := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	return key != "" && !strings.HasPrefix(clean, "..") && !path.IsAbs(clean)
}

// ApplyPrefix joins a bucket prefix and a key with a single slash.
func ApplyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(strings.TrimSpace(prefix), "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
