package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("storage: object not found")
	ErrInvalidKey = errors.New("storage: invalid key")
)

// ObjectStore saves and serves uploaded files by slash-separated key.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func SanitizeFileName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		return "", fmt.Errorf("%w: empty file name", ErrInvalidKey)
	}
	if len(base) > 100 {
		ext := path.Ext(base)
		base = base[:100-len(ext)] + ext
	}
	return base, nil
}

// NewKey builds "<folder>/<random>_<name>" so the last path segment keeps
// the original file name readable.
func NewKey(folder, fileName string) (string, error) {
	clean, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(folder, randomID()+"_"+clean), nil
}

// FileName returns the last segment of key.
func FileName(key string) string {
	return path.Base(key)
}

func cleanKey(key string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

func randomID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

// DisplayName strips the random prefix NewKey added, returning the
// uploader's sanitized file name.
func DisplayName(key string) string {
	name := FileName(key)
	if i := strings.IndexByte(name, '_'); i > 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}

// PublicPrefix is the URL path under which public objects are served.
const PublicPrefix = "/media/"

// PublicURL returns the served path of a public object.
func PublicURL(key string) string {
	return PublicPrefix + key
}

// KeyFromURL reverses PublicURL. Values without the prefix are taken as keys.
func KeyFromURL(url string) string {
	return strings.TrimPrefix(url, PublicPrefix)
}
