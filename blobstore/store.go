package blobstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Store defines the contract with remote object storage. keys are chosen by
// the caller and assumed unique; Put overwrites silently on collision
type Store interface {
	// Put uploads content under the given key and returns its public URL
	Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	// Delete removes the object; an already-absent object is treated as success
	Delete(ctx context.Context, key string) error
}

// KeyGenerator builds unique object keys under a fixed logical prefix
type KeyGenerator struct {
	Prefix string
}

// NewKey derives a storage key from the current time, a short random suffix,
// and a sanitized version of the original filename. the random component
// closes the collision window between two uploads in the same millisecond
func (kg KeyGenerator) NewKey(originalFilename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(originalFilename))
	}
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s%d-%s-%s%s", kg.Prefix, time.Now().UnixMilli(), suffix, SanitizeFilename(base), ext)
}

// SanitizeFilename replaces every rune that is not an ASCII letter, digit,
// dash, dot, or CJK character with an underscore
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.':
			b.WriteRune(r)
		case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r), unicode.Is(unicode.Hangul, r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
