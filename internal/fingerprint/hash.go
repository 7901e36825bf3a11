package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
)

// Normalize concatenates the draft's content after cleaning each part.
// Each field is lowercased, trimmed and has its line endings normalized
// before the fields are joined.
func Normalize(d domain.Draft) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.TrimSpace(p)
	}

	// Newline keeps "front" and "back" from collapsing into "frontback".
	return strings.Join([]string{
		normalizePart(d.Front),
		normalizePart(d.Back),
		normalizePart(d.Context),
	}, "\n")
}

// Hash returns the SHA-256 of the normalized draft as a hex string.
func Hash(d domain.Draft) string {
	sum := sha256.Sum256([]byte(Normalize(d)))
	return fmt.Sprintf("%x", sum)
}
