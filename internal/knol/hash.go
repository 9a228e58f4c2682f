package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/studytrace/internal/domain"
)

func normalizePart(part string) string {
	p := strings.ToLower(part)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return strings.TrimSpace(p)
}

// Normalize concatenates the quiz item's fields after cleaning each part.
// It lowercases, normalizes line endings and trims whitespace for each field
// before joining them.
func Normalize(item domain.QuizItem) string {
	// Joined with a newline so "question" and "answer" cannot run together
	// into "questionanswer".
	return strings.Join([]string{
		normalizePart(item.Q),
		normalizePart(item.A),
		normalizePart(item.Explain),
	}, "\n")
}

// Hash normalizes a quiz item and returns its SHA-256 hash as a hex string.
func Hash(item domain.QuizItem) string {
	return sum(Normalize(item))
}

// HashText returns the content hash used to detect duplicate page captures.
// Case, line endings and runs of whitespace do not affect the result.
func HashText(text string) string {
	return sum(strings.Join(strings.Fields(strings.ToLower(text)), " "))
}

func sum(s string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s)))
}
