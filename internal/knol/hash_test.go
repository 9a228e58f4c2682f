package knol

import (
	"testing"

	"github.com/conorfennell/studytrace/internal/domain"
)

func TestNormalize(t *testing.T) {
	item := domain.QuizItem{
		Q:       "  What is HTMX? \r\n",
		A:       "A library for AJAX.",
		Explain: "Web Development",
	}
	expected := "what is htmx?\na library for ajax.\nweb development"
	normalized := Normalize(item)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		item := domain.QuizItem{Q: "Q", A: "A", Explain: "C"}
		// Hash for "q\na\nc"
		expectedHash := "eb2456c1ee4f36305069dd0f63a30e92d5443129f5e8fd9a5ec490fbc4d4d8a2"
		hash := Hash(item)

		if hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		item1 := domain.QuizItem{Q: "  what is go? ", A: "A programming language."}
		item2 := domain.QuizItem{Q: "What Is Go?", A: "A programming language."}
		if Hash(item1) != Hash(item2) {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different items have different hashes", func(t *testing.T) {
		if Hash(domain.QuizItem{Q: "Card 1"}) == Hash(domain.QuizItem{Q: "Card 2"}) {
			t.Error("Expected hashes for different cards to be different")
		}
	})
}

func TestHashText(t *testing.T) {
	testCases := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{name: "identical", a: "Go is fun", b: "Go is fun", equal: true},
		{name: "case and spacing", a: "Go   is\r\nFUN ", b: "go is fun", equal: true},
		{name: "different words", a: "Go is fun", b: "Go is hard", equal: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HashText(tc.a) == HashText(tc.b); got != tc.equal {
				t.Errorf("Expected equal=%v for %q and %q", tc.equal, tc.a, tc.b)
			}
		})
	}
}
