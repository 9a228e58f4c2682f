package parser

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedItems int
		expectedQ     string
		expectedA     string
		expectedC     string
	}{
		{
			name:          "Simple Q&A",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedItems: 1,
			expectedQ:     "What is the capital of France?",
			expectedA:     "Paris",
			expectedC:     "",
		},
		{
			name:          "Simple Q, A, and C",
			input:         "Q: What is 1+1?\nA: 2\nC: Basic arithmetic",
			expectedItems: 1,
			expectedQ:     "What is 1+1?",
			expectedA:     "2",
			expectedC:     "Basic arithmetic",
		},
		{
			name: "Multiline Answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedItems: 1,
			expectedQ:     "What are the primary colors?",
			expectedA:     "Red\nBlue\nYellow",
			expectedC:     "",
		},
		{
			name: "Two Items",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedItems: 2,
		},
		{
			name: "Item with all fields and multiline",
			input: `
Q: What is Go?
A: A statically typed, compiled programming language.
It was designed at Google.
C: Programming Languages
`,
			expectedItems: 1,
			expectedQ:     "What is Go?",
			expectedA:     "A statically typed, compiled programming language.\nIt was designed at Google.",
			expectedC:     "Programming Languages",
		},
		{
			name:          "No items, just text",
			input:         "This is a file with no questions.",
			expectedItems: 0,
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:Question\nA:Answer",
			expectedItems: 1,
			expectedQ:     "Question",
			expectedA:     "Answer",
		},
		{
			name:          "Separator ends item",
			input:         "Q: One\nA: First\n---\nstray text\nQ: Two\nA: Second",
			expectedItems: 2,
		},
		{
			name:          "Answer without question is dropped",
			input:         "A: orphan answer\nC: orphan context",
			expectedItems: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := strings.NewReader(tc.input)
			items, err := Parse(r)
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(items) != tc.expectedItems {
				t.Fatalf("Expected %d items, but got %d", tc.expectedItems, len(items))
			}

			if tc.expectedItems == 1 {
				item := items[0]
				if item.Q != tc.expectedQ {
					t.Errorf("Expected Q to be '%s', but got '%s'", tc.expectedQ, item.Q)
				}
				if item.A != tc.expectedA {
					t.Errorf("Expected A to be '%s', but got '%s'", tc.expectedA, item.A)
				}
				if item.Explain != tc.expectedC {
					t.Errorf("Expected Explain to be '%s', but got '%s'", tc.expectedC, item.Explain)
				}
			}
		})
	}
}
