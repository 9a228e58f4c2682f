// Package parser extracts self-test items from markdown notes.
//
// An item starts with a "Q:" line, optionally followed by "A:" and "C:"
// (context) blocks. Blocks may span several lines. A line of "---" or the
// next "Q:" ends the current item.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/studytrace/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

// ParseFile reads the file at path and extracts all items.
func ParseFile(path string) ([]domain.QuizItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from r and extracts all items. Items without a question are dropped.
func Parse(r io.Reader) ([]domain.QuizItem, error) {
	p := &itemParser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	p.finishItem()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p.items, nil
}

type itemParser struct {
	items   []domain.QuizItem
	current domain.QuizItem
	block   []string
	state   state
}

func (p *itemParser) line(line string) {
	if line == separator {
		p.finishItem()
		return
	}

	next, content, ok := prefixed(line)
	if !ok {
		if p.state != seeking {
			p.block = append(p.block, line)
		}
		return
	}

	p.flushBlock()
	if next == readingQuestion && p.state != seeking {
		p.finishItem()
	}
	p.state = next
	p.block = append(p.block, content)
}

// prefixed reports which block a line opens and its content after the prefix.
func prefixed(line string) (state, string, bool) {
	for _, c := range []struct {
		prefix string
		state  state
	}{
		{questionPrefix, readingQuestion},
		{answerPrefix, readingAnswer},
		{contextPrefix, readingContext},
	} {
		if rest, ok := strings.CutPrefix(line, c.prefix); ok {
			return c.state, strings.TrimPrefix(rest, " "), true
		}
	}
	return seeking, "", false
}

func (p *itemParser) flushBlock() {
	if len(p.block) == 0 {
		return
	}
	content := strings.Join(p.block, "\n")
	switch p.state {
	case readingQuestion:
		p.current.Q = content
	case readingAnswer:
		p.current.A = content
	case readingContext:
		p.current.Explain = content
	}
	p.block = nil
}

func (p *itemParser) finishItem() {
	p.flushBlock()
	if p.current.Q != "" {
		p.items = append(p.items, p.current)
	}
	p.current = domain.QuizItem{}
	p.state = seeking
}
