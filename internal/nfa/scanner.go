package nfa

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEndOfInput is returned when scanning past the last token.
	ErrEndOfInput = errors.New("end of input reached")

	// ErrUnterminatedQuote is returned when a quoted token has no closing quote.
	ErrUnterminatedQuote = errors.New("unterminated quoted token")
)

// Scanner splits an event stream into tokens.
//
// Tokens are separated by spaces. A token starting with a single quote
// extends literally up to the next single quote, so it may contain spaces;
// the quotes are not part of the token. Spaces after a token are consumed
// with it, as are spaces at the start of the input.
//
// The scanner keeps a stack of positions: Undo steps back one token, and
// Mark/Reset restore every position pushed since the matching Mark.
type Scanner struct {
	text      string
	positions []int
	marks     []int
}

// NewScanner returns a scanner positioned at the first token of text.
func NewScanner(text string) *Scanner {
	pos := 0
	for pos < len(text) && text[pos] == ' ' {
		pos++
	}
	return &Scanner{text: text, positions: []int{pos}}
}

// Pos returns the byte offset of the next token.
func (s *Scanner) Pos() int {
	return s.positions[len(s.positions)-1]
}

// EOF reports whether every token has been consumed.
func (s *Scanner) EOF() bool {
	return s.Pos() >= len(s.text)
}

// Remaining returns the unconsumed input.
func (s *Scanner) Remaining() string {
	return s.text[s.Pos():]
}

// Next consumes and returns the next token.
func (s *Scanner) Next() (string, error) {
	if s.EOF() {
		return "", ErrEndOfInput
	}

	start := s.Pos()
	delim := byte(' ')
	if s.text[start] == '\'' {
		delim = '\''
		start++
	}

	end := start
	for end < len(s.text) && s.text[end] != delim {
		end++
	}
	if delim == '\'' && end >= len(s.text) {
		return "", fmt.Errorf("%w at offset %d", ErrUnterminatedQuote, start-1)
	}

	token := s.text[start:end]
	if end < len(s.text) {
		end++ // the delimiter
	}
	for end < len(s.text) && s.text[end] == ' ' {
		end++
	}

	s.positions = append(s.positions, end)
	return token, nil
}

// Undo steps back over the last token read.
func (s *Scanner) Undo() error {
	floor := 1
	if len(s.marks) > 0 {
		floor = max(floor, s.marks[len(s.marks)-1])
	}
	if len(s.positions) <= floor {
		return errors.New("scanner: nothing to undo")
	}
	s.positions = s.positions[:len(s.positions)-1]
	return nil
}

// Mark records the current position for a later Reset.
func (s *Scanner) Mark() {
	s.marks = append(s.marks, len(s.positions))
}

// Reset returns to the position of the most recent Mark and discards it.
func (s *Scanner) Reset() error {
	if len(s.marks) == 0 {
		return errors.New("scanner: reset without mark")
	}
	n := s.marks[len(s.marks)-1]
	s.marks = s.marks[:len(s.marks)-1]
	s.positions = s.positions[:n]
	return nil
}

// Tokenize splits text into all of its tokens.
func Tokenize(text string) ([]string, error) {
	s := NewScanner(text)
	var out []string
	for !s.EOF() {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// Quote renders token so that Tokenize reads it back unchanged. Tokens that
// start with a single quote, or hold one next to a space, cannot round-trip.
func Quote(token string) string {
	if token == "" || strings.Contains(token, " ") {
		return "'" + token + "'"
	}
	return token
}
