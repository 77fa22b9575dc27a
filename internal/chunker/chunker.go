// Package chunker splits normalised text into overlapping segments
// suitable for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default maximum segment length in characters.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of characters shared between
// consecutive segments.
const DefaultOverlap = 100

// separators is the split hierarchy: paragraph, line, word, character.
// The splitter prefers the largest unit that keeps a segment within the
// chunk size and recursively subdivides oversized units with the smaller
// separators.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter splits text into bounded, overlapping segments. Splitting is
// fully deterministic: the same (text, chunkSize, overlap) always yields
// the same ordered sequence.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum segment size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive segments in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave room for new content in every segment.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Split returns the ordered segments of text. Empty or whitespace-only
// input yields no segments. Each consecutive pair of segments shares the
// configured overlap: a segment after the first carries the trailing
// overlap characters of its predecessor as leading context. No segment
// exceeds the chunk size, overlap included.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// The overlap counts against the chunk size, so base segments are cut
	// to the remaining budget before the predecessor tail is prepended.
	base := s.splitRecursive(text, separators, s.chunkSize-s.overlap)

	if s.overlap == 0 || len(base) < 2 {
		return base
	}

	out := make([]string, len(base))
	out[0] = base[0]
	for i := 1; i < len(base); i++ {
		out[i] = tail(base[i-1], s.overlap) + base[i]
	}
	return out
}

// splitRecursive splits text into segments of at most budget characters,
// preferring the largest separator that occurs in the text.
func (s *Splitter) splitRecursive(text string, seps []string, budget int) []string {
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}

	// Pick the first separator present in the text. The final ""
	// separator always matches and forces a character-level split.
	sep := seps[len(seps)-1]
	var rest []string
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	if sep == "" {
		return hardSplit(text, budget)
	}

	parts := strings.Split(text, sep)

	var segments []string
	var current strings.Builder
	currentLen := 0
	sepLen := utf8.RuneCountInString(sep)

	flush := func() {
		if currentLen > 0 {
			segments = append(segments, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, part := range parts {
		partLen := utf8.RuneCountInString(part)

		// An oversized unit is subdivided with the smaller separators.
		if partLen > budget {
			flush()
			segments = append(segments, s.splitRecursive(part, rest, budget)...)
			continue
		}

		joined := partLen
		if currentLen > 0 {
			joined += currentLen + sepLen
		}
		if joined > budget {
			flush()
			joined = partLen
		}

		if currentLen > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
		currentLen = joined
	}
	flush()

	return segments
}

// hardSplit cuts text into budget-sized pieces with no regard for
// structure. Last resort for text with no usable separator.
func hardSplit(text string, budget int) []string {
	runes := []rune(text)
	segments := make([]string, 0, len(runes)/budget+1)
	for start := 0; start < len(runes); start += budget {
		end := start + budget
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}

// tail returns the last n characters of text.
func tail(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
