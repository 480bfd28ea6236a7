// Package textseg splits translated text into chunks short enough for a
// single speech synthesis request, breaking only at sentence boundaries.
package textseg

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/satriahrh/voxlate/domain/entities"
)

// DefaultMaxChars matches the request limit of the free synthesis endpoints
const DefaultMaxChars = 200

// Segmenter packs whole sentences into segments of at most maxChars runes
type Segmenter struct {
	maxChars int
}

// NewSegmenter returns a segmenter; maxChars must be at least 1
func NewSegmenter(maxChars int) (*Segmenter, error) {
	if maxChars < 1 {
		return nil, fmt.Errorf("max chars must be at least 1, got %d", maxChars)
	}
	return &Segmenter{maxChars: maxChars}, nil
}

// MaxChars returns the configured bound
func (s *Segmenter) MaxChars() int {
	return s.maxChars
}

// Segment splits text into bounded segments
func Segment(text string, maxChars int) ([]entities.TextSegment, error) {
	s, err := NewSegmenter(maxChars)
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}

// Split collects All into a slice
func (s *Segmenter) Split(text string) []entities.TextSegment {
	var out []entities.TextSegment
	for seg := range s.All(text) {
		out = append(out, seg)
	}
	return out
}

// All yields the segments of text lazily and in order. Every call re-scans
// text, so the sequence can be ranged over any number of times.
func (s *Segmenter) All(text string) iter.Seq[entities.TextSegment] {
	return func(yield func(entities.TextSegment) bool) {
		var (
			cur   entities.TextSegment
			open  bool
			index int
		)

		flush := func() bool {
			if !open {
				return true
			}
			cur.Index = index
			cur.Text = text[cur.Start:cur.End]
			cur.Oversized = len(cur.Boundaries) == 1 && utf8.RuneCountInString(cur.Text) > s.maxChars
			index++
			open = false
			return yield(cur)
		}

		for start, end := range sentences(text) {
			if !open {
				cur = entities.TextSegment{Start: start, End: end, Boundaries: []int{end}}
				open = true
				continue
			}
			if utf8.RuneCountInString(text[cur.Start:end]) <= s.maxChars {
				cur.End = end
				cur.Boundaries = append(cur.Boundaries, end)
				continue
			}
			if !flush() {
				return
			}
			cur = entities.TextSegment{Start: start, End: end, Boundaries: []int{end}}
			open = true
		}
		flush()
	}
}

// sentences yields the [start, end) byte span of every non-blank sentence,
// trimmed of surrounding whitespace. A sentence ends after a run of
// terminators; trailing text without a terminator is the last sentence.
func sentences(text string) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		begin := 0
		i := 0
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			i += size
			if !isTerminator(r) {
				continue
			}
			for i < len(text) {
				next, nsize := utf8.DecodeRuneInString(text[i:])
				if !isTerminator(next) {
					break
				}
				i += nsize
			}
			if start, end, ok := trimSpan(text, begin, i); ok {
				if !yield(start, end) {
					return
				}
			}
			begin = i
		}
		if start, end, ok := trimSpan(text, begin, len(text)); ok {
			yield(start, end)
		}
	}
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// trimSpan narrows [start, end) to exclude leading and trailing whitespace
func trimSpan(text string, start, end int) (int, int, bool) {
	span := text[start:end]
	left := strings.TrimLeftFunc(span, unicode.IsSpace)
	start += len(span) - len(left)
	right := strings.TrimRightFunc(left, unicode.IsSpace)
	end = start + len(right)
	return start, end, end > start
}
