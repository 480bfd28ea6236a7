package entities

import "unicode/utf8"

// TextSegment is one bounded chunk of translated text sent to a single
// synthesis call. Start and End are byte offsets into the source text and
// Text == source[Start:End].
type TextSegment struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Boundaries []int  `json:"boundaries"`
	Oversized  bool   `json:"oversized,omitempty"`
}

// Len returns the segment length in characters
func (s TextSegment) Len() int {
	return utf8.RuneCountInString(s.Text)
}

// Sentences returns how many sentences were packed into the segment
func (s TextSegment) Sentences() int {
	return len(s.Boundaries)
}
