package dubbing

import (
	"errors"
	"fmt"
	"strings"
)

// Segment is a timestamped span of speech. Start and End are seconds on the
// source video's timeline; AudioPath is set once the segment is synthesized.
type Segment struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
	AudioPath string  `json:"audio_path,omitempty"`
}

// Validate checks the segment's timing.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("start %.3f is negative", s.Start)
	}
	if s.End <= s.Start {
		return fmt.Errorf("end %.3f must be after start %.3f", s.End, s.Start)
	}
	return nil
}

// Duration returns End minus Start in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Synthesized reports whether the segment carries an audio clip path.
func (s Segment) Synthesized() bool {
	return strings.TrimSpace(s.AudioPath) != ""
}

// Texts returns the text of each segment in order.
func Texts(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, seg := range segments {
		out[i] = seg.Text
	}
	return out
}

// CloneSegments returns an independent copy of segments.
func CloneSegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}

// FirstOutOfOrder returns the index of the first segment whose start is
// before its predecessor's, or -1 when the sequence is non-decreasing.
func FirstOutOfOrder(segments []Segment) int {
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].Start {
			return i
		}
	}
	return -1
}

// ValidateSegments checks every segment and reports the first failure with
// its index.
func ValidateSegments(segments []Segment) error {
	if len(segments) == 0 {
		return errors.New("no segments")
	}
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}
