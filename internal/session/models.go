package session

import (
	"time"

	"redub/internal/dubbing"
)

// Status is where a session sits between the two pipeline phases.
type Status string

const (
	StatusAnalyzed Status = "analyzed"
	StatusFinished Status = "finished"
)

// Session is a stored pipeline context plus bookkeeping.
type Session struct {
	ID             string
	Status         Status
	Context        *dubbing.PipelineContext
	TargetLanguage string
	OutputPath     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SegmentCount returns the number of segments in the stored context.
func (s *Session) SegmentCount() int {
	if s == nil || s.Context == nil {
		return 0
	}
	return len(s.Context.Segments)
}

// SourceVideoPath returns the video the session was analyzed from.
func (s *Session) SourceVideoPath() string {
	if s == nil || s.Context == nil {
		return ""
	}
	return s.Context.SourceVideoPath
}
