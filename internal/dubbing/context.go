package dubbing

import (
	"errors"
	"fmt"
	"strings"
)

// PipelineContext carries everything Finish needs from Analyze. Callers may
// edit Segments between the two phases.
type PipelineContext struct {
	RunID               string    `json:"run_id,omitempty"`
	Segments            []Segment `json:"segments"`
	WorkDir             string    `json:"work_dir"`
	BackgroundAudioPath string    `json:"background_audio_path"`
	VocalsAudioPath     string    `json:"vocals_audio_path"`
	SourceVideoPath     string    `json:"source_video_path"`
}

// Validate reports whether the context can enter the finish phase.
func (pc *PipelineContext) Validate() error {
	if pc == nil {
		return errors.New("pipeline context is nil")
	}
	var problems []string
	if len(pc.Segments) == 0 {
		problems = append(problems, "no segments")
	}
	if strings.TrimSpace(pc.SourceVideoPath) == "" {
		problems = append(problems, "source video path missing")
	}
	if strings.TrimSpace(pc.BackgroundAudioPath) == "" {
		problems = append(problems, "background audio path missing")
	}
	if strings.TrimSpace(pc.WorkDir) == "" {
		problems = append(problems, "work dir missing")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid pipeline context: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Clone returns a deep copy so the caller's context is never mutated.
func (pc *PipelineContext) Clone() *PipelineContext {
	if pc == nil {
		return nil
	}
	out := *pc
	out.Segments = CloneSegments(pc.Segments)
	return &out
}
