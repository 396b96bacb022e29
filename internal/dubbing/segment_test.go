package dubbing

import (
	"strings"
	"testing"
)

func TestSegmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		seg     Segment
		wantErr string
	}{
		{name: "valid", seg: Segment{Start: 0, End: 1.5, Text: "hi"}},
		{name: "negative start", seg: Segment{Start: -0.1, End: 1}, wantErr: "negative"},
		{name: "end equals start", seg: Segment{Start: 2, End: 2}, wantErr: "must be after"},
		{name: "end before start", seg: Segment{Start: 3, End: 2}, wantErr: "must be after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSegmentsReportsIndex(t *testing.T) {
	if err := ValidateSegments(nil); err == nil {
		t.Fatal("expected error for empty segments")
	}
	segs := []Segment{{Start: 0, End: 1}, {Start: 1, End: 0.5}}
	err := ValidateSegments(segs)
	if err == nil || !strings.HasPrefix(err.Error(), "segment 1:") {
		t.Fatalf("expected index in error, got %v", err)
	}
}

func TestFirstOutOfOrder(t *testing.T) {
	if got := FirstOutOfOrder([]Segment{{Start: 0}, {Start: 0}, {Start: 2}}); got != -1 {
		t.Fatalf("expected ordered, got %d", got)
	}
	if got := FirstOutOfOrder([]Segment{{Start: 0}, {Start: 3}, {Start: 2}}); got != 2 {
		t.Fatalf("expected index 2, got %d", got)
	}
}

func TestPipelineContextCloneIsDeep(t *testing.T) {
	pc := &PipelineContext{
		Segments:            []Segment{{Start: 0, End: 1, Text: "a"}},
		WorkDir:             "/w",
		BackgroundAudioPath: "/w/bg.wav",
		SourceVideoPath:     "/v.mp4",
	}
	clone := pc.Clone()
	clone.Segments[0].Text = "changed"
	if pc.Segments[0].Text != "a" {
		t.Fatal("clone shares segment storage")
	}
	if err := pc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	var nilCtx *PipelineContext
	if nilCtx.Clone() != nil || nilCtx.Validate() == nil {
		t.Fatal("nil context should clone to nil and fail validation")
	}
}

func TestPipelineContextValidateListsProblems(t *testing.T) {
	err := (&PipelineContext{}).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"no segments", "source video", "background audio", "work dir"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
