package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrNoAudioTrack         = errors.New("no audio track")
	ErrExternalTool         = errors.New("external tool error")
	ErrSeparation           = errors.New("separation failed")
	ErrTranscription        = errors.New("transcription failed")
	ErrClientNotInitialized = errors.New("client not initialized")
	ErrTranslation          = errors.New("translation failed")
	ErrSynthesis            = errors.New("synthesis failed")
	ErrMix                  = errors.New("mix failed")
	ErrMux                  = errors.New("mux failed")
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// StageError reports which pipeline stage failed. Unwrap exposes the cause so
// sentinel markers still match through errors.Is.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Stage + " stage failed"
	}
	return e.Stage + " stage: " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// AsStage wraps err with the stage name. A nil err stays nil, and an error
// that already carries a StageError is returned unchanged.
func AsStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StageError
	if errors.As(err, &existing) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// FailedStage returns the stage recorded on err, if any.
func FailedStage(err error) (string, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}
