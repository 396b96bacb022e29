package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	maxLineBytes        = 1024 * 1024
	defaultPollInterval = 250 * time.Millisecond
)

// Filter selects log lines by run id and stage. Empty fields match anything.
type Filter struct {
	RunID string
	Stage string
}

// Match reports whether line carries the filter's fields, in either the
// console (key=value) or JSON ("key":"value") encoding.
func (f Filter) Match(line string) bool {
	return hasField(line, "run_id", f.RunID) && hasStage(line, f.Stage)
}

// Console lines carry the stage as a bracketed label after the level.
func hasStage(line, stage string) bool {
	stage = strings.TrimSpace(stage)
	if stage != "" && strings.Contains(line, " ["+stage+"] ") {
		return true
	}
	return hasField(line, "stage", stage)
}

func hasField(line, key, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	if strings.Contains(line, `"`+key+`":"`+value) {
		return true
	}
	return strings.Contains(line, key+"="+value)
}

// Last returns up to limit matching lines from the end of path and the file
// offset just past them. A missing file yields no lines and offset 0.
func Last(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ring := make([]string, limit)
	count, idx := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		if !filter.Match(line) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow polls path from offset and passes each new matching line to emit
// until ctx is cancelled or emit fails. A file that shrinks (rotated or
// truncated) is read again from the start. Cancellation returns nil.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, filter Filter, emit func(string) error) error {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		offset = next
		for _, line := range lines {
			if !filter.Match(line) {
				continue
			}
			if err := emit(line); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readFrom returns the complete lines written after offset. A trailing
// partial line is left for the next poll.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var lines []string
	for {
		chunk, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return lines, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(chunk))
		lines = append(lines, strings.TrimRight(chunk, "\r\n"))
	}
	return lines, offset, nil
}
