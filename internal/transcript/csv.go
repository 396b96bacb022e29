package transcript

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"redub/internal/dubbing"
	"redub/internal/services"
)

var csvHeader = []string{"start", "end", "text"}

// WriteCSV writes segments as start,end,text rows with millisecond times.
func WriteCSV(w io.Writer, segments []dubbing.Segment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, seg := range segments {
		row := []string{
			formatSeconds(seg.Start),
			formatSeconds(seg.End),
			seg.Text,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a start,end,text table. The header row is optional. Rows
// with unparsable times, end <= start or empty text are rejected with their
// line number.
func ReadCSV(r io.Reader) ([]dubbing.Segment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.TrimLeadingSpace = true

	var segments []dubbing.Segment
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "transcript", "read csv", "", err)
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}
		seg, err := parseRow(record)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "transcript", "read csv", fmt.Sprintf("line %d", line), err)
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "transcript", "read csv", "no segments", nil)
	}
	return segments, nil
}

func isHeader(record []string) bool {
	for i, name := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(record[i]), name) {
			return false
		}
	}
	return true
}

func parseRow(record []string) (dubbing.Segment, error) {
	start, err := parseSeconds(record[0])
	if err != nil {
		return dubbing.Segment{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseSeconds(record[1])
	if err != nil {
		return dubbing.Segment{}, fmt.Errorf("end: %w", err)
	}
	text := strings.TrimSpace(record[2])
	if text == "" {
		return dubbing.Segment{}, errors.New("text is empty")
	}
	seg := dubbing.Segment{Start: start, End: end, Text: text}
	if err := seg.Validate(); err != nil {
		return dubbing.Segment{}, err
	}
	return seg, nil
}

func parseSeconds(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, ":") {
		return parseTimestamp(value)
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return seconds, nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(math.Round(seconds*1000)/1000, 'f', 3, 64)
}
