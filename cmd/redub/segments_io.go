package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"redub/internal/dubbing"
	"redub/internal/fileutil"
	"redub/internal/transcript"
)

const (
	formatCSV  = "csv"
	formatSRT  = "srt"
	formatJSON = "json"
)

// exportFormat resolves an explicit format name, falling back to the
// destination extension and finally to CSV.
func exportFormat(explicit, dest string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(explicit))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(dest)), ".")
	}
	switch format {
	case "", formatCSV:
		return formatCSV, nil
	case formatSRT, formatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported segment format %q (use csv, srt or json)", format)
	}
}

func writeSegments(w io.Writer, format string, segments []dubbing.Segment) error {
	switch format {
	case formatSRT:
		return transcript.WriteSRT(w, segments)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(segments)
	default:
		return transcript.WriteCSV(w, segments)
	}
}

// exportSegments writes segments to dest atomically, or to stdout when dest
// is empty or "-".
func exportSegments(stdout io.Writer, dest, format string, segments []dubbing.Segment) error {
	format, err := exportFormat(format, dest)
	if err != nil {
		return err
	}
	dest = strings.TrimSpace(dest)
	if dest == "" || dest == "-" {
		return writeSegments(stdout, format, segments)
	}
	return fileutil.WriteAtomic(dest, 0o644, func(w io.Writer) error {
		return writeSegments(w, format, segments)
	})
}

// importSegments reads an edited transcript. JSON files hold a segment array,
// anything else is parsed as CSV.
func importSegments(path string) ([]dubbing.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segments file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var segments []dubbing.Segment
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&segments); err != nil {
			return nil, fmt.Errorf("decode segments json: %w", err)
		}
		if err := dubbing.ValidateSegments(segments); err != nil {
			return nil, err
		}
		return segments, nil
	}
	return transcript.ReadCSV(f)
}

func segmentRows(segments []dubbing.Segment) [][]string {
	rows := make([][]string, 0, len(segments))
	for i, seg := range segments {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			formatClock(seg.Start),
			formatClock(seg.End),
			truncate(seg.Text, 60),
		})
	}
	return rows
}

func renderSegments(segments []dubbing.Segment) string {
	return renderTable(
		[]string{"#", "Start", "End", "Text"},
		segmentRows(segments),
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	)
}
