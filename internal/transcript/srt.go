package transcript

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"redub/internal/dubbing"
)

// WriteSRT renders segments as numbered SRT cues.
func WriteSRT(w io.Writer, segments []dubbing.Segment) error {
	bw := bufio.NewWriter(w)
	for i, seg := range segments {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimestamp(seg.Start), formatTimestamp(seg.End), strings.TrimSpace(seg.Text)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	msTotal := int(seconds*1000 + 0.5)
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// parseTimestamp accepts HH:MM:SS,mmm or HH:MM:SS.mmm, and MM:SS forms.
func parseTimestamp(value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		if last {
			seconds, err := strconv.ParseFloat(part, 64)
			if err != nil || seconds < 0 || seconds >= 60 {
				return 0, fmt.Errorf("invalid timestamp %q", value)
			}
			total = total*60 + seconds
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || (i > 0 && n >= 60) {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		total = total*60 + float64(n)
	}
	return total, nil
}
