package mixer

import (
	"path/filepath"
	"strings"
)

// Output formats selected by destination extension.
const (
	FormatMP3  = "mp3"
	FormatWAV  = "wav"
	FormatOGG  = "ogg"
	FormatFLAC = "flac"
)

var encoderArgs = map[string][]string{
	FormatMP3:  {"-c:a", "libmp3lame", "-q:a", "2"},
	FormatOGG:  {"-c:a", "libvorbis", "-q:a", "5"},
	FormatFLAC: {"-c:a", "flac"},
}

// OutputFormat picks the container for dest from its extension. Unsupported
// extensions fall back to mp3 and the returned path carries a .mp3
// extension instead.
func OutputFormat(dest string) (format, path string) {
	ext := filepath.Ext(dest)
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case FormatMP3:
		return FormatMP3, dest
	case FormatWAV:
		return FormatWAV, dest
	case FormatOGG:
		return FormatOGG, dest
	case FormatFLAC:
		return FormatFLAC, dest
	}
	return FormatMP3, strings.TrimSuffix(dest, ext) + "." + FormatMP3
}

// SupportedFormat reports whether name is a known output format.
func SupportedFormat(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatMP3, FormatWAV, FormatOGG, FormatFLAC:
		return true
	}
	return false
}
