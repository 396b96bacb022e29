package voices

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

const (
	DefaultPitch = "+0Hz"
	DefaultRate  = "+0%"
)

// Profile is a named synthesis configuration.
type Profile struct {
	Name  string `json:"name"`
	Voice string `json:"voice"`
	Pitch string `json:"pitch"`
	Rate  string `json:"rate"`
}

var (
	pitchPattern = regexp.MustCompile(`^[+-]\d+Hz$`)
	ratePattern  = regexp.MustCompile(`^[+-]\d+%$`)
)

// Validate checks the voice id and offset notation.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Voice) == "" {
		return fmt.Errorf("voice profile %q: voice id required", p.Name)
	}
	if !pitchPattern.MatchString(p.Pitch) {
		return fmt.Errorf("voice profile %q: pitch %q must look like +0Hz", p.Name, p.Pitch)
	}
	if !ratePattern.MatchString(p.Rate) {
		return fmt.Errorf("voice profile %q: rate %q must look like +0%%", p.Name, p.Rate)
	}
	return nil
}

// WithDefaults fills empty pitch, rate and name fields.
func (p Profile) WithDefaults() Profile {
	p.Voice = strings.TrimSpace(p.Voice)
	if strings.TrimSpace(p.Pitch) == "" {
		p.Pitch = DefaultPitch
	}
	if strings.TrimSpace(p.Rate) == "" {
		p.Rate = DefaultRate
	}
	if p.Name == "" {
		p.Name = p.Voice
	}
	return p
}

// RatePercent returns the rate offset as a signed percentage.
func (p Profile) RatePercent() int {
	var value int
	if _, err := fmt.Sscanf(strings.TrimSuffix(p.Rate, "%"), "%d", &value); err != nil {
		return 0
	}
	return value
}

var presets = []Profile{
	{Name: "Male - Default", Voice: "vi-VN-NamMinhNeural", Pitch: "+0Hz", Rate: "+0%"},
	{Name: "Male - Deep", Voice: "vi-VN-NamMinhNeural", Pitch: "-20Hz", Rate: "-5%"},
	{Name: "Male - Fast", Voice: "vi-VN-NamMinhNeural", Pitch: "+0Hz", Rate: "+10%"},
	{Name: "Female - Default", Voice: "vi-VN-HoaiMyNeural", Pitch: "+0Hz", Rate: "+0%"},
	{Name: "Female - Soft", Voice: "vi-VN-HoaiMyNeural", Pitch: "+10Hz", Rate: "-5%"},
	{Name: "Female - Fast", Voice: "vi-VN-HoaiMyNeural", Pitch: "+0Hz", Rate: "+10%"},
}

const (
	fallbackMale   = "Male - Default"
	fallbackFemale = "Female - Default"
)

var fold = cases.Fold()

// Presets returns the named presets.
func Presets() []Profile {
	out := make([]Profile, len(presets))
	copy(out, presets)
	return out
}

// Resolve finds a preset by name, case-insensitively. Unknown names fall
// back to the default female preset when they mention "female", otherwise
// to the default male preset; exact reports whether the name matched.
func Resolve(name string) (profile Profile, exact bool) {
	key := fold.String(strings.TrimSpace(name))
	for _, preset := range presets {
		if fold.String(preset.Name) == key {
			return preset, true
		}
	}
	fallback := fallbackMale
	if strings.Contains(key, "female") {
		fallback = fallbackFemale
	}
	for _, preset := range presets {
		if preset.Name == fallback {
			return preset, false
		}
	}
	return presets[0], false
}

// FromVoiceID builds a profile around a raw voice identifier.
func FromVoiceID(id, pitch, rate string) Profile {
	return Profile{Voice: id, Pitch: pitch, Rate: rate}.WithDefaults()
}

// Select prefers a named preset and otherwise builds a profile from the raw
// voice id and offsets. exact is false when a preset name had to fall back.
func Select(preset, voiceID, pitch, rate string) (Profile, bool) {
	if strings.TrimSpace(preset) != "" {
		return Resolve(preset)
	}
	return FromVoiceID(voiceID, pitch, rate), true
}
