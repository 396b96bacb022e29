package voices

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	redublang "redub/internal/language"
)

// Gender values reported by the catalog.
const (
	Female = "Female"
	Male   = "Male"
)

// Voice is a known neural synthesis voice.
type Voice struct {
	ID     string
	Gender string
}

var catalog = []Voice{
	{ID: "vi-VN-HoaiMyNeural", Gender: Female},
	{ID: "vi-VN-NamMinhNeural", Gender: Male},
	{ID: "en-US-JennyNeural", Gender: Female},
	{ID: "en-US-GuyNeural", Gender: Male},
	{ID: "es-ES-ElviraNeural", Gender: Female},
	{ID: "es-ES-AlvaroNeural", Gender: Male},
	{ID: "fr-FR-DeniseNeural", Gender: Female},
	{ID: "fr-FR-HenriNeural", Gender: Male},
	{ID: "de-DE-KatjaNeural", Gender: Female},
	{ID: "de-DE-ConradNeural", Gender: Male},
	{ID: "ja-JP-NanamiNeural", Gender: Female},
	{ID: "ja-JP-KeitaNeural", Gender: Male},
	{ID: "ko-KR-SunHiNeural", Gender: Female},
	{ID: "ko-KR-InJoonNeural", Gender: Male},
	{ID: "zh-CN-XiaoxiaoNeural", Gender: Female},
	{ID: "zh-CN-YunxiNeural", Gender: Male},
}

// Catalog returns the known voices.
func Catalog() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)
	return out
}

// Locale parses the locale prefix of a voice id ("vi-VN-HoaiMyNeural" is
// vi-VN).
func Locale(voiceID string) (language.Tag, error) {
	parts := strings.Split(strings.TrimSpace(voiceID), "-")
	if len(parts) < 3 {
		return language.Und, fmt.Errorf("voice id %q has no locale prefix", voiceID)
	}
	tag, err := language.Parse(parts[0] + "-" + parts[1])
	if err != nil {
		return language.Und, fmt.Errorf("voice id %q: %w", voiceID, err)
	}
	return tag, nil
}

// LocaleName returns the English name of the voice's locale, e.g.
// "Vietnamese (Vietnam)".
func (v Voice) LocaleName() string {
	tag, err := Locale(v.ID)
	if err != nil {
		return ""
	}
	return display.English.Tags().Name(tag)
}

// LookupVoice finds a catalog entry by id, case-insensitively.
func LookupVoice(id string) (Voice, bool) {
	for _, voice := range catalog {
		if strings.EqualFold(voice.ID, strings.TrimSpace(id)) {
			return voice, true
		}
	}
	return Voice{}, false
}

// DefaultVoiceFor returns the first catalog voice matching the target
// language, preferring the exact locale over the base language. It returns
// an empty string when nothing matches.
func DefaultVoiceFor(target string) string {
	lang, ok := redublang.Lookup(target)
	if !ok {
		return ""
	}
	want, err := language.Parse(lang.Locale)
	if err != nil {
		return ""
	}
	wantBase, _ := want.Base()
	var baseMatch string
	for _, voice := range catalog {
		tag, err := Locale(voice.ID)
		if err != nil {
			continue
		}
		if tag.String() == want.String() {
			return voice.ID
		}
		if base, _ := tag.Base(); base == wantBase && baseMatch == "" {
			baseMatch = voice.ID
		}
	}
	return baseMatch
}

// MatchesLanguage reports whether the voice speaks the target language.
func MatchesLanguage(voiceID, target string) bool {
	lang, ok := redublang.Lookup(target)
	if !ok {
		return false
	}
	tag, err := Locale(voiceID)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	return base.String() == lang.Code
}
