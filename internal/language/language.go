package language

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a supported dubbing target.
type Language struct {
	Name   string // English display name used in prompts
	Code   string // ISO 639-1
	Locale string // BCP 47 locale of the default synthesis voice
}

var languages = []Language{
	{Name: "Vietnamese", Code: "vi", Locale: "vi-VN"},
	{Name: "English", Code: "en", Locale: "en-US"},
	{Name: "Spanish", Code: "es", Locale: "es-ES"},
	{Name: "French", Code: "fr", Locale: "fr-FR"},
	{Name: "German", Code: "de", Locale: "de-DE"},
	{Name: "Japanese", Code: "ja", Locale: "ja-JP"},
	{Name: "Korean", Code: "ko", Locale: "ko-KR"},
	{Name: "Chinese", Code: "zh", Locale: "zh-CN"},
	{Name: "Italian", Code: "it", Locale: "it-IT"},
	{Name: "Portuguese", Code: "pt", Locale: "pt-BR"},
	{Name: "Russian", Code: "ru", Locale: "ru-RU"},
	{Name: "Hindi", Code: "hi", Locale: "hi-IN"},
	{Name: "Thai", Code: "th", Locale: "th-TH"},
	{Name: "Indonesian", Code: "id", Locale: "id-ID"},
}

var (
	byCode map[string]int
	byName map[string]int
)

func init() {
	byCode = make(map[string]int, len(languages))
	byName = make(map[string]int, len(languages))
	for i, lang := range languages {
		byCode[lang.Code] = i
		byName[strings.ToLower(lang.Name)] = i
	}
}

// Supported returns the supported targets in display order.
func Supported() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Lookup resolves a language name, ISO 639-1/639-2 code or BCP 47 tag.
func Lookup(input string) (Language, bool) {
	key := strings.ToLower(strings.TrimSpace(input))
	if key == "" {
		return Language{}, false
	}
	if i, ok := byName[key]; ok {
		return languages[i], true
	}
	if i, ok := byCode[key]; ok {
		return languages[i], true
	}
	tag, err := language.Parse(key)
	if err != nil {
		return Language{}, false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return Language{}, false
	}
	if i, ok := byCode[base.String()]; ok {
		return languages[i], true
	}
	return Language{}, false
}

// DisplayName returns the canonical English name for input, or input
// unchanged when it is not a known language. Translation accepts free-text
// targets, so unknown names still pass through.
func DisplayName(input string) string {
	if lang, ok := Lookup(input); ok {
		return lang.Name
	}
	return strings.TrimSpace(input)
}

// ToISO2 converts a recognised name or code to ISO 639-1. Unknown input
// yields an empty string.
func ToISO2(input string) string {
	if lang, ok := Lookup(input); ok {
		return lang.Code
	}
	tag, err := language.Parse(strings.TrimSpace(input))
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No || len(base.String()) != 2 {
		return ""
	}
	return base.String()
}

// ToISO3 converts a recognised name or code to ISO 639-2/T, or "und".
func ToISO3(input string) string {
	code := ToISO2(input)
	if code == "" {
		return "und"
	}
	base, err := language.ParseBase(code)
	if err != nil {
		return "und"
	}
	return base.ISO3()
}

// Names returns the display names of the supported targets.
func Names() []string {
	out := make([]string, 0, len(languages))
	for _, lang := range languages {
		out = append(out, lang.Name)
	}
	return out
}
