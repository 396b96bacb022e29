package voices

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		voice string
		pitch string
		rate  string
		exact bool
	}{
		{"Female - Soft", "vi-VN-HoaiMyNeural", "+10Hz", "-5%", true},
		{"male - deep", "vi-VN-NamMinhNeural", "-20Hz", "-5%", true},
		{"Female - Whisper", "vi-VN-HoaiMyNeural", "+0Hz", "+0%", false},
		{"male narrator", "vi-VN-NamMinhNeural", "+0Hz", "+0%", false},
		{"robot", "vi-VN-NamMinhNeural", "+0Hz", "+0%", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, exact := Resolve(tt.name)
			if exact != tt.exact {
				t.Fatalf("exact = %v, want %v", exact, tt.exact)
			}
			if got.Voice != tt.voice || got.Pitch != tt.pitch || got.Rate != tt.rate {
				t.Fatalf("unexpected profile %#v", got)
			}
		})
	}
}

func TestProfileValidate(t *testing.T) {
	if err := FromVoiceID("en-US-GuyNeural", "", "").Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
	bad := []Profile{
		{Name: "x", Voice: "", Pitch: "+0Hz", Rate: "+0%"},
		{Name: "x", Voice: "v", Pitch: "10Hz", Rate: "+0%"},
		{Name: "x", Voice: "v", Pitch: "+0Hz", Rate: "+5"},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("expected validation error for %#v", p)
		}
	}
}

func TestSelectAndRatePercent(t *testing.T) {
	p, exact := Select("", "ja-JP-NanamiNeural", "+5Hz", "-10%")
	if !exact || p.Name != "ja-JP-NanamiNeural" || p.RatePercent() != -10 {
		t.Fatalf("unexpected raw profile %#v", p)
	}
	p, _ = Select("Male - Fast", "ignored", "", "")
	if p.Voice != "vi-VN-NamMinhNeural" || p.RatePercent() != 10 {
		t.Fatalf("unexpected preset %#v", p)
	}
}

func TestCatalogLocales(t *testing.T) {
	voice, ok := LookupVoice("VI-VN-HOAIMYNEURAL")
	if !ok {
		t.Fatal("expected case-insensitive lookup")
	}
	if name := voice.LocaleName(); !strings.HasPrefix(name, "Vietnamese") {
		t.Fatalf("unexpected locale name %q", name)
	}
	if _, err := Locale("nova"); err == nil {
		t.Fatal("expected error for voice without locale")
	}
}

func TestDefaultVoiceFor(t *testing.T) {
	tests := map[string]string{
		"Vietnamese": "vi-VN-HoaiMyNeural",
		"en":         "en-US-JennyNeural",
		"Korean":     "ko-KR-SunHiNeural",
		"Klingon":    "",
		"Thai":       "",
	}
	for target, want := range tests {
		if got := DefaultVoiceFor(target); got != want {
			t.Errorf("DefaultVoiceFor(%q) = %q, want %q", target, got, want)
		}
	}
	if !MatchesLanguage("ja-JP-NanamiNeural", "Japanese") {
		t.Fatal("expected Japanese voice to match")
	}
	if MatchesLanguage("ja-JP-NanamiNeural", "Vietnamese") {
		t.Fatal("unexpected match")
	}
}
