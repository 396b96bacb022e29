package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVoicesFiltersByLanguage(t *testing.T) {
	out, _, err := runCLI(t, []string{"voices", "--language", "Spanish"}, "")
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	requireContains(t, out, "es-ES-ElviraNeural")
	if strings.Contains(out, "vi-VN-HoaiMyNeural") {
		t.Fatalf("expected only spanish voices, got %q", out)
	}
}

func TestVoicesJSON(t *testing.T) {
	out, _, err := runCLI(t, []string{"--json", "voices", "--language", "vi"}, "")
	if err != nil {
		t.Fatalf("voices --json: %v", err)
	}
	var view voicesView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(view.Voices) != 2 {
		t.Fatalf("expected 2 vietnamese voices, got %+v", view.Voices)
	}
	if len(view.Presets) == 0 {
		t.Fatal("expected vietnamese presets")
	}
	for _, v := range view.Voices {
		if !strings.HasPrefix(v.Locale, "Vietnamese") {
			t.Fatalf("unexpected locale %q", v.Locale)
		}
	}
}

func TestVoicesUnknownLanguage(t *testing.T) {
	if _, _, err := runCLI(t, []string{"voices", "--language", "Klingon"}, ""); err == nil {
		t.Fatal("expected unknown language error")
	}
}
