package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"redub/internal/language"
	"redub/internal/voices"
)

type voicesView struct {
	Voices  []voiceView      `json:"voices"`
	Presets []voices.Profile `json:"presets"`
}

type voiceView struct {
	ID     string `json:"id"`
	Gender string `json:"gender"`
	Locale string `json:"locale"`
}

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:         "voices",
		Short:       "List synthesis voices and presets",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			lang = strings.TrimSpace(lang)
			if lang != "" {
				if _, ok := language.Lookup(lang); !ok {
					return fmt.Errorf("unknown language %q (supported: %s)", lang, strings.Join(language.Names(), ", "))
				}
			}

			var view voicesView
			for _, v := range voices.Catalog() {
				if lang != "" && !voices.MatchesLanguage(v.ID, lang) {
					continue
				}
				view.Voices = append(view.Voices, voiceView{ID: v.ID, Gender: v.Gender, Locale: v.LocaleName()})
			}
			for _, p := range voices.Presets() {
				if lang != "" && !voices.MatchesLanguage(p.Voice, lang) {
					continue
				}
				view.Presets = append(view.Presets, p)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			if len(view.Voices) == 0 {
				fmt.Fprintf(out, "No catalog voices for %s\n", language.DisplayName(lang))
			} else {
				rows := make([][]string, 0, len(view.Voices))
				for _, v := range view.Voices {
					rows = append(rows, []string{v.ID, v.Gender, v.Locale})
				}
				fmt.Fprintln(out, renderTable([]string{"Voice", "Gender", "Locale"}, rows, nil))
			}
			if len(view.Presets) > 0 {
				rows := make([][]string, 0, len(view.Presets))
				for _, p := range view.Presets {
					rows = append(rows, []string{p.Name, p.Voice, p.Pitch, p.Rate})
				}
				fmt.Fprintln(out, renderTable([]string{"Preset", "Voice", "Pitch", "Rate"}, rows, nil))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "Only show voices for this language")
	return cmd
}
