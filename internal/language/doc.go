// Package language maps the free-text target language names users type
// ("Vietnamese", "vi", "vie", "vi-VN") to a canonical entry carrying the
// English display name used in translation prompts, the ISO codes used by
// transcription engines, and the locale used to pick a default voice.
package language
