// Package voices defines synthesis voice profiles: a voice identifier plus
// pitch and rate offsets in the edge-tts notation ("+10Hz", "-5%").
//
// Named presets cover the common male/female variants; unknown preset names
// fall back by gender keyword. The catalog lists well-known neural voices
// with their locale so a default voice can be chosen per target language.
package voices
