// Command redub dubs a video into another language: it separates the
// soundtrack, transcribes the speech, and after an optional transcript edit
// translates, re-voices and remuxes it.
package main
