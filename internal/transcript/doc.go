// Package transcript reads and writes the editable forms of a paused
// dubbing run: a start,end,text CSV of segments, an SRT export for review
// in a player, and the full pipeline context as JSON.
package transcript
