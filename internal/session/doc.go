// Package session persists paused dubbing runs in SQLite so the analyze and
// finish phases can happen in separate invocations, with the transcript
// edited in between.
package session
