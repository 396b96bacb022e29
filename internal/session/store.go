package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"redub/internal/config"
	"redub/internal/dubbing"
	"redub/internal/services"
)

const columns = "id, status, context_json, target_language, output_path, created_at, updated_at"

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.SessionDatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create stores a freshly analyzed context under a new id.
func (s *Store) Create(ctx context.Context, pc *dubbing.PipelineContext) (*Session, error) {
	if pc == nil {
		return nil, services.Wrap(services.ErrValidation, "session", "create", "context is nil", nil)
	}
	if strings.TrimSpace(pc.SourceVideoPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "create", "source video path is required", nil)
	}
	payload, err := json.Marshal(pc)
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Status:    StatusAnalyzed,
		Context:   pc.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	timestamp := now.Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (
            id, status, source_video_path, work_dir, context_json,
            segment_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Status, pc.SourceVideoPath, pc.WorkDir, string(payload),
		len(pc.Segments), timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get fetches a session by id. A unique id prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "get", "session id is required", nil)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM sessions WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY id = ? DESC LIMIT 2",
		id, escapeLike(id)+"%", id,
	)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	var matches []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return nil, services.Wrap(services.ErrNotFound, "session", "get", id, nil)
	case matches[0].ID == id || len(matches) == 1:
		return matches[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "session", "get", "ambiguous session id "+id, nil)
	}
}

// List returns sessions newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	query := "SELECT " + columns + " FROM sessions"
	var args []any
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// UpdateSegments replaces the stored segments after an external edit.
func (s *Store) UpdateSegments(ctx context.Context, id string, segments []dubbing.Segment) (*Session, error) {
	if err := dubbing.ValidateSegments(segments); err != nil {
		return nil, services.Wrap(services.ErrValidation, "session", "update segments", "", err)
	}
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Context.Segments = dubbing.CloneSegments(segments)
	payload, err := json.Marshal(sess.Context)
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := s.exec(ctx,
		"UPDATE sessions SET context_json = ?, segment_count = ?, updated_at = ? WHERE id = ?",
		string(payload), len(segments), sess.UpdatedAt.Format(time.RFC3339Nano), sess.ID,
	); err != nil {
		return nil, err
	}
	return sess, nil
}

// MarkFinished records the dubbed video produced from the session.
func (s *Store) MarkFinished(ctx context.Context, id, targetLanguage, outputPath string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.exec(ctx,
		"UPDATE sessions SET status = ?, target_language = ?, output_path = ?, updated_at = ? WHERE id = ?",
		StatusFinished, targetLanguage, outputPath, time.Now().UTC().Format(time.RFC3339Nano), sess.ID,
	)
}

// Delete removes a session. The work dir on disk is left alone.
func (s *Store) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.exec(ctx, "DELETE FROM sessions WHERE id = ?", sess.ID)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "session", "update", "", nil)
	}
	return nil
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		sess        Session
		status      string
		contextJSON string
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&sess.ID, &status, &contextJSON, &sess.TargetLanguage, &sess.OutputPath, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "session", "scan", "", err)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = Status(status)
	var pc dubbing.PipelineContext
	if err := json.Unmarshal([]byte(contextJSON), &pc); err != nil {
		return nil, fmt.Errorf("decode session %s context: %w", sess.ID, err)
	}
	sess.Context = &pc
	sess.CreatedAt = parseTime(createdRaw)
	sess.UpdatedAt = parseTime(updatedRaw)
	return &sess, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeLike(s string) string {
	return strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(s)
}
