package lesson

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	slides_content TEXT NOT NULL,
	quiz_questions TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore keeps sessions in a single SQLite table with JSON text
// columns for slides and questions.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the sessions table if needed.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess Session) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	slides, err := json.Marshal(sess.Slides)
	if err != nil {
		return fmt.Errorf("marshal slides: %w", err)
	}
	quiz, err := json.Marshal(sess.QuizQuestions)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}

	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, query, slides_content, quiz_questions, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Topic, string(slides), string(quiz), createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		sess            Session
		slides, quiz    string
		createdAtString string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, slides_content, quiz_questions, created_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Topic, &slides, &quiz, &createdAtString)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	if err := json.Unmarshal([]byte(slides), &sess.Slides); err != nil {
		return nil, fmt.Errorf("unmarshal slides: %w", err)
	}
	if err := json.Unmarshal([]byte(quiz), &sess.QuizQuestions); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}
	sess.CreatedAt = parseSQLiteTime(createdAtString)
	return &sess, nil
}

func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// parseSQLiteTime accepts our RFC 3339 values and SQLite's
// CURRENT_TIMESTAMP format for rows written by other tools.
func parseSQLiteTime(v string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
