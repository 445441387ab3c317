package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS lesson_sessions (
	id             TEXT PRIMARY KEY,
	topic          TEXT NOT NULL,
	slides         JSONB NOT NULL,
	quiz_questions JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps sessions in PostgreSQL with JSONB columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the lesson_sessions table if needed.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create lesson_sessions table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, sess Session) error {
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

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lesson_sessions (id, topic, slides, quiz_questions, created_at)
		 VALUES ($1, $2, $3::jsonb, $4::jsonb, $5)`,
		sess.ID, sess.Topic, string(slides), string(quiz), createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		sess         Session
		slides, quiz []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, topic, slides, quiz_questions, created_at
		 FROM lesson_sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.Topic, &slides, &quiz, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	if err := json.Unmarshal(slides, &sess.Slides); err != nil {
		return nil, fmt.Errorf("unmarshal slides: %w", err)
	}
	if err := json.Unmarshal(quiz, &sess.QuizQuestions); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
