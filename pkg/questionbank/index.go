package questionbank

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/talentecho/talentecho/pkg/provider/embeddings"
)

// ddlQuestions returns the index DDL with the embedding dimension baked into
// the vector column type.
func ddlQuestions(dimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS questions (
    id         TEXT         PRIMARY KEY,
    text       TEXT         NOT NULL,
    embedding  vector(%d),
    asked_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_questions_embedding
    ON questions USING hnsw (embedding vector_cosine_ops);
`, dimensions)
}

// Index is a pgvector-backed store of previously asked questions supporting
// nearest-neighbour retrieval. All methods are safe for concurrent use.
type Index struct {
	pool     *pgxpool.Pool
	embedder embeddings.Provider
}

// NewIndex connects to the database at dsn, registers pgvector types on every
// connection, and ensures the questions table exists with the embedder's
// dimensionality. Changing the embedding model after the first migration
// requires a manual schema change.
func NewIndex(ctx context.Context, dsn string, embedder embeddings.Provider) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("questionbank: embedder must not be nil")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("questionbank: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("questionbank: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("questionbank: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlQuestions(embedder.Dimensions())); err != nil {
		pool.Close()
		return nil, fmt.Errorf("questionbank: migrate: %w", err)
	}
	return &Index{pool: pool, embedder: embedder}, nil
}

// Add embeds a question and upserts it. The row ID derives from the
// normalised text, so re-asking a question refreshes its timestamp instead of
// duplicating it.
func (ix *Index) Add(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("questionbank: add: empty question")
	}
	vec, err := ix.embedder.Embed(ctx, question)
	if err != nil {
		return fmt.Errorf("questionbank: embed: %w", err)
	}

	const q = `
		INSERT INTO questions (id, text, embedding, asked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
		    text      = EXCLUDED.text,
		    embedding = EXCLUDED.embedding,
		    asked_at  = EXCLUDED.asked_at`

	_, err = ix.pool.Exec(ctx, q, questionID(question), question, pgvector.NewVector(vec), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("questionbank: add: %w", err)
	}
	return nil
}

// AddAll indexes every question in the slice, stopping at the first failure.
func (ix *Index) AddAll(ctx context.Context, questions []string) error {
	for _, q := range questions {
		if err := ix.Add(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Similar returns up to k stored questions closest to text by cosine
// distance, most similar first.
func (ix *Index) Similar(ctx context.Context, text string, k int) ([]string, error) {
	if k <= 0 {
		return []string{}, nil
	}
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("questionbank: embed query: %w", err)
	}

	const q = `
		SELECT text
		FROM   questions
		ORDER  BY embedding <=> $1
		LIMIT  $2`

	rows, err := ix.pool.Query(ctx, q, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("questionbank: similar: %w", err)
	}
	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var text string
		err := row.Scan(&text)
		return text, err
	})
	if err != nil {
		return nil, fmt.Errorf("questionbank: scan rows: %w", err)
	}
	if questions == nil {
		questions = []string{}
	}
	return questions, nil
}

// Close releases all connections held by the underlying pool.
func (ix *Index) Close() {
	ix.pool.Close()
}

// questionID derives a stable row ID from the normalised question text.
func questionID(question string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:16])
}
