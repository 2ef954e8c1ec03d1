package vector

import (
	"context"
	"database/sql"
	"hash/fnv"
	"math"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"memento/internal/apperr"
	"memento/internal/model"
)

// embeddingDim is the fixed dimensionality of the hashed bag-of-words
// embedding this package computes. Memento has no bundled embedding model;
// a stable local hashing-trick vector is enough to exercise a real
// pgvector ANN index end to end without an external API dependency.
const embeddingDim = 64

// PGIndex is a pgvector-backed Backend. It stores one row per indexed
// memory in the same Postgres database as the workspace's own tables.
type PGIndex struct {
	db *sql.DB
}

// NewPGIndex opens (creating if needed) the embeddings table against db,
// which must be a Postgres connection — pgvector is a Postgres extension.
func NewPGIndex(ctx context.Context, db *sql.DB) (*PGIndex, error) {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS memory_embeddings (
			memory_id TEXT PRIMARY KEY,
			embedding vector(64) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, apperr.NewInternal("vector: apply schema", err)
		}
	}
	return &PGIndex{db: db}, nil
}

func (p *PGIndex) Index(ctx context.Context, memoryID, content string) error {
	vec := pgvector.NewVector(hashEmbed(content))
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO memory_embeddings (memory_id, embedding) VALUES ($1, $2)
		 ON CONFLICT (memory_id) DO UPDATE SET embedding = excluded.embedding`,
		memoryID, vec)
	if err != nil {
		return apperr.NewInternal("vector: index memory", err)
	}
	return nil
}

func (p *PGIndex) Search(ctx context.Context, query string, candidateIDs []string, limit int) ([]Match, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	qvec := pgvector.NewVector(hashEmbed(query))
	rows, err := p.db.QueryContext(ctx,
		`SELECT memory_id, 1 - (embedding <=> $1) AS score
		 FROM memory_embeddings
		 WHERE memory_id = ANY($2)
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		qvec, pq.Array(candidateIDs), limit)
	if err != nil {
		return nil, apperr.NewInternal("vector: search", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.MemoryID, &m.Score); err != nil {
			return nil, apperr.NewInternal("vector: scan match", err)
		}
		if m.Score < 0 {
			m.Score = 0
		}
		out = append(out, m)
	}
	return out, nil
}

var _ Backend = (*PGIndex)(nil)

// hashEmbed computes a deterministic, L2-normalized bag-of-words embedding
// for text using the hashing trick, so semantically identical tokens
// collide into the same dimension every time.
func hashEmbed(text string) []float32 {
	vec := make([]float32, embeddingDim)
	for _, tok := range model.Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%embeddingDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
