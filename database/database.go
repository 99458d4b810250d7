package database

import "context"

// ChunkRecord is a document chunk as stored in a vector index.
type ChunkRecord struct {
	ID      string
	Content string
	Title   string
	Source  string
	Page    int
	Start   int
	End     int
}

// SearchHit is one nearest-neighbor result. Score is a raw cosine similarity
// in [-1,1] on every backend; hits below the caller's threshold are never
// returned.
type SearchHit struct {
	ChunkID string
	Content string
	Title   string
	Source  string
	Page    int
	Start   int
	End     int
	Score   float64
}

// VectorIndex is the contract both backends must satisfy interchangeably. The
// retrieval engine never knows which backend it talks to.
type VectorIndex interface {
	// Name identifies the backend for logs.
	Name() string

	// Upsert stores one chunk with its embedding.
	Upsert(ctx context.Context, rec ChunkRecord, vector []float32) error

	// BatchUpsert stores many chunks; len(recs) must equal len(vectors).
	BatchUpsert(ctx context.Context, recs []ChunkRecord, vectors [][]float32) error

	// Search returns at most k hits with score >= threshold, ordered by
	// descending score.
	Search(ctx context.Context, vector []float32, k int, threshold float64) ([]SearchHit, error)

	// DeleteBySource removes every chunk indexed for the given source.
	DeleteBySource(ctx context.Context, source string) error

	// Reset drops and recreates the whole collection.
	Reset(ctx context.Context) error
}
