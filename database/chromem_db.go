package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

const chromemCollection = "legal_chunks"

// ChromemStore is the fallback vector index backend. It is embedded in the
// process and optionally persisted to disk, so it stays available when the
// weaviate cluster is not.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore opens a persistent store under dir, or an in-memory one when
// dir is empty.
func NewChromemStore(dir string) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}

	// Embeddings are always supplied by the embedding provider; chromem must
	// never compute its own.
	ef := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("external embeddings only")
	}

	col, err := db.GetOrCreateCollection(chromemCollection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
	}, nil
}

func (s *ChromemStore) Name() string { return "chromem" }

func (s *ChromemStore) Upsert(ctx context.Context, rec ChunkRecord, vector []float32) error {
	return s.collection.AddDocument(ctx, chromemDocument(rec, vector))
}

func (s *ChromemStore) BatchUpsert(ctx context.Context, recs []ChunkRecord, vectors [][]float32) error {
	if len(recs) != len(vectors) {
		return fmt.Errorf("records and vectors length mismatch: %d != %d", len(recs), len(vectors))
	}
	if len(recs) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(recs))
	for i, rec := range recs {
		docs[i] = chromemDocument(rec, vectors[i])
	}
	return s.collection.AddDocuments(ctx, docs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, k int, threshold float64) ([]SearchHit, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem requires nResults <= collection size.
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	var hits []SearchHit
	for _, r := range results {
		score := float64(r.Similarity)
		if score < threshold {
			continue
		}
		hits = append(hits, SearchHit{
			ChunkID: r.ID,
			Content: r.Content,
			Title:   r.Metadata["title"],
			Source:  r.Metadata["source"],
			Page:    atoiOrZero(r.Metadata["page"]),
			Start:   atoiOrZero(r.Metadata["start"]),
			End:     atoiOrZero(r.Metadata["end"]),
			Score:   score,
		})
	}
	return hits, nil
}

func (s *ChromemStore) DeleteBySource(ctx context.Context, source string) error {
	if s.collection.Count() == 0 {
		return nil
	}
	return s.collection.Delete(ctx, map[string]string{"source": source}, nil)
}

func (s *ChromemStore) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(chromemCollection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(chromemCollection, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.collection = col
	return nil
}

func chromemDocument(rec ChunkRecord, vector []float32) chromem.Document {
	return chromem.Document{
		ID:        rec.ID,
		Content:   rec.Content,
		Embedding: vector,
		Metadata: map[string]string{
			"title":  rec.Title,
			"source": rec.Source,
			"page":   strconv.Itoa(rec.Page),
			"start":  strconv.Itoa(rec.Start),
			"end":    strconv.Itoa(rec.End),
		},
	}
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
