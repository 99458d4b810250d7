package service

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/juridia/legal-assistant-be/database"
	"github.com/juridia/legal-assistant-be/types"
	"github.com/juridia/legal-assistant-be/utils"
	"golang.org/x/sync/errgroup"
)

// Chunks are embedded in groups so a large corpus does not hold every vector
// request in flight at once.
const ingestEmbedGroup = 32

// IngestService walks a source directory, extracts text, chunks it, embeds the
// chunks and upserts them into the vector index.
type IngestService struct {
	loader   *DocumentLoader
	chunker  *Chunker
	embedder EmbeddingProvider
	index    database.VectorIndex
	parallel int
}

func NewIngestService(loader *DocumentLoader, chunker *Chunker, embedder EmbeddingProvider, index database.VectorIndex, parallel int) *IngestService {
	if parallel <= 0 {
		parallel = 4
	}
	return &IngestService{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		parallel: parallel,
	}
}

// IndexDocuments ingests every supported file under sourceDir. With
// forceReindex, vectors previously stored for each source are cleared first.
// It returns the number of chunks indexed.
func (s *IngestService) IndexDocuments(ctx context.Context, sourceDir string, forceReindex bool) (int, error) {
	var paths []string
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if s.loader.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", sourceDir, err)
	}

	total := 0
	for _, path := range paths {
		n, err := s.indexFile(ctx, path, forceReindex)
		if err != nil {
			// One broken file must not abort the whole ingestion run.
			log.Printf("ingest: skipping %s: %v", path, err)
			continue
		}
		total += n
		log.Printf("ingest: indexed %d chunks from %s", n, filepath.Base(path))
	}
	return total, nil
}

func (s *IngestService) indexFile(ctx context.Context, path string, forceReindex bool) (int, error) {
	text, err := s.loader.Extract(path)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	if forceReindex {
		if err := s.index.DeleteBySource(ctx, source); err != nil {
			return 0, fmt.Errorf("clear previous vectors: %w", err)
		}
	}

	chunks := s.chunker.Chunk(text, types.DocumentMetadata{
		Title:  utils.FileTitle(path),
		Source: source,
	})
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for start := 0; start < len(chunks); start += ingestEmbedGroup {
		start := start
		end := start + ingestEmbedGroup
		if end > len(chunks) {
			end = len(chunks)
		}
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = chunks[i].Content
			}
			vs, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			copy(vectors[start:end], vs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	recs := make([]database.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		recs[i] = database.ChunkRecord{
			ID:      fmt.Sprintf("%s:%d", source, chunk.Index),
			Content: chunk.Content,
			Title:   chunk.Metadata.Title,
			Source:  source,
			Page:    chunk.Metadata.Page,
			Start:   chunk.Start,
			End:     chunk.End,
		}
	}
	if err := s.index.BatchUpsert(ctx, recs, vectors); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	return len(chunks), nil
}
