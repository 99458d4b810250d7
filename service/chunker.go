package service

import (
	"strings"

	"github.com/juridia/legal-assistant-be/types"
)

// Chunker splits raw document text into overlapping segments for indexing.
// Splitting prefers paragraph and sentence boundaries before falling back to a
// word boundary and finally a hard cut, so legal clauses are not severed
// mid-sentence.
type Chunker struct {
	chunkSize int // Maximum size of each text chunk
	overlap   int // Size of overlap between chunks
}

var DefaultChunkingConfig = types.ChunkingConfig{
	ChunkSize: 1000,
	Overlap:   200,
}

func NewChunker(cfg types.ChunkingConfig) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkingConfig.ChunkSize
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 2
	}
	return &Chunker{
		chunkSize: cfg.ChunkSize,
		overlap:   cfg.Overlap,
	}
}

// Chunk splits text into ordered overlapping chunks, each recording its
// character span in the original text. Empty input yields no chunks. The same
// text and parameters always produce the same sequence.
func (c *Chunker) Chunk(text string, metadata types.DocumentMetadata) []types.DocumentChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	textLen := len(text)
	if textLen <= c.chunkSize {
		return []types.DocumentChunk{
			{
				Content:  text,
				Index:    0,
				Start:    0,
				End:      textLen,
				Metadata: metadata,
			},
		}
	}

	var chunks []types.DocumentChunk
	currentPos := 0
	for currentPos < textLen {
		chunkEnd := currentPos + c.chunkSize
		if chunkEnd >= textLen {
			chunks = append(chunks, types.DocumentChunk{
				Content:  text[currentPos:],
				Index:    len(chunks),
				Start:    currentPos,
				End:      textLen,
				Metadata: metadata,
			})
			break
		}

		cut := c.findBoundary(text, currentPos, chunkEnd)
		chunks = append(chunks, types.DocumentChunk{
			Content:  text[currentPos:cut],
			Index:    len(chunks),
			Start:    currentPos,
			End:      cut,
			Metadata: metadata,
		})

		next := cut - c.overlap
		// Ensure we make progress even with a large overlap
		if next <= currentPos {
			next = cut
		}
		currentPos = next
	}
	return chunks
}

// findBoundary picks the cut position for a chunk spanning [start, limit):
// the last paragraph break, else the last sentence end, else the last space,
// else the hard limit.
func (c *Chunker) findBoundary(text string, start, limit int) int {
	if idx := strings.LastIndex(text[start:limit], "\n\n"); idx > 0 {
		return start + idx + 2
	}
	for i := limit - 1; i > start; i-- {
		if text[i] == '.' || text[i] == '?' || text[i] == '!' || text[i] == '\n' {
			return i + 1
		}
	}
	for i := limit - 1; i > start; i-- {
		if text[i] == ' ' {
			return i + 1
		}
	}
	return limit
}
