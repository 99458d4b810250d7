package types

import "fmt"

// DocumentChunk is a bounded slice of a document used as the unit of indexing.
// Start/End are byte offsets into the source text so excerpts can be traced
// back for display.
type DocumentChunk struct {
	Content  string           // The chunk text
	Index    int              // Ordered position within the document
	Start    int              // Span start in the source text, inclusive
	End      int              // Span end in the source text, exclusive
	Metadata DocumentMetadata // Associated metadata for the chunk
}

// DocumentMetadata carries the source attribution for a chunk.
type DocumentMetadata struct {
	Title      string // Document title
	Source     string // Source file name or label
	Page       int    // Page number the chunk starts on, 0 when unknown
	TotalPages int    // Total number of pages in the document, 0 when unknown
}

// ChunkingConfig contains configuration options for document splitting.
type ChunkingConfig struct {
	ChunkSize int // Maximum size for text chunks
	Overlap   int // Size of overlap between chunks, must be < ChunkSize
}

// ContextDocument is an ad-hoc text segment supplied by the caller alongside a
// query. It is always treated as relevant evidence, independent of similarity.
type ContextDocument struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Page    int    `json:"page,omitempty"`
}

// EvidenceItem is a retrieval-time view over a chunk or context document.
// It is never persisted; it exists only while a query is being answered.
type EvidenceItem struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Page       int     `json:"page,omitempty"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
	Contextual bool    `json:"contextual"`
}

// SpanKey identifies an evidence item by its source and character span, used
// to drop duplicate excerpts during retrieval.
func (e EvidenceItem) SpanKey() string {
	return fmt.Sprintf("%s:%d-%d", e.Source, e.Start, e.End)
}
