package service

import (
	"context"
	"log"
	"sort"

	"github.com/juridia/legal-assistant-be/database"
	"github.com/juridia/legal-assistant-be/types"
)

// RetrievalService assembles the ordered evidence list for a query: indexed
// chunks above the similarity threshold plus whatever contextual documents the
// caller supplied. Retrieval failures degrade, they never fail the query.
type RetrievalService struct {
	embedder       EmbeddingProvider
	index          database.VectorIndex
	topK           int
	threshold      float64
	evidenceBudget int // total evidence characters
}

func NewRetrievalService(embedder EmbeddingProvider, index database.VectorIndex, topK int, threshold float64, evidenceBudget int) *RetrievalService {
	if topK <= 0 {
		topK = 3
	}
	if evidenceBudget <= 0 {
		evidenceBudget = 6000
	}
	return &RetrievalService{
		embedder:       embedder,
		index:          index,
		topK:           topK,
		threshold:      threshold,
		evidenceBudget: evidenceBudget,
	}
}

// Retrieve returns evidence ordered contextual-first, then by descending
// similarity. An empty result is a valid outcome.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, contextDocs []types.ContextDocument) []types.EvidenceItem {
	evidence := make([]types.EvidenceItem, 0, len(contextDocs)+s.topK)
	for _, doc := range contextDocs {
		evidence = append(evidence, types.EvidenceItem{
			Content:    doc.Content,
			Source:     doc.Source,
			Page:       doc.Page,
			Start:      0,
			End:        len(doc.Content),
			Contextual: true,
		})
	}

	evidence = append(evidence, s.searchIndexed(ctx, query)...)
	evidence = dedupeEvidence(evidence)
	rankEvidence(evidence)
	return s.capBudget(evidence)
}

// searchIndexed embeds the query and searches the vector index. Any failure
// along the way drops indexed retrieval for this query only.
func (s *RetrievalService) searchIndexed(ctx context.Context, query string) []types.EvidenceItem {
	if s.embedder == nil || s.index == nil {
		return nil
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("retrieval degraded: embedding failed: %v", err)
		return nil
	}
	hits, err := s.index.Search(ctx, vector, s.topK, s.threshold)
	if err != nil {
		log.Printf("retrieval degraded: index search failed: %v", err)
		return nil
	}
	items := make([]types.EvidenceItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, types.EvidenceItem{
			Content: hit.Content,
			Source:  hit.Source,
			Page:    hit.Page,
			Start:   hit.Start,
			End:     hit.End,
			Score:   hit.Score,
		})
	}
	return items
}

// dedupeEvidence drops items whose source+span coincide, keeping the
// highest-scoring instance. Contextual items win ties: the caller explicitly
// asked about them.
func dedupeEvidence(items []types.EvidenceItem) []types.EvidenceItem {
	best := make(map[string]int, len(items))
	out := items[:0]
	for _, item := range items {
		key := item.SpanKey()
		if i, seen := best[key]; seen {
			kept := out[i]
			if !kept.Contextual && (item.Contextual || item.Score > kept.Score) {
				out[i] = item
			}
			continue
		}
		best[key] = len(out)
		out = append(out, item)
	}
	return out
}

// rankEvidence orders contextual evidence first, then indexed evidence by
// descending similarity.
func rankEvidence(items []types.EvidenceItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Contextual != items[j].Contextual {
			return items[i].Contextual
		}
		return items[i].Score > items[j].Score
	})
}

// capBudget trims lowest-ranked items until the total evidence length fits.
// Items are never truncated mid-item.
func (s *RetrievalService) capBudget(items []types.EvidenceItem) []types.EvidenceItem {
	total := 0
	for i, item := range items {
		total += len(item.Content)
		if total > s.evidenceBudget && i > 0 {
			return items[:i]
		}
	}
	return items
}
