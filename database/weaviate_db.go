package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/juridia/legal-assistant-be/config"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

var (
	CHUNK_CLASS        = "LegalChunk"
	CHUNK_CLASS_OBJECT = &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "chunkId", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "spanStart", DataType: []string{"int"}},
			{Name: "spanEnd", DataType: []string{"int"}},
		},
		// Vectors come from the embedding provider, never from a weaviate module.
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}
)

// WeaviateStore is the primary vector index backend.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	hasChunkClass := false
	for _, class := range schema.Classes {
		if class.Class == CHUNK_CLASS {
			hasChunkClass = true
			break
		}
	}
	if !hasChunkClass {
		err = client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create %s class: %w", CHUNK_CLASS, err)
		}
	}
	return &WeaviateStore{
		client: client,
	}, nil
}

func (s *WeaviateStore) Name() string { return "weaviate" }

func (s *WeaviateStore) Upsert(ctx context.Context, rec ChunkRecord, vector []float32) error {
	_, err := s.client.Data().Creator().
		WithClassName(CHUNK_CLASS).
		WithProperties(chunkProperties(rec)).
		WithVector(vector).
		Do(ctx)
	return err
}

func (s *WeaviateStore) BatchUpsert(ctx context.Context, recs []ChunkRecord, vectors [][]float32) error {
	if len(recs) != len(vectors) {
		return fmt.Errorf("records and vectors length mismatch: %d != %d", len(recs), len(vectors))
	}
	total := len(recs)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				Class:      CHUNK_CLASS,
				Properties: chunkProperties(recs[j]),
				Vector:     vectors[j],
			})
		}

		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func (s *WeaviateStore) Search(ctx context.Context, vector []float32, k int, threshold float64) ([]SearchHit, error) {
	fields := []graphql.Field{
		{Name: "chunkId"},
		{Name: "content"},
		{Name: "title"},
		{Name: "source"},
		{Name: "page"},
		{Name: "spanStart"},
		{Name: "spanEnd"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}, {Name: "id"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithCertainty(float32(cosineToCertainty(threshold)))

	result, err := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var hits []SearchHit
	if data, ok := result.Data["Get"].(map[string]interface{})[CHUNK_CLASS].([]interface{}); ok {
		for _, item := range data {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			hit := SearchHit{
				Content: asString(obj["content"]),
				Title:   asString(obj["title"]),
				Source:  asString(obj["source"]),
				Page:    asInt(obj["page"]),
				Start:   asInt(obj["spanStart"]),
				End:     asInt(obj["spanEnd"]),
			}
			hit.ChunkID = asString(obj["chunkId"])
			if additional, ok := obj["_additional"].(map[string]interface{}); ok {
				if certainty, ok := additional["certainty"].(float64); ok {
					hit.Score = certaintyToCosine(certainty)
				}
			}
			if hit.Score >= threshold {
				hits = append(hits, hit)
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *WeaviateStore) DeleteBySource(ctx context.Context, source string) error {
	where := filters.Where().
		WithPath([]string{"source"}).
		WithOperator(filters.Equal).
		WithValueString(source)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(CHUNK_CLASS).
		WithWhere(where).
		Do(ctx)
	return err
}

func (s *WeaviateStore) Reset(ctx context.Context) error {
	err := s.client.Schema().ClassDeleter().WithClassName(CHUNK_CLASS).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s class: %w", CHUNK_CLASS, err)
	}
	err = s.client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create %s class: %w", CHUNK_CLASS, err)
	}
	return nil
}

func chunkProperties(rec ChunkRecord) map[string]interface{} {
	return map[string]interface{}{
		"chunkId":   rec.ID,
		"content":   rec.Content,
		"title":     rec.Title,
		"source":    rec.Source,
		"page":      rec.Page,
		"spanStart": rec.Start,
		"spanEnd":   rec.End,
	}
}

// Weaviate reports certainty = (1 + cosine) / 2, while SearchHit.Score and the
// caller's threshold are raw cosine similarities like chromem's. Both
// directions of the mapping keep the two backends on one scale.
func cosineToCertainty(cosine float64) float64 {
	return (cosine + 1) / 2
}

func certaintyToCosine(certainty float64) float64 {
	return 2*certainty - 1
}

// Helper functions
func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}
