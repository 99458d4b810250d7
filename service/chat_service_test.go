package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juridia/legal-assistant-be/database"
	"github.com/juridia/legal-assistant-be/types"
)

func newTestChatService(ai *fakeAI, index *fakeIndex, repo *memoryRepo, embedder EmbeddingProvider, metadata *MetadataService) (*ChatService, *ConversationCache) {
	cache := NewConversationCache(10, time.Hour)
	retrieval := NewRetrievalService(embedder, index, 3, 0.25, 6000)
	prompts := NewPromptService(12000, 5)
	svc := NewChatService(retrieval, prompts, ai, cache, repo, metadata, 5, time.Minute)
	return svc, cache
}

func TestProcessQueryNewConversation(t *testing.T) {
	repo := newMemoryRepo()
	index := &fakeIndex{hits: []database.SearchHit{
		{ChunkID: "contrat.pdf:0", Content: "Le loyer mensuel est fixé à 1200 euros.", Source: "contrat.pdf", Page: 3, Start: 0, End: 41, Score: 0.87},
	}}
	ai := &fakeAI{reply: "Le loyer prévu par le contrat est de 1200 euros par mois."}
	svc, cache := newTestChatService(ai, index, repo, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{
		Query: "Quel est le montant du loyer ?",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.ConversationID)
	assert.Equal(t, ai.reply, res.Answer)
	assert.Equal(t, []string{"contrat.pdf"}, res.Sources)
	require.Len(t, res.Excerpts, 1)
	assert.Equal(t, "contrat.pdf", res.Excerpts[0].Source)
	assert.Equal(t, 3, res.Excerpts[0].Page)

	// The exchange is durably recorded and the cache holds the new turn.
	exchanges, err := repo.ListExchanges(context.Background(), res.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "Quel est le montant du loyer ?", exchanges[0].Question)

	state, ok := cache.Get(res.ConversationID)
	require.True(t, ok)
	require.Len(t, state.History, 2)
	assert.Equal(t, types.RoleUser, state.History[0].Role)
	assert.Equal(t, types.RoleAssistant, state.History[1].Role)
}

func TestProcessQueryEmptyQuery(t *testing.T) {
	svc, _ := newTestChatService(&fakeAI{}, &fakeIndex{}, newMemoryRepo(), &fakeEmbedder{}, nil)

	_, err := svc.ProcessQuery(context.Background(), types.QueryRequest{Query: "   "})

	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestProcessQueryApologyWhenModelFails(t *testing.T) {
	repo := newMemoryRepo()
	ai := &fakeAI{err: types.ErrProviderUnavailable}
	svc, _ := newTestChatService(ai, &fakeIndex{}, repo, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{Query: "Une question"})

	require.NoError(t, err)
	assert.Equal(t, apologyAnswer, res.Answer)

	// The apology is persisted like any other answer.
	exchanges, err := repo.ListExchanges(context.Background(), res.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, apologyAnswer, exchanges[0].Answer)
}

func TestProcessQueryContextDocumentsOnly(t *testing.T) {
	repo := newMemoryRepo()
	ai := &fakeAI{reply: "D'après l'extrait fourni, le préavis est de trois mois."}
	// Embedding is down; only caller-supplied context reaches the prompt.
	svc, _ := newTestChatService(ai, &fakeIndex{}, repo, &fakeEmbedder{err: types.ErrProviderUnavailable}, nil)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{
		Query: "Quel est le préavis ?",
		ContextDocuments: []types.ContextDocument{
			{Content: "Le préavis de résiliation est de trois mois.", Source: "bail.txt"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"bail.txt"}, res.Sources)
	require.NotEmpty(t, ai.lastSent)
	assert.Contains(t, ai.lastSent[0].Content, "Le préavis de résiliation est de trois mois.")
}

func TestProcessQueryPersistenceFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.recordErr = types.ErrPersistenceFailure
	svc, cache := newTestChatService(&fakeAI{reply: "réponse"}, &fakeIndex{}, repo, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	_, err := svc.ProcessQuery(context.Background(), types.QueryRequest{
		Query:          "question",
		ConversationID: "conv-1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPersistenceFailure)
	// The cached copy is dropped so the next access reloads durable state.
	_, ok := cache.Get("conv-1")
	assert.False(t, ok)
}

func TestProcessQueryAdoptsUnknownID(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestChatService(&fakeAI{reply: "réponse"}, &fakeIndex{}, repo, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{
		Query:          "question",
		ConversationID: "pre-generated-id",
	})

	require.NoError(t, err)
	assert.Equal(t, "pre-generated-id", res.ConversationID)
	_, err = repo.GetConversation(context.Background(), "pre-generated-id")
	assert.NoError(t, err)
}

func TestProcessQueryReloadsAfterEviction(t *testing.T) {
	repo := newMemoryRepo()
	ai := &fakeAI{reply: "réponse"}
	svc, cache := newTestChatService(ai, &fakeIndex{}, repo, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{Query: "première question"})
	require.NoError(t, err)

	// Simulate TTL eviction; the second turn must rebuild history from the
	// durable store.
	cache.Delete(res.ConversationID)

	_, err = svc.ProcessQuery(context.Background(), types.QueryRequest{
		Query:          "deuxième question",
		ConversationID: res.ConversationID,
	})
	require.NoError(t, err)

	state, ok := cache.Get(res.ConversationID)
	require.True(t, ok)
	require.Len(t, state.History, 4)
	assert.Equal(t, "première question", state.History[0].Content)
	assert.Equal(t, "deuxième question", state.History[2].Content)
}

func TestProcessQueryTriggersMetadata(t *testing.T) {
	repo := newMemoryRepo()
	ai := &fakeAI{reply: "réponse"}
	metaAI := &fakeAI{reply: `{"title": "Montant du loyer", "category": "treasury"}`}

	cache := NewConversationCache(10, time.Hour)
	retrieval := NewRetrievalService(&fakeEmbedder{vector: []float32{1, 0}}, &fakeIndex{}, 3, 0.25, 6000)
	prompts := NewPromptService(12000, 5)
	metadata := NewMetadataService(metaAI, repo, cache, 2, time.Second)
	svc := NewChatService(retrieval, prompts, ai, cache, repo, metadata, 5, time.Minute)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{Query: "Quel est le loyer ?"})
	require.NoError(t, err)
	metadata.Wait()

	conv, err := repo.GetConversation(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Montant du loyer", conv.Title)
	assert.Equal(t, types.CategoryTreasury, conv.Category)
}

func TestProcessQueryConcurrentWithMetadata(t *testing.T) {
	repo := newMemoryRepo()
	ai := &fakeAI{reply: "réponse"}
	// The classification call is slow, so the metadata task is still in
	// flight while further turns mutate the same cached conversation.
	metaAI := &fakeAI{reply: `{"title": "Bail commercial", "category": "legal"}`, delay: 30 * time.Millisecond}

	cache := NewConversationCache(10, time.Hour)
	retrieval := NewRetrievalService(&fakeEmbedder{vector: []float32{1, 0}}, &fakeIndex{}, 3, 0.25, 6000)
	prompts := NewPromptService(12000, 5)
	metadata := NewMetadataService(metaAI, repo, cache, 2, time.Second)
	svc := NewChatService(retrieval, prompts, ai, cache, repo, metadata, 5, time.Minute)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{Query: "Quel bail ?"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := svc.ProcessQuery(context.Background(), types.QueryRequest{
					Query:          "encore une question",
					ConversationID: res.ConversationID,
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	metadata.Wait()

	conv, err := repo.GetConversation(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Bail commercial", conv.Title)

	state, ok := cache.Get(res.ConversationID)
	require.True(t, ok)
	assert.Equal(t, "Bail commercial", state.Title)
	assert.Equal(t, types.CategoryLegal, state.Category)
}

func TestProcessQueryHistoryBounded(t *testing.T) {
	repo := newMemoryRepo()
	svc, cache := newTestChatService(&fakeAI{reply: "réponse"}, &fakeIndex{}, repo, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	var conversationID string
	for i := 0; i < 8; i++ {
		res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{
			Query:          "question",
			ConversationID: conversationID,
		})
		require.NoError(t, err)
		conversationID = res.ConversationID
	}

	state, ok := cache.Get(conversationID)
	require.True(t, ok)
	assert.Len(t, state.History, 10)
}

func TestGetHistory(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestChatService(&fakeAI{reply: "réponse"}, &fakeIndex{}, repo, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{Query: "question"})
	require.NoError(t, err)

	history, err := svc.GetHistory(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, res.ConversationID, history.ConversationID)
	assert.Equal(t, int64(1), history.QuestionCount)
	require.Len(t, history.Exchanges, 1)
	assert.Equal(t, "question", history.Exchanges[0].Question)

	_, err = svc.GetHistory(context.Background(), "inconnue")
	assert.ErrorIs(t, err, types.ErrConversationNotFound)
}

func TestClearConversation(t *testing.T) {
	repo := newMemoryRepo()
	svc, cache := newTestChatService(&fakeAI{reply: "réponse"}, &fakeIndex{}, repo, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	res, err := svc.ProcessQuery(context.Background(), types.QueryRequest{Query: "question"})
	require.NoError(t, err)

	require.NoError(t, svc.ClearConversation(context.Background(), res.ConversationID))

	_, ok := cache.Get(res.ConversationID)
	assert.False(t, ok)
	_, err = repo.GetConversation(context.Background(), res.ConversationID)
	assert.True(t, errors.Is(err, types.ErrConversationNotFound))
}

func TestEvidenceExcerptsTruncated(t *testing.T) {
	long := make([]rune, 700)
	for i := range long {
		long[i] = 'é'
	}
	excerpts := evidenceExcerpts([]types.EvidenceItem{
		{Content: string(long), Source: "contrat.pdf"},
	})

	require.Len(t, excerpts, 1)
	assert.Equal(t, 503, len([]rune(excerpts[0].Content)))
	assert.Equal(t, "...", excerpts[0].Content[len(excerpts[0].Content)-3:])
}
