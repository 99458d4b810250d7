package service

import (
	"context"
	"sync"
	"time"

	"github.com/juridia/legal-assistant-be/database"
	"github.com/juridia/legal-assistant-be/types"
)

// fakeEmbedder returns a fixed vector, or an error for every call.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return vectors, nil
}

// fakeIndex serves canned hits and records what was stored.
type fakeIndex struct {
	hits      []database.SearchHit
	searchErr error

	mu       sync.Mutex
	upserted []database.ChunkRecord
}

func (f *fakeIndex) Name() string { return "fake" }

func (f *fakeIndex) Upsert(ctx context.Context, rec database.ChunkRecord, vector []float32) error {
	return f.BatchUpsert(ctx, []database.ChunkRecord{rec}, [][]float32{vector})
}

func (f *fakeIndex) BatchUpsert(ctx context.Context, recs []database.ChunkRecord, vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, recs...)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, k int, threshold float64) ([]database.SearchHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	hits := f.hits
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeIndex) DeleteBySource(ctx context.Context, source string) error { return nil }

func (f *fakeIndex) Reset(ctx context.Context) error { return nil }

// fakeAI replies with a fixed message and counts calls. A non-zero delay
// simulates a slow model.
type fakeAI struct {
	reply string
	err   error
	delay time.Duration

	mu       sync.Mutex
	calls    int
	lastSent []types.Message
}

func (f *fakeAI) Chat(ctx context.Context, messages []types.Message) (*types.Message, error) {
	f.mu.Lock()
	f.calls++
	f.lastSent = messages
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &types.Message{Role: types.RoleAssistant, Content: f.reply}, nil
}

func (f *fakeAI) ChatStream(ctx context.Context, messages []types.Message, streamHandler StreamHandler) error {
	if f.err != nil {
		return f.err
	}
	streamHandler(f.reply)
	return nil
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memoryRepo is an in-memory ConversationRepo for tests.
type memoryRepo struct {
	mu            sync.Mutex
	conversations map[string]*types.Conversation
	exchanges     map[string][]types.Exchange
	recordErr     error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		conversations: make(map[string]*types.Conversation),
		exchanges:     make(map[string][]types.Exchange),
	}
}

func (r *memoryRepo) CreateConversation(ctx context.Context, conv *types.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv.CreatedAt == 0 {
		conv.CreatedAt = time.Now().Unix()
	}
	conv.UpdatedAt = conv.CreatedAt
	copied := *conv
	r.conversations[conv.ID] = &copied
	return nil
}

func (r *memoryRepo) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, types.ErrConversationNotFound
	}
	copied := *conv
	return &copied, nil
}

func (r *memoryRepo) DeleteConversation(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[id]; !ok {
		return types.ErrConversationNotFound
	}
	delete(r.conversations, id)
	delete(r.exchanges, id)
	return nil
}

func (r *memoryRepo) RecordExchange(ctx context.Context, conversationID string, ex *types.Exchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recordErr != nil {
		return r.recordErr
	}
	if _, ok := r.conversations[conversationID]; !ok {
		return types.ErrConversationNotFound
	}
	ex.ConversationID = conversationID
	if ex.CreatedAt == 0 {
		ex.CreatedAt = time.Now().Unix()
	}
	r.exchanges[conversationID] = append(r.exchanges[conversationID], *ex)
	r.conversations[conversationID].UpdatedAt = ex.CreatedAt
	return nil
}

func (r *memoryRepo) ListExchanges(ctx context.Context, conversationID string, limit int) ([]types.Exchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exchanges := r.exchanges[conversationID]
	if limit > 0 && len(exchanges) > limit {
		exchanges = exchanges[len(exchanges)-limit:]
	}
	out := make([]types.Exchange, len(exchanges))
	copy(out, exchanges)
	return out, nil
}

func (r *memoryRepo) CountQuestions(ctx context.Context, conversationID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.exchanges[conversationID])), nil
}

func (r *memoryRepo) UpdateMetadata(ctx context.Context, conversationID, title, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[conversationID]
	if !ok {
		return types.ErrConversationNotFound
	}
	conv.Title = title
	conv.Category = category
	return nil
}
