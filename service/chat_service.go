package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juridia/legal-assistant-be/repository"
	"github.com/juridia/legal-assistant-be/types"
)

const (
	apologyAnswer = "Je suis désolé, je ne peux pas générer de réponse pour le moment."

	// Excerpts returned to the caller are display material, not the full chunk.
	maxExcerptLength = 500
)

// ChatService orchestrates one user message end to end: cache lookup,
// retrieval, prompt assembly, the model call, transactional persistence and
// the metadata trigger.
type ChatService struct {
	retrieval *RetrievalService
	prompts   *PromptService
	ai        AIService
	cache     *ConversationCache
	repo      repository.ConversationRepo
	metadata  *MetadataService

	historyTurns   int
	requestTimeout time.Duration
}

func NewChatService(
	retrieval *RetrievalService,
	prompts *PromptService,
	ai AIService,
	cache *ConversationCache,
	repo repository.ConversationRepo,
	metadata *MetadataService,
	historyTurns int,
	requestTimeout time.Duration,
) *ChatService {
	if historyTurns <= 0 {
		historyTurns = 5
	}
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &ChatService{
		retrieval:      retrieval,
		prompts:        prompts,
		ai:             ai,
		cache:          cache,
		repo:           repo,
		metadata:       metadata,
		historyTurns:   historyTurns,
		requestTimeout: requestTimeout,
	}
}

// ProcessQuery answers a single user message. A missing conversation id
// creates a new conversation and returns its generated identifier. Retrieval
// and metadata degradation are silent; the only user-visible failures are the
// empty-query validation error and a persistence failure, which is retryable.
func (s *ChatService) ProcessQuery(ctx context.Context, req types.QueryRequest) (*types.QueryResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, types.ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	conversationID := req.ConversationID
	isNew := conversationID == ""
	if isNew {
		conversationID = uuid.NewString()
	}

	// One in-flight mutation per conversation; different conversations run in
	// parallel.
	unlock := s.cache.LockConversation(conversationID)
	defer unlock()

	state, err := s.loadState(ctx, conversationID, isNew)
	if err != nil {
		return nil, err
	}

	evidence := s.retrieval.Retrieve(ctx, req.Query, req.ContextDocuments)
	messages := s.prompts.Assemble(req.Query, evidence, state.History)

	answer := apologyAnswer
	reply, err := s.ai.Chat(ctx, messages)
	if err != nil {
		log.Printf("chat: completion failed for conversation %s: %v", conversationID, err)
	} else {
		answer = reply.Content
	}

	if err := s.repo.RecordExchange(ctx, conversationID, &types.Exchange{
		Question: req.Query,
		Answer:   answer,
	}); err != nil {
		// Nothing was persisted; drop the cached copy so the next access
		// reloads a consistent view.
		s.cache.Delete(conversationID)
		return nil, err
	}

	state.History = append(state.History,
		types.Message{Role: types.RoleUser, Content: req.Query},
		types.Message{Role: types.RoleAssistant, Content: answer},
	)
	if max := s.historyTurns * 2; len(state.History) > max {
		state.History = state.History[len(state.History)-max:]
	}
	s.cache.Put(conversationID, state)

	if state.Title == "" && s.metadata != nil {
		s.metadata.Schedule(conversationID, req.Query, answer)
	}

	return &types.QueryResponse{
		Answer:         answer,
		Sources:        evidenceSources(evidence),
		Excerpts:       evidenceExcerpts(evidence),
		ConversationID: conversationID,
	}, nil
}

// GetHistory returns the durable exchange trail of a conversation.
func (s *ChatService) GetHistory(ctx context.Context, conversationID string) (*types.HistoryResponse, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	exchanges, err := s.repo.ListExchanges(ctx, conversationID, 0)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountQuestions(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &types.HistoryResponse{
		ConversationID: conversationID,
		Title:          conv.Title,
		Category:       conv.Category,
		QuestionCount:  count,
		Exchanges:      exchanges,
	}, nil
}

// ClearConversation deletes a conversation and drops its cached state.
func (s *ChatService) ClearConversation(ctx context.Context, conversationID string) error {
	unlock := s.cache.LockConversation(conversationID)
	defer unlock()

	s.cache.Delete(conversationID)
	return s.repo.DeleteConversation(ctx, conversationID)
}

// loadState returns the working state for a conversation, reloading from
// durable storage after a cache miss or eviction.
func (s *ChatService) loadState(ctx context.Context, conversationID string, isNew bool) (*ConversationState, error) {
	if state, ok := s.cache.Get(conversationID); ok {
		return state, nil
	}

	if isNew {
		if err := s.repo.CreateConversation(ctx, &types.Conversation{ID: conversationID}); err != nil {
			return nil, err
		}
		return &ConversationState{ID: conversationID}, nil
	}

	conv, err := s.repo.GetConversation(ctx, conversationID)
	if errors.Is(err, types.ErrConversationNotFound) {
		// The caller supplied an id this backend has never seen. Adopt it so
		// clients may pre-generate identifiers.
		if err := s.repo.CreateConversation(ctx, &types.Conversation{ID: conversationID}); err != nil {
			return nil, err
		}
		return &ConversationState{ID: conversationID}, nil
	}
	if err != nil {
		return nil, err
	}

	exchanges, err := s.repo.ListExchanges(ctx, conversationID, s.historyTurns)
	if err != nil {
		return nil, err
	}
	state := &ConversationState{
		ID:       conversationID,
		Title:    conv.Title,
		Category: conv.Category,
	}
	for _, ex := range exchanges {
		state.History = append(state.History,
			types.Message{Role: types.RoleUser, Content: ex.Question},
			types.Message{Role: types.RoleAssistant, Content: ex.Answer},
		)
	}
	return state, nil
}

func evidenceSources(evidence []types.EvidenceItem) []string {
	seen := make(map[string]bool, len(evidence))
	sources := make([]string, 0, len(evidence))
	for _, item := range evidence {
		if item.Source == "" || seen[item.Source] {
			continue
		}
		seen[item.Source] = true
		sources = append(sources, item.Source)
	}
	return sources
}

func evidenceExcerpts(evidence []types.EvidenceItem) []types.Excerpt {
	excerpts := make([]types.Excerpt, 0, len(evidence))
	for _, item := range evidence {
		content := item.Content
		if trimmed := truncate(content, maxExcerptLength); trimmed != content {
			content = trimmed + "..."
		}
		excerpts = append(excerpts, types.Excerpt{
			Content: content,
			Source:  item.Source,
			Page:    item.Page,
		})
	}
	return excerpts
}
