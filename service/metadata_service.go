package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/juridia/legal-assistant-be/repository"
	"github.com/juridia/legal-assistant-be/types"
)

const maxTitleLength = 50

// MetadataResult tags how the title/category pair was obtained.
type MetadataResult struct {
	Metadata     types.ConversationMetadata
	FallbackUsed bool
}

// categoryKeywords backs the deterministic fallback. Must stay in lockstep
// with types.Categories and the classification prompt.
var categoryKeywords = map[string][]string{
	types.CategoryTreasury: {
		"tva", "facture", "trésorerie", "tresorerie", "cotisation", "budget",
		"comptab", "fiscal", "paiement", "banque", "loyer",
	},
	types.CategoryOrganisational: {
		"assemblée", "assemblee", "statut", "conseil d'administration",
		"mandat", "organisation", "réunion", "reunion", "élection", "election", "bureau",
	},
	types.CategoryLegal: {
		"contrat", "juridique", "loi", "clause", "responsabilité", "responsabilite",
		"préavis", "preavis", "litige", "rgpd", "convention", "bail",
	},
	types.CategoryGeneral: {
		"junior-entreprise", "junior entreprise", "association", "adhérent", "adherent", "étude", "etude",
	},
}

// MetadataService derives a short title and a category for a conversation
// after an exchange has been durably recorded. It runs off the request path on
// a bounded worker pool so a slow model call never delays the chat answer.
type MetadataService struct {
	ai      AIService
	repo    repository.ConversationRepo
	cache   *ConversationCache
	timeout time.Duration
	sem     chan struct{}

	mu       sync.Mutex
	inflight map[string]bool
	wg       sync.WaitGroup
}

func NewMetadataService(ai AIService, repo repository.ConversationRepo, cache *ConversationCache, workers int, timeout time.Duration) *MetadataService {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &MetadataService{
		ai:       ai,
		repo:     repo,
		cache:    cache,
		timeout:  timeout,
		sem:      make(chan struct{}, workers),
		inflight: make(map[string]bool),
	}
}

// Schedule submits metadata generation for a conversation whose title is still
// empty. The call returns immediately; failures are logged and retried the
// next time an exchange lands on the same conversation. At most one task per
// conversation is in flight.
func (s *MetadataService) Schedule(conversationID, question, answer string) {
	s.mu.Lock()
	if s.inflight[conversationID] {
		s.mu.Unlock()
		return
	}
	s.inflight[conversationID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, conversationID)
			s.mu.Unlock()
		}()

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.generate(ctx, conversationID, question, answer)
	}()
}

// Wait blocks until every scheduled task has finished. Used in shutdown and tests.
func (s *MetadataService) Wait() {
	s.wg.Wait()
}

func (s *MetadataService) generate(ctx context.Context, conversationID, question, answer string) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		log.Printf("metadata: load conversation %s: %v", conversationID, err)
		return
	}
	if conv.Title != "" {
		return
	}

	result := s.classify(ctx, question, answer)
	if result.FallbackUsed {
		log.Printf("metadata: fallback heuristics used for conversation %s", conversationID)
	}

	if err := s.repo.UpdateMetadata(ctx, conversationID, result.Metadata.Title, result.Metadata.Category); err != nil {
		log.Printf("metadata: persist for conversation %s: %v", conversationID, err)
		return
	}

	if s.cache != nil {
		// The cached state is shared with in-flight chat requests; mutating it
		// requires the same per-conversation lock they hold.
		unlock := s.cache.LockConversation(conversationID)
		if state, ok := s.cache.Get(conversationID); ok {
			state.Title = result.Metadata.Title
			state.Category = result.Metadata.Category
			s.cache.Put(conversationID, state)
		}
		unlock()
	}
}

// classify asks the model for a title/category pair and falls back to the
// deterministic heuristics when the model is unreachable or its output is
// malformed.
func (s *MetadataService) classify(ctx context.Context, question, answer string) MetadataResult {
	prompt := classificationPrompt(question, answer)
	resp, err := s.ai.Chat(ctx, []types.Message{
		{Role: types.RoleSystem, Content: prompt},
	})
	if err != nil {
		log.Printf("metadata: classification call failed: %v", err)
		return MetadataResult{Metadata: FallbackMetadata(question), FallbackUsed: true}
	}

	meta, err := ParseMetadata(resp.Content)
	if err != nil {
		log.Printf("metadata: %v", err)
		return MetadataResult{Metadata: FallbackMetadata(question), FallbackUsed: true}
	}
	return MetadataResult{Metadata: meta}
}

func classificationPrompt(question, answer string) string {
	var b strings.Builder
	b.WriteString("Tu classes des conversations d'assistance juridique. ")
	b.WriteString("À partir du premier échange ci-dessous, produis un titre court (50 caractères maximum) ")
	b.WriteString("et une catégorie parmi la liste suivante:\n")
	for _, cat := range types.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", cat, types.CategoryDescriptions[cat])
	}
	b.WriteString("\nRéponds uniquement avec un objet JSON de la forme {\"title\": string, \"category\": string}.\n\n")
	fmt.Fprintf(&b, "Question: %s\nRéponse: %s\n", question, answer)
	return b.String()
}

// ParseMetadata validates the untrusted model payload against the closed
// category set. Anything outside the expected shape is rejected.
func ParseMetadata(raw string) (types.ConversationMetadata, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return types.ConversationMetadata{}, fmt.Errorf("%w: no JSON object in %q", types.ErrMalformedModelOutput, truncate(raw, 80))
	}

	var meta types.ConversationMetadata
	if err := json.Unmarshal([]byte(raw[start:end+1]), &meta); err != nil {
		return types.ConversationMetadata{}, fmt.Errorf("%w: %v", types.ErrMalformedModelOutput, err)
	}

	meta.Title = strings.TrimSpace(meta.Title)
	meta.Category = strings.ToLower(strings.TrimSpace(meta.Category))
	if meta.Title == "" {
		return types.ConversationMetadata{}, fmt.Errorf("%w: empty title", types.ErrMalformedModelOutput)
	}
	if !types.IsValidCategory(meta.Category) {
		return types.ConversationMetadata{}, fmt.Errorf("%w: unknown category %q", types.ErrMalformedModelOutput, meta.Category)
	}
	meta.Title = truncate(meta.Title, maxTitleLength)
	return meta, nil
}

// FallbackMetadata derives title and category without the model: the title is
// a truncation of the question, the category comes from the keyword table,
// defaulting to "other".
func FallbackMetadata(question string) types.ConversationMetadata {
	title := truncate(strings.TrimSpace(question), maxTitleLength)
	if title == "" {
		title = "Conversation"
	}

	lower := strings.ToLower(question)
	category := types.CategoryOther
	for _, cat := range types.Categories {
		matched := false
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if matched {
			category = cat
			break
		}
	}
	return types.ConversationMetadata{Title: title, Category: category}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
