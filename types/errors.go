package types

import "errors"

// Failure taxonomy of the conversation engine. Callers are expected to match
// with errors.Is and degrade rather than fail where the contract allows it.
var (
	// ErrProviderUnavailable signals the embedding provider or LLM gateway
	// could not complete a call (network, auth, rate limit). Recover by
	// degrading, never by failing the whole query.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrIndexUnavailable signals no vector index backend could be reached.
	// Retrieval degrades to contextual-documents-only mode.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrMalformedModelOutput signals the model returned something outside the
	// expected shape (unparseable JSON, unknown category). Recovered through
	// deterministic fallbacks.
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrPersistenceFailure signals a durable write failed mid-transaction.
	// The exchange is rolled back and the caller may retry.
	ErrPersistenceFailure = errors.New("persistence failure")

	ErrEmptyQuery           = errors.New("query must not be empty")
	ErrConversationNotFound = errors.New("conversation not found")
)
