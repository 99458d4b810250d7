package service

import (
	"context"

	"github.com/juridia/legal-assistant-be/types"
)

// StreamHandler receives incremental response fragments.
type StreamHandler func(response string)

// AIService is the stateless LLM gateway. Failures surface as
// types.ErrProviderUnavailable; callers degrade, they never crash.
type AIService interface {
	Chat(ctx context.Context, messages []types.Message) (*types.Message, error)
	ChatStream(ctx context.Context, messages []types.Message, streamHandler StreamHandler) error
}
