package service

import (
	"errors"
	"fmt"
	"io"
	"log"

	"context"

	"github.com/juridia/legal-assistant-be/types"
	"github.com/sashabaranov/go-openai"
)

// OpenAIService talks to an OpenAI-compatible chat completion endpoint. A
// bounded semaphore caps in-flight completions per process.
type OpenAIService struct {
	client *openai.Client
	model  string
	sem    chan struct{}
}

func NewOpenAIService(baseURL, apiKey, model string, maxConcurrent int) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 16
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client: client,
		model:  model,
		sem:    make(chan struct{}, maxConcurrent),
	}
}

func (s *OpenAIService) Chat(ctx context.Context, messages []types.Message) (*types.Message, error) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", types.ErrProviderUnavailable, ctx.Err())
	}

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages: toOpenAIMessages(messages),
			Model:    s.model,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion: %v", types.ErrProviderUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response generated", types.ErrProviderUnavailable)
	}

	return &types.Message{
		Role:    types.RoleAssistant,
		Content: resp.Choices[0].Message.Content,
	}, nil
}

func (s *OpenAIService) ChatStream(ctx context.Context, messages []types.Message, streamHandler StreamHandler) error {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", types.ErrProviderUnavailable, ctx.Err())
	}

	stream, err := s.client.CreateChatCompletionStream(
		ctx,
		openai.ChatCompletionRequest{
			Messages: toOpenAIMessages(messages),
			Model:    s.model,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: chat stream: %v", types.ErrProviderUnavailable, err)
	}
	defer stream.Close()
	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Println("Error receiving response from stream:", err)
			return fmt.Errorf("%w: chat stream: %v", types.ErrProviderUnavailable, err)
		}
		if len(resp.Choices) > 0 {
			streamHandler(resp.Choices[0].Delta.Content)
		}
	}
}

func toOpenAIMessages(messages []types.Message) []openai.ChatCompletionMessage {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		switch role {
		case types.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case types.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return openaiMessages
}
