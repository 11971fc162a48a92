package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// Moderator screens user-generated text.
type Moderator interface {
	Flagged(ctx context.Context, text string) (bool, error)
}

// OpenAIModerator checks text with the OpenAI moderation endpoint.
type OpenAIModerator struct {
	client *openai.Client
}

func NewOpenAIModerator(apiKey string) *OpenAIModerator {
	return &OpenAIModerator{
		client: openai.NewClient(apiKey),
	}
}

// NewOpenAIModeratorWithConfig allows pointing the client at another base URL.
func NewOpenAIModeratorWithConfig(cfg openai.ClientConfig) *OpenAIModerator {
	return &OpenAIModerator{
		client: openai.NewClientWithConfig(cfg),
	}
}

// Flagged reports whether any moderation result flags the text.
func (m *OpenAIModerator) Flagged(ctx context.Context, text string) (bool, error) {
	if m.client == nil {
		return false, fmt.Errorf("OpenAI client not initialized")
	}

	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
	})
	if err != nil {
		return false, fmt.Errorf("OpenAI API error: %w", err)
	}

	for _, result := range resp.Results {
		if result.Flagged {
			return true, nil
		}
	}
	return false, nil
}

// screen applies the moderator if one is configured. Moderation outages are
// logged and the text is let through.
func screen(ctx context.Context, moderator Moderator, log *slog.Logger, text string) error {
	if moderator == nil {
		return nil
	}
	flagged, err := moderator.Flagged(ctx, text)
	if err != nil {
		log.Warn("content moderation unavailable", "error", err)
		return nil
	}
	if flagged {
		return ErrContentRejected
	}
	return nil
}
