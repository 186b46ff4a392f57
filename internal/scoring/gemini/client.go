package gemini

import (
	"context"

	"google.golang.org/genai"

	"takeint/internal/scoring"
)

// Client scores interview transcripts through the Gemini API.
type Client struct {
	client  *genai.Client
	config  *Config
	prompts *scoring.PromptManager
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &scoring.ProviderError{
			Provider: "gemini",
			Code:     scoring.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	prompts, err := scoring.NewPromptManager()
	if err != nil {
		return nil, &scoring.ProviderError{
			Provider: "gemini",
			Code:     scoring.ErrCodeInvalidInput,
			Message:  "Failed to load prompt templates",
			Err:      err,
		}
	}

	return &Client{client: client, config: config, prompts: prompts}, nil
}

func (c *Client) ScoreInterview(ctx context.Context, req *scoring.Request) (*scoring.Result, error) {
	prompt, err := c.prompts.BuildScorePrompt(req)
	if err != nil {
		return nil, &scoring.ProviderError{
			Provider: "gemini",
			Code:     scoring.ErrCodeInvalidInput,
			Message:  "Failed to build scoring prompt",
			Err:      err,
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), nil)
	if err != nil {
		code := scoring.ErrCodeServiceDown
		if ctx.Err() != nil {
			code = scoring.ErrCodeTimeout
		}
		return nil, &scoring.ProviderError{
			Provider: "gemini",
			Code:     code,
			Message:  "Failed to score interview",
			Err:      err,
		}
	}
	if result == nil {
		return nil, &scoring.ProviderError{
			Provider: "gemini",
			Code:     scoring.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text, err := result.Text()
	if err != nil {
		return nil, &scoring.ProviderError{
			Provider: "gemini",
			Code:     scoring.ErrCodeInvalidInput,
			Message:  "Failed to extract response text",
			Err:      err,
		}
	}
	if text == "" {
		return nil, &scoring.ProviderError{
			Provider: "gemini",
			Code:     scoring.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}

	return scoring.ParseResult(text)
}

func (c *Client) GetProviderName() string {
	return "gemini"
}
