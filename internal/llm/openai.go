package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error so API key problems are diagnosable
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// ExtractClaims requests claim extraction and decodes the constrained
// JSON-array response.
func (p *OpenAIProvider) ExtractClaims(ctx context.Context, req ExtractRequest) ([]RawClaim, error) {
	response, err := p.complete(ctx, extractSystemPrompt, BuildExtractPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	claims, err := DecodeClaims(response)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	return claims, nil
}

// VerifyClaim requests a verdict for one claim and decodes the constrained
// JSON-object response.
func (p *OpenAIProvider) VerifyClaim(ctx context.Context, req VerifyRequest) (*RawVerdict, error) {
	response, err := p.complete(ctx, verifySystemPrompt, BuildVerifyPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("verify claim: %w", err)
	}

	verdict, err := DecodeVerdict(response)
	if err != nil {
		return nil, fmt.Errorf("verify claim: %w", err)
	}

	return verdict, nil
}

const (
	extractSystemPrompt = "You extract verifiable factual claims from articles. You respond only with JSON and you quote claim text verbatim from the source."
	verifySystemPrompt  = "You are a careful fact-checker. You respond only with JSON, you never invent sources, and you report honest confidence values."
)

// complete runs one chat completion with retry on transient failures.
func (p *OpenAIProvider) complete(ctx context.Context, system, user string) (string, error) {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 45 * time.Second
	}

	var content string
	err := withRetry(ctx, p.config.MaxRetries, func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := p.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			MaxTokens:   maxTokens,
			Temperature: 0.1, // Near-deterministic output for checkable answers
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}

		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}
