package llmsvc

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

// OpenAI routes LLMService calls through OpenAI chat completions. Like
// embedding.OpenAI, it is a pluggable, disabled-by-default provider
// (SPEC_FULL.md §B). Each method falls back to the matching Deterministic
// method when the OpenAI request fails, per spec §7.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI constructs the OpenAI-backed LLM service from config.
func NewOpenAI(cfg *config.LLMConfig) (*OpenAI, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("llmsvc: environment variable %s is not set", cfg.APIKeyEnv)
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  cfg.Model,
	}, nil
}

func (o *OpenAI) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llmsvc: openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmsvc: openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAI) Summarize(ctx context.Context, text string, targetTokens int) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the following in no more than %d tokens, as concise bullet points:\n\n%s",
		targetTokens, text,
	)
	if out, err := o.complete(ctx, "You compress memory records for an AI agent without losing actionable detail.", prompt); err == nil {
		return out, nil
	}
	return Deterministic{}.Summarize(ctx, text, targetTokens)
}

func (o *OpenAI) Question(ctx context.Context, prompt string) (string, error) {
	if out, err := o.complete(ctx, "You help an AI agent reason about what to do next.", prompt); err == nil {
		return out, nil
	}
	return Deterministic{}.Question(ctx, prompt)
}

func (o *OpenAI) Answer(ctx context.Context, question, context string) (string, error) {
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", context, question)
	if out, err := o.complete(ctx, "Answer using only the supplied context; say so if it is insufficient.", prompt); err == nil {
		return out, nil
	}
	return Deterministic{}.Answer(ctx, question, context)
}

func (o *OpenAI) ExtractPrinciples(ctx context.Context, statements []string) (string, error) {
	prompt := fmt.Sprintf(
		"These are recurring self-reflections from the same ongoing relationship:\n\n%s\n\nSynthesize one durable guiding principle.",
		strings.Join(statements, "\n"),
	)
	if out, err := o.complete(ctx, "You distill recurring reflections into one durable principle statement.", prompt); err == nil {
		return out, nil
	}
	return Deterministic{}.ExtractPrinciples(ctx, statements)
}
