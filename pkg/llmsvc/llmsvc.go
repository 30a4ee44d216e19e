// Package llmsvc implements the LLMService capability (spec §1, §4.3):
// summarize, question, answer, extract_principles. It is used only by
// ConsolidationEngine, and always has a
// deterministic fallback — an LLM outage never fails a user operation
// (spec §7 "LLM-optional paths").
package llmsvc

import (
	"context"
	"fmt"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

// Service answers the four LLM-backed capabilities the spec names.
// Every method degrades to a deterministic heuristic on backend failure;
// callers never need their own fallback logic.
type Service interface {
	// Summarize compresses text to approximately targetTokens tokens
	// (spec §4.3.1 summary ~500 tokens, quick_ref ~100 tokens — callers
	// pass the budget for the compression level they're producing).
	Summarize(ctx context.Context, text string, targetTokens int) (string, error)
	// Question poses an open-ended prompt and returns free text.
	Question(ctx context.Context, prompt string) (string, error)
	// Answer answers a question given supporting context.
	Answer(ctx context.Context, question, context string) (string, error)
	// ExtractPrinciples synthesizes one consolidated principle statement
	// from a cluster of becoming statements (spec §4.3.2).
	ExtractPrinciples(ctx context.Context, statements []string) (string, error)
}

// New builds the configured Service.
func New(cfg *config.LLMConfig) (Service, error) {
	switch cfg.Backend {
	case config.LLMBackendDeterministic:
		return &Deterministic{}, nil
	case config.LLMBackendOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("llmsvc: unsupported backend %q", cfg.Backend)
	}
}
