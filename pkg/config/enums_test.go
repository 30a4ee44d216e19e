package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMBackendIsValid(t *testing.T) {
	tests := []struct {
		name    string
		backend LLMBackend
		valid   bool
	}{
		{"deterministic", LLMBackendDeterministic, true},
		{"openai", LLMBackendOpenAI, true},
		{"invalid", LLMBackend("invalid"), false},
		{"empty", LLMBackend(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.backend.IsValid())
		})
	}
}

func TestEmbeddingBackendIsValid(t *testing.T) {
	tests := []struct {
		name    string
		backend EmbeddingBackend
		valid   bool
	}{
		{"deterministic", EmbeddingBackendDeterministic, true},
		{"openai", EmbeddingBackendOpenAI, true},
		{"invalid", EmbeddingBackend("invalid"), false},
		{"empty", EmbeddingBackend(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.backend.IsValid())
		})
	}
}

func TestIdentityModeIsValid(t *testing.T) {
	tests := []struct {
		name  string
		mode  IdentityMode
		valid bool
	}{
		{"dev_token", IdentityModeDevToken, true},
		{"invalid", IdentityMode("oauth"), false},
		{"empty", IdentityMode(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.mode.IsValid())
		})
	}
}
