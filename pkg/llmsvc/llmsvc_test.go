package llmsvc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

func TestDeterministic_Summarize_RespectsBudget(t *testing.T) {
	d := Deterministic{}
	text := "First sentence here. Second sentence follows. Third one too. Fourth sentence is extra."
	out, err := d.Summarize(context.Background(), text, 5) // ~20 chars budget
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), len(text))
}

func TestDeterministic_Summarize_EmptyText(t *testing.T) {
	d := Deterministic{}
	out, err := d.Summarize(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDeterministic_ExtractPrinciples_RequiresStatements(t *testing.T) {
	d := Deterministic{}
	_, err := d.ExtractPrinciples(context.Background(), nil)
	require.Error(t, err)
}

func TestDeterministic_ExtractPrinciples_SurfacesRecurringWords(t *testing.T) {
	d := Deterministic{}
	out, err := d.ExtractPrinciples(context.Background(), []string{
		"becoming more patient with ambiguity",
		"becoming more patient with uncertainty",
		"becoming more patient overall",
	})
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), "patient")
}

func TestDeterministic_Answer_NoContext(t *testing.T) {
	d := Deterministic{}
	out, err := d.Answer(context.Background(), "what next?", "")
	require.NoError(t, err)
	assert.Contains(t, out, "no supporting context")
}

func TestNew_UnsupportedBackend(t *testing.T) {
	_, err := New(&config.LLMConfig{Backend: config.LLMBackend("bogus")})
	require.Error(t, err)
}

func TestNew_Deterministic(t *testing.T) {
	svc, err := New(&config.LLMConfig{Backend: config.LLMBackendDeterministic})
	require.NoError(t, err)
	_, err = svc.Question(context.Background(), "anything")
	require.NoError(t, err)
}
