package retrieval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/pkg/embedding"
	"github.com/callin2/agent-memory-sub001/pkg/events"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/retrieval"
	"github.com/callin2/agent-memory-sub001/pkg/store"
	util "github.com/callin2/agent-memory-sub001/test/util"
)

func newServices(t *testing.T) (*memory.Operations, *retrieval.Service, embedding.Service) {
	t.Helper()
	s := util.SetupTestStore(t)
	embed := embedding.NewDeterministic(1536)
	ops := memory.New(s, events.NewPublisher(), nil)
	return ops, retrieval.New(s, embed), embed
}

func TestRecall_FindsHandoffByFulltext(t *testing.T) {
	ops, svc, _ := newServices(t)
	ctx := context.Background()

	_, err := ops.CreateHandoff(ctx, "t1", memory.CreateHandoffInput{
		SessionID: "s1", WithWhom: "Callin",
		Experienced: "debugged the flaky websocket reconnect loop",
		Noticed:     "logs showed a retry storm", Learned: "backoff was missing jitter",
		Remember: "add jitter", Significance: 0.7,
	})
	require.NoError(t, err)

	hits, err := svc.Recall(ctx, "t1", retrieval.Request{Query: "websocket reconnect", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, store.KindHandoff, hits[0].Type)
}

func TestRecall_RespectsTenantIsolation(t *testing.T) {
	ops, svc, _ := newServices(t)
	ctx := context.Background()

	_, err := ops.CreateHandoff(ctx, "t1", memory.CreateHandoffInput{
		SessionID: "s1", WithWhom: "Callin",
		Experienced: "rotated the signing keys", Noticed: "n", Learned: "l",
		Remember: "r", Significance: 0.5,
	})
	require.NoError(t, err)

	hits, err := svc.Recall(ctx, "t2", retrieval.Request{Query: "signing keys", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRecall_FiltersByProjectPath(t *testing.T) {
	ops, svc, _ := newServices(t)
	ctx := context.Background()

	path := "/repo/api"
	_, err := ops.CreateKnowledgeNote(ctx, "t1", memory.CreateKnowledgeNoteInput{
		Text: "the API rate limiter uses a token bucket", ProjectPath: path,
	})
	require.NoError(t, err)

	hits, err := svc.Recall(ctx, "t1", retrieval.Request{
		Query: "rate limiter", ProjectPath: "/repo/other", Limit: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = svc.Recall(ctx, "t1", retrieval.Request{
		Query: "rate limiter", ProjectPath: path, Limit: 5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestRecall_DefaultsLimitAndMinSimilarity(t *testing.T) {
	ops, svc, _ := newServices(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := ops.CreateKnowledgeNote(ctx, "t1", memory.CreateKnowledgeNoteInput{
			Text: "recurring deployment note about canary rollouts",
		})
		require.NoError(t, err)
	}

	hits, err := svc.Recall(ctx, "t1", retrieval.Request{Query: "canary rollouts"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), 5)
}

func TestRecall_RejectsEmptyQuery(t *testing.T) {
	_, svc, _ := newServices(t)
	_, err := svc.Recall(context.Background(), "t1", retrieval.Request{})
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeValidationError))
}
