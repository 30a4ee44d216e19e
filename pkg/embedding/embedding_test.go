package embedding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

func TestDeterministic_DimensionAndDeterminism(t *testing.T) {
	d := NewDeterministic(16)
	assert.Equal(t, 16, d.Dimension())

	v1, err := d.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, v1, 16)

	v2, err := d.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	v3, err := d.Embed(context.Background(), "something else")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestDeterministic_EmbedBatch(t *testing.T) {
	d := NewDeterministic(8)
	vecs, err := d.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, 8)
	}
}

func TestNew_UnsupportedBackend(t *testing.T) {
	_, err := New(&config.EmbeddingConfig{Backend: config.EmbeddingBackend("bogus")})
	require.Error(t, err)
}

func TestNew_Deterministic(t *testing.T) {
	svc, err := New(&config.EmbeddingConfig{Backend: config.EmbeddingBackendDeterministic, Dimension: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, svc.Dimension())
}

func TestPool_EnqueueCallsStoreOnSuccess(t *testing.T) {
	svc := NewDeterministic(4)
	pool := NewPool(svc, &config.EmbeddingConfig{WorkerCount: 2, RequestTimeout: time.Second})
	defer pool.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	var stored []float32
	pool.Enqueue(Request{
		Text: "hello",
		Store: func(ctx context.Context, vec []float32) error {
			stored = vec
			wg.Done()
			return nil
		},
	})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for embed job")
	}
	assert.Len(t, stored, 4)
}

func TestPool_HealthReportsCounts(t *testing.T) {
	svc := NewDeterministic(4)
	pool := NewPool(svc, &config.EmbeddingConfig{WorkerCount: 1, RequestTimeout: time.Second})
	defer pool.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	pool.Enqueue(Request{
		Text:  "hello",
		Store: func(ctx context.Context, vec []float32) error { wg.Done(); return nil },
	})
	wg.Wait()
	time.Sleep(10 * time.Millisecond)

	h := pool.Health()
	assert.Equal(t, 1, h.Completed)
	assert.Equal(t, 0, h.Failures)
}
