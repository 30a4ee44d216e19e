package wal_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/pkg/wal"
)

// fakeTransport records every call it receives and fails calls whose
// op_name is listed in failNames, so tests can simulate an unreachable
// server for specific operations without a real HTTP round trip.
type fakeTransport struct {
	mu        sync.Mutex
	calls     []string
	failNames map[string]bool
}

func newFakeTransport(failNames ...string) *fakeTransport {
	fail := map[string]bool{}
	for _, n := range failNames {
		fail[n] = true
	}
	return &fakeTransport{failNames: fail}
}

func (f *fakeTransport) Call(ctx context.Context, opName string, args map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opName+":"+args["op_id"].(string))
	if f.failNames[opName] {
		return nil, errors.New("simulated server unreachable")
	}
	return map[string]any{"handoff_id": "hof_1"}, nil
}

func TestEnqueue_SuccessRemovesRecord(t *testing.T) {
	dir := t.TempDir()
	transport := newFakeTransport()
	c, err := wal.New(filepath.Join(dir, "operations.jsonl"), transport)
	require.NoError(t, err)

	opID, err := c.Enqueue(context.Background(), "create_handoff", map[string]any{"with_whom": "Callin"}, "default")
	require.NoError(t, err)
	assert.NotEmpty(t, opID)

	pending, err := c.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
}

func TestEnqueue_FailureLeavesRecordForReplay(t *testing.T) {
	dir := t.TempDir()
	transport := newFakeTransport("create_handoff")
	c, err := wal.New(filepath.Join(dir, "operations.jsonl"), transport)
	require.NoError(t, err)

	_, err = c.Enqueue(context.Background(), "create_handoff", map[string]any{"with_whom": "Callin"}, "default")
	require.Error(t, err)

	pending, err := c.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestReplay_IdempotentSecondPassNoOps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "operations.jsonl")

	transport := newFakeTransport("create_handoff")
	c, err := wal.New(path, transport)
	require.NoError(t, err)

	opA, err := c.Enqueue(context.Background(), "create_handoff", map[string]any{"n": "A"}, "default")
	require.Error(t, err)
	opB, err := c.Enqueue(context.Background(), "create_handoff", map[string]any{"n": "B"}, "default")
	require.Error(t, err)
	assert.NotEqual(t, opA, opB)

	// Recovery: the server comes back up.
	transport.failNames = map[string]bool{}

	result, err := c.Replay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Remaining)

	// A second replay has nothing left to do (spec §8 scenario 5).
	result2, err := c.Replay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result2.Attempted)
}

func TestReplay_PreservesEnqueueOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "operations.jsonl")

	transport := newFakeTransport("create_handoff")
	c, err := wal.New(path, transport)
	require.NoError(t, err)

	opA, _ := c.Enqueue(context.Background(), "create_handoff", map[string]any{"n": "A"}, "default")
	opB, _ := c.Enqueue(context.Background(), "create_handoff", map[string]any{"n": "B"}, "default")
	opC, _ := c.Enqueue(context.Background(), "create_handoff", map[string]any{"n": "C"}, "default")

	transport.failNames = map[string]bool{}
	_, err = c.Replay(context.Background())
	require.NoError(t, err)

	require.Len(t, transport.calls, 6) // 3 failed attempts during Enqueue + 3 successful during Replay
	// The three Replay calls (the last three recorded) must be in
	// enqueue order A, B, C.
	replayCalls := transport.calls[3:]
	require.Len(t, replayCalls, 3)
	assert.Equal(t, "create_handoff:"+opA, replayCalls[0])
	assert.Equal(t, "create_handoff:"+opB, replayCalls[1])
	assert.Equal(t, "create_handoff:"+opC, replayCalls[2])
}
