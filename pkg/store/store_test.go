package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/pkg/store"
	util "github.com/callin2/agent-memory-sub001/test/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	encoded := store.EncodeCursor(now, "hof_abc")

	decoded, err := store.DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), decoded.CreatedAtUnixMs)
	assert.Equal(t, "hof_abc", decoded.ID)
}

func TestDecodeCursor_Empty(t *testing.T) {
	decoded, err := store.DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, decoded.IsZero())
}

func TestDecodeCursor_Malformed(t *testing.T) {
	_, err := store.DecodeCursor("not-valid-base64!!")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodeValidationError))
}

func TestTx_RollsBackOnError(t *testing.T) {
	s := util.SetupTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := s.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		if err := tx.Decision.Create().
			SetID("dec_rollback").
			SetTenantID("t1").
			SetScope("session").
			SetText("should not survive").
			Exec(ctx); err != nil {
			return err
		}
		return sentinel
	})
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.CodePermanentError))

	_, err = s.Client().Decision.Get(ctx, "dec_rollback")
	assert.True(t, ent.IsNotFound(err))
}

func TestTx_CommitsOnSuccess(t *testing.T) {
	s := util.SetupTestStore(t)
	ctx := context.Background()

	err := s.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		return tx.Decision.Create().
			SetID("dec_committed").
			SetTenantID("t1").
			SetScope("session").
			SetText("persisted").
			Exec(ctx)
	})
	require.NoError(t, err)

	got, err := s.Client().Decision.Get(ctx, "dec_committed")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Text)
}

func TestFulltext_RanksByRelevance(t *testing.T) {
	s := util.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.Client().Handoff.Create().
		SetID("hof_oauth").
		SetTenantID("t1").
		SetSessionID("s1").
		SetWithWhom("claude").
		SetExperienced("built the oauth users table").
		SetNoticed("n/a").
		SetLearned("n/a").
		SetRemember("n/a").
		SetSignificance(0.5).
		Save(ctx)
	require.NoError(t, err)

	_, err = s.Client().Handoff.Create().
		SetID("hof_colors").
		SetTenantID("t1").
		SetSessionID("s1").
		SetWithWhom("claude").
		SetExperienced("unrelated topic about colors").
		SetNoticed("n/a").
		SetLearned("n/a").
		SetRemember("n/a").
		SetSignificance(0.5).
		Save(ctx)
	require.NoError(t, err)

	hits, err := s.Fulltext(ctx, "t1", store.KindHandoff, "oauth users", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "hof_oauth", hits[0].ID)
}

func TestFulltext_TenantIsolated(t *testing.T) {
	s := util.SetupTestStore(t)
	ctx := context.Background()

	_, err := s.Client().Handoff.Create().
		SetID("hof_t2").
		SetTenantID("t2").
		SetSessionID("s1").
		SetWithWhom("claude").
		SetExperienced("oauth users table for t2").
		SetNoticed("n/a").
		SetLearned("n/a").
		SetRemember("n/a").
		SetSignificance(0.5).
		Save(ctx)
	require.NoError(t, err)

	hits, err := s.Fulltext(ctx, "t1", store.KindHandoff, "oauth users", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
