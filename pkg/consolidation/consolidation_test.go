package consolidation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callin2/agent-memory-sub001/ent/consolidationjob"
	"github.com/callin2/agent-memory-sub001/ent/decision"
	"github.com/callin2/agent-memory-sub001/ent/handoff"
	"github.com/callin2/agent-memory-sub001/pkg/config"
	"github.com/callin2/agent-memory-sub001/pkg/consolidation"
	"github.com/callin2/agent-memory-sub001/pkg/embedding"
	"github.com/callin2/agent-memory-sub001/pkg/events"
	"github.com/callin2/agent-memory-sub001/pkg/llmsvc"
	"github.com/callin2/agent-memory-sub001/pkg/store"
	util "github.com/callin2/agent-memory-sub001/test/util"
)

func newEngine(t *testing.T) (*store.Store, *consolidation.Engine) {
	t.Helper()
	s := util.SetupTestStore(t)
	cfg := config.DefaultConsolidationConfig()
	eng := consolidation.New(s, events.NewPublisher(), &llmsvc.Deterministic{}, embedding.NewDeterministic(1536), cfg)
	return s, eng
}

func createOldHandoff(t *testing.T, s *store.Store, tenantID, withWhom string, age time.Duration, becoming string) string {
	t.Helper()
	ctx := context.Background()
	id := "hof_" + uuid.NewString()
	create := s.Client().Handoff.Create().
		SetID(id).
		SetTenantID(tenantID).
		SetSessionID("s1").
		SetWithWhom(withWhom).
		SetExperienced("did something notable").
		SetNoticed("noticed a pattern").
		SetLearned("learned a lesson").
		SetRemember("remember this").
		SetSignificance(0.5).
		SetCreatedAt(time.Now().UTC().Add(-age))
	if becoming != "" {
		create = create.SetBecoming(becoming)
	}
	_, err := create.Save(ctx)
	require.NoError(t, err)
	return id
}

func TestCompressHandoffs_AdvancesFullToSummary(t *testing.T) {
	s, eng := newEngine(t)
	ctx := context.Background()

	id := createOldHandoff(t, s, "t1", "Callin", 40*24*time.Hour, "")

	job, err := eng.CompressHandoffs(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, consolidationjob.StatusCompleted, job.Status)

	h, err := s.Client().Handoff.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, handoff.CompressionLevelSummary, h.CompressionLevel)
	require.NotNil(t, h.Summary)
	assert.NotEmpty(t, *h.Summary)
}

func TestCompressHandoffs_LeavesRecentHandoffsAlone(t *testing.T) {
	s, eng := newEngine(t)
	ctx := context.Background()

	id := createOldHandoff(t, s, "t1", "Callin", 1*time.Hour, "")

	_, err := eng.CompressHandoffs(ctx, "t1")
	require.NoError(t, err)

	h, err := s.Client().Handoff.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, handoff.CompressionLevelFull, h.CompressionLevel)
}

func TestCompressHandoffs_SecondConcurrentTriggerReturnsSameJob(t *testing.T) {
	s, eng := newEngine(t)
	ctx := context.Background()

	_, err := s.Client().ConsolidationJob.Create().
		SetID("cj_running").
		SetTenantID("t1").
		SetJobType(consolidationjob.JobTypeHandoffCompression).
		SetStatus(consolidationjob.StatusRunning).
		SetStartedAt(time.Now().UTC()).
		Save(ctx)
	require.NoError(t, err)

	job, err := eng.CompressHandoffs(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cj_running", job.ID)
	assert.Equal(t, consolidationjob.StatusRunning, job.Status)
}

func TestCompressHandoffs_ReclaimsStaleRunningJob(t *testing.T) {
	s, eng := newEngine(t)
	ctx := context.Background()

	_, err := s.Client().ConsolidationJob.Create().
		SetID("cj_stale").
		SetTenantID("t1").
		SetJobType(consolidationjob.JobTypeHandoffCompression).
		SetStatus(consolidationjob.StatusRunning).
		SetStartedAt(time.Now().UTC().Add(-2 * time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	job, err := eng.CompressHandoffs(ctx, "t1")
	require.NoError(t, err)
	assert.NotEqual(t, "cj_stale", job.ID)
	assert.Equal(t, consolidationjob.StatusCompleted, job.Status)

	stale, err := s.Client().ConsolidationJob.Get(ctx, "cj_stale")
	require.NoError(t, err)
	assert.Equal(t, consolidationjob.StatusFailed, stale.Status)
}

func TestArchiveDecisions_ArchivesOnlyOldActiveDecisions(t *testing.T) {
	s, eng := newEngine(t)
	ctx := context.Background()

	old, err := s.Client().Decision.Create().
		SetID("dec_old").
		SetTenantID("t1").
		SetScope(decision.ScopeProject).
		SetText("use postgres for everything").
		SetCreatedAt(time.Now().UTC().Add(-90 * 24 * time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	recent, err := s.Client().Decision.Create().
		SetID("dec_recent").
		SetTenantID("t1").
		SetScope(decision.ScopeProject).
		SetText("use sqlite for tests").
		Save(ctx)
	require.NoError(t, err)

	_, err = eng.ArchiveDecisions(ctx, "t1")
	require.NoError(t, err)

	old, err = s.Client().Decision.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, decision.StatusArchived, old.Status)

	recent, err = s.Client().Decision.Get(ctx, recent.ID)
	require.NoError(t, err)
	assert.Equal(t, decision.StatusActive, recent.Status)
}

func TestConsolidateIdentityThreads_EmitsPrincipleAtMinCount(t *testing.T) {
	s, eng := newEngine(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		createOldHandoff(t, s, "t1", "Callin", time.Duration(i)*time.Hour, "becoming someone who ships carefully")
	}

	job, err := eng.ConsolidateIdentityThreads(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, consolidationjob.StatusCompleted, job.Status)

	principles, err := s.Client().Decision.Query().
		Where(decision.TenantID("t1"), decision.ScopeEQ(decision.ScopeGlobal)).
		All(ctx)
	require.NoError(t, err)
	require.Len(t, principles, 1)

	linked, err := s.Client().Handoff.Query().
		Where(handoff.TenantID("t1"), handoff.IntegratedIntoNotNil()).
		All(ctx)
	require.NoError(t, err)
	assert.Len(t, linked, 10)
}

func TestConsolidateIdentityThreads_BelowMinCountEmitsNothing(t *testing.T) {
	s, eng := newEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		createOldHandoff(t, s, "t1", "Callin", time.Duration(i)*time.Hour, "becoming someone who ships carefully")
	}

	_, err := eng.ConsolidateIdentityThreads(ctx, "t1")
	require.NoError(t, err)

	principles, err := s.Client().Decision.Query().
		Where(decision.TenantID("t1"), decision.ScopeEQ(decision.ScopeGlobal)).
		All(ctx)
	require.NoError(t, err)
	assert.Empty(t, principles)
}
