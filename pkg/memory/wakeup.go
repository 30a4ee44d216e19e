package memory

import (
	"context"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/capsule"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// WakeUpInput mirrors the wake_up tool argument schema (spec §4.8, §6.2).
type WakeUpInput struct {
	WithWhom    string
	Principal   string
	RecentCount int
	Expand      bool
}

func (in WakeUpInput) recentCount() int {
	if in.RecentCount <= 0 {
		return 3
	}
	if in.RecentCount > 20 {
		return 20
	}
	return in.RecentCount
}

// WakeUpBundle is the structured context bundle wake_up returns (spec
// §4.8): the last N handoffs at their current compression level — full-
// fidelity narrative fields projected out per spec §4.3.1 unless the
// caller passed expand=true — the identity thread, active decisions,
// visible capsules, and a WAL-replay backlog placeholder the server can
// never observe directly.
type WakeUpBundle struct {
	RecentHandoffs  []*ent.Handoff
	IdentityThread  []IdentityThreadEntry
	ActiveDecisions []*ent.Decision
	Capsules        []*ent.Capsule
	// WALBacklog is always nil: the WAL lives on the client, so the
	// server has nothing to report here. The client fills this field in
	// (for example from wal.Client.Pending) before presenting a bundle to
	// the agent (spec §4.8 point 5).
	WALBacklog *int
}

// WakeUp composes the read-only session-start context bundle (spec §4.8).
// It never modifies state: WAL replay triggering is a client-side
// responsibility this server cannot perform on the client's behalf.
func (o *Operations) WakeUp(ctx context.Context, tenantID string, in WakeUpInput) (*WakeUpBundle, error) {
	if in.WithWhom == "" {
		return nil, store.NewValidationError("with_whom", "required")
	}
	recentCount := in.recentCount()

	handoffs, err := o.ListHandoffs(ctx, tenantID, ListHandoffsFilter{WithWhom: in.WithWhom, Expand: in.Expand}, store.Cursor{}, recentCount)
	if err != nil {
		return nil, err
	}

	thread, err := o.GetIdentityThread(ctx, tenantID, in.WithWhom, recentCount)
	if err != nil {
		return nil, err
	}

	decisions, err := o.ListActiveDecisions(ctx, tenantID, []string{"project", "global"})
	if err != nil {
		return nil, err
	}

	capsules, err := o.GetCapsules(ctx, tenantID, GetCapsulesFilter{Principal: in.Principal}, store.Cursor{}, 50)
	if err != nil {
		return nil, err
	}
	// spec §4.8 step 4: only capsules still live at wake-up time, unlike
	// get_capsules which surfaces expired rows with status=expired for
	// visibility (spec §3).
	visible := make([]*ent.Capsule, 0, len(capsules))
	for _, c := range capsules {
		if c.Status != capsule.StatusExpired {
			visible = append(visible, c)
		}
	}

	return &WakeUpBundle{
		RecentHandoffs:  handoffs,
		IdentityThread:  thread,
		ActiveDecisions: decisions,
		Capsules:        visible,
		WALBacklog:      nil,
	}, nil
}
