package retrieval

import (
	"context"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// loadRow fetches the full row behind one candidate so Recall can apply
// project_path/with_whom/time_range filters and build a snippet. A missing
// row (deleted between the sub-search and this lookup) is reported via ok
// = false rather than an error.
func (s *Service) loadRow(ctx context.Context, kind store.EntityKind, tenantID, id string, expand bool) (rowData, bool, error) {
	switch kind {
	case store.KindHandoff:
		return s.loadHandoffRow(ctx, tenantID, id, expand)
	case store.KindKnowledgeNote:
		return s.loadKnowledgeNoteRow(ctx, tenantID, id)
	case store.KindAgentFeedback:
		return s.loadFeedbackRow(ctx, tenantID, id)
	case store.KindCapsule:
		return s.loadCapsuleRow(ctx, tenantID, id)
	default:
		return rowData{}, false, store.NewValidationError("types", "unsupported search type")
	}
}

const snippetMaxChars = 280

func (s *Service) loadHandoffRow(ctx context.Context, tenantID, id string, expand bool) (rowData, bool, error) {
	h, err := s.store.Client().Handoff.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return rowData{}, false, nil
		}
		return rowData{}, false, store.MapEntError(err)
	}
	if h.TenantID != tenantID {
		return rowData{}, false, nil
	}

	// spec §4.4 step 5: default to the highest compression level on hand;
	// expand=true returns the full-fidelity text regardless of level.
	text := h.Experienced + " " + h.Noticed + " " + h.Learned
	if !expand {
		switch {
		case h.QuickRef != nil:
			text = *h.QuickRef
		case h.Summary != nil:
			text = *h.Summary
		}
	}

	return rowData{
		createdAt:   h.CreatedAt,
		snippet:     snippetOf(text, snippetMaxChars),
		withWhom:    h.WithWhom,
		projectPath: "",
		metadata: map[string]any{
			"with_whom":         h.WithWhom,
			"compression_level": string(h.CompressionLevel),
			"significance":      h.Significance,
			"tags":              h.Tags,
		},
	}, true, nil
}

func (s *Service) loadKnowledgeNoteRow(ctx context.Context, tenantID, id string) (rowData, bool, error) {
	n, err := s.store.Client().KnowledgeNote.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return rowData{}, false, nil
		}
		return rowData{}, false, store.MapEntError(err)
	}
	if n.TenantID != tenantID {
		return rowData{}, false, nil
	}

	projectPath := ""
	if n.ProjectPath != nil {
		projectPath = *n.ProjectPath
	}

	return rowData{
		createdAt:   n.CreatedAt,
		snippet:     snippetOf(n.Text, snippetMaxChars),
		projectPath: projectPath,
		metadata: map[string]any{
			"kind":       string(n.Kind),
			"tags":       n.Tags,
			"confidence": n.Confidence,
		},
	}, true, nil
}

func (s *Service) loadFeedbackRow(ctx context.Context, tenantID, id string) (rowData, bool, error) {
	f, err := s.store.Client().AgentFeedback.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return rowData{}, false, nil
		}
		return rowData{}, false, store.MapEntError(err)
	}
	if f.TenantID != tenantID {
		return rowData{}, false, nil
	}

	return rowData{
		createdAt: f.CreatedAt,
		snippet:   snippetOf(f.Text, snippetMaxChars),
		metadata: map[string]any{
			"kind":   string(f.Kind),
			"status": string(f.Status),
		},
	}, true, nil
}

func (s *Service) loadCapsuleRow(ctx context.Context, tenantID, id string) (rowData, bool, error) {
	c, err := s.store.Client().Capsule.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return rowData{}, false, nil
		}
		return rowData{}, false, store.MapEntError(err)
	}
	if c.TenantID != tenantID {
		return rowData{}, false, nil
	}

	text := ""
	if len(c.Items.Chunks) > 0 {
		text = c.Items.Chunks[0]
	}

	return rowData{
		createdAt: c.CreatedAt,
		snippet:   snippetOf(text, snippetMaxChars),
		metadata: map[string]any{
			"scope":        string(c.Scope),
			"subject_type": c.SubjectType,
			"subject_id":   c.SubjectID,
			"status":       string(c.Status),
			"expires_at":   c.ExpiresAt,
		},
	}, true, nil
}
