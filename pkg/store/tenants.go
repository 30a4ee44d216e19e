package store

import "context"

// tenantBearingTables lists every table ConsolidationEngine needs to scan
// across tenants for scheduled work. Kept in one place so a new
// tenant-scoped table only needs one edit to be included in scheduling.
var tenantBearingTables = []string{"handoffs", "decisions", "knowledge_notes", "capsules", "agent_feedback"}

// ListTenants returns every distinct tenant_id with at least one row in any
// memory table. There is no dedicated tenant registry (spec §1 places
// tenant/API-key issuance out of scope) — ConsolidationEngine discovers
// which tenants need a scheduled run by asking the Store directly.
func (s *Store) ListTenants(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	for _, table := range tenantBearingTables {
		rows, err := s.db.DB().QueryContext(ctx, "SELECT DISTINCT tenant_id FROM "+table)
		if err != nil {
			return nil, NewTemporaryUnavailable(err)
		}
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				rows.Close()
				return nil, NewPermanentError(err)
			}
			seen[t] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, NewPermanentError(err)
		}
		rows.Close()
	}

	tenants := make([]string, 0, len(seen))
	for t := range seen {
		tenants = append(tenants, t)
	}
	return tenants, nil
}
