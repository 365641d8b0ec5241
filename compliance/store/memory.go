// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/zoneline/compliance-engine/compliance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	organizations map[compliance.OrganizationID]compliance.Organization
	employees     map[compliance.EmployeeID]compliance.Employee
	snapshots     map[compliance.OrganizationID][]compliance.ComplianceSnapshot
	snapshotIDs   map[string]bool
	gracePeriods  map[compliance.OrganizationID][]compliance.GracePeriod
}

func NewMemory() *Memory {
	return &Memory{
		organizations: make(map[compliance.OrganizationID]compliance.Organization),
		employees:     make(map[compliance.EmployeeID]compliance.Employee),
		snapshots:     make(map[compliance.OrganizationID][]compliance.ComplianceSnapshot),
		snapshotIDs:   make(map[string]bool),
		gracePeriods:  make(map[compliance.OrganizationID][]compliance.GracePeriod),
	}
}

var _ compliance.Store = (*Memory)(nil)

// =============================================================================
// ORGANIZATIONS
// =============================================================================

func (m *Memory) GetOrganization(_ context.Context, id compliance.OrganizationID) (*compliance.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	org, ok := m.organizations[id]
	if !ok {
		return nil, compliance.ErrOrganizationNotFound
	}
	return &org, nil
}

func (m *Memory) SaveOrganization(_ context.Context, org compliance.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations[org.ID] = org
	return nil
}

func (m *Memory) ListOrganizations(_ context.Context) ([]compliance.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]compliance.Organization, 0, len(m.organizations))
	for _, org := range m.organizations {
		out = append(out, org)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id compliance.EmployeeID) (*compliance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, compliance.ErrEmployeeNotFound
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context, orgID compliance.OrganizationID) ([]compliance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []compliance.Employee
	for _, e := range m.employees {
		if e.OrganizationID == orgID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *Memory) SaveEmployee(_ context.Context, e compliance.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

// =============================================================================
// SNAPSHOTS - Append-only
// =============================================================================

func (m *Memory) AppendSnapshot(_ context.Context, s compliance.ComplianceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshotIDs[s.ID] {
		return compliance.ErrPersistenceConflict
	}
	m.snapshotIDs[s.ID] = true

	log := m.snapshots[s.OrganizationID]

	// Keep the log ordered by as-of date; binary search for the slot.
	i := sort.Search(len(log), func(i int) bool {
		return log[i].AsOf.After(s.AsOf)
	})
	log = append(log, compliance.ComplianceSnapshot{})
	copy(log[i+1:], log[i:])
	log[i] = s
	m.snapshots[s.OrganizationID] = log
	return nil
}

func (m *Memory) History(_ context.Context, orgID compliance.OrganizationID, since *compliance.Date) ([]compliance.ComplianceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []compliance.ComplianceSnapshot
	for _, s := range m.snapshots[orgID] {
		if since != nil && s.AsOf.Before(*since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) LatestSnapshot(_ context.Context, orgID compliance.OrganizationID) (*compliance.ComplianceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.snapshots[orgID]
	if len(log) == 0 {
		return nil, nil
	}
	latest := log[len(log)-1]
	return &latest, nil
}

// =============================================================================
// GRACE PERIODS
// =============================================================================

func (m *Memory) ActiveGracePeriod(_ context.Context, orgID compliance.OrganizationID) (*compliance.GracePeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	periods := m.gracePeriods[orgID]
	for i := len(periods) - 1; i >= 0; i-- {
		if periods[i].Active {
			g := periods[i]
			return &g, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpsertGracePeriod(_ context.Context, g compliance.GracePeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	periods := m.gracePeriods[g.OrganizationID]
	for i := range periods {
		if periods[i].ID == g.ID {
			periods[i] = g
			return nil
		}
	}
	m.gracePeriods[g.OrganizationID] = append(periods, g)
	return nil
}

func (m *Memory) GracePeriodHistory(_ context.Context, orgID compliance.OrganizationID) ([]compliance.GracePeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]compliance.GracePeriod, len(m.gracePeriods[orgID]))
	copy(out, m.gracePeriods[orgID])
	return out, nil
}

// Reset clears all data. Demo/scenario use only.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations = make(map[compliance.OrganizationID]compliance.Organization)
	m.employees = make(map[compliance.EmployeeID]compliance.Employee)
	m.snapshots = make(map[compliance.OrganizationID][]compliance.ComplianceSnapshot)
	m.snapshotIDs = make(map[string]bool)
	m.gracePeriods = make(map[compliance.OrganizationID][]compliance.GracePeriod)
	return nil
}
