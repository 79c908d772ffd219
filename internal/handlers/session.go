package handlers

import (
	"sync"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// Session holds the audit result the operator is currently working through.
// There is one logical writer at a time, but HTTP handlers run concurrently
// so access is still guarded.
type Session struct {
	mu     sync.RWMutex
	result *types.AuditResult
}

// Set replaces the session result.
func (s *Session) Set(result *types.AuditResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

// Result returns the current result, or nil when no audit has run.
func (s *Session) Result() *types.AuditResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Discrepancies resolves keys against the current result, preserving the
// caller's order. Unknown keys are skipped.
func (s *Session) Discrepancies(keys []string) []types.Discrepancy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil
	}
	byKey := make(map[string]types.Discrepancy, len(s.result.Discrepancies))
	for _, d := range s.result.Discrepancies {
		byKey[d.Key()] = d
	}
	out := make([]types.Discrepancy, 0, len(keys))
	for _, k := range keys {
		if d, ok := byKey[k]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Groups resolves handles against the current result, preserving the
// caller's order. An empty list selects every group.
func (s *Session) Groups(handles []string) []types.MissingProductGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil
	}
	if len(handles) == 0 {
		return append([]types.MissingProductGroup(nil), s.result.MissingProductGroups...)
	}
	byHandle := make(map[string]types.MissingProductGroup, len(s.result.MissingProductGroups))
	for _, g := range s.result.MissingProductGroups {
		byHandle[g.Handle] = g
	}
	out := make([]types.MissingProductGroup, 0, len(handles))
	for _, h := range handles {
		if g, ok := byHandle[h]; ok {
			out = append(out, g)
		}
	}
	return out
}

// PruneDiscrepancies removes discrepancies by key. Absent keys are no-ops.
func (s *Session) PruneDiscrepancies(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		s.result.RemoveDiscrepancies(keys)
	}
}

// PruneGroups removes missing groups by handle. Absent handles are no-ops.
func (s *Session) PruneGroups(handles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		s.result.RemoveMissingGroups(handles)
	}
}
