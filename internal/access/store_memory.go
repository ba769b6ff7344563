package access

import (
	"context"
	"sort"
	"sync"

	id "smartdoor/pkg/domain"
)

type grantKey struct {
	subjectID id.SubjectID
	doorID    id.DoorID
}

// MemoryStore keeps grants in memory for tests and single-instance dev runs.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[grantKey]*Grant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[grantKey]*Grant)}
}

func (s *MemoryStore) ListBySubject(_ context.Context, subjectID id.SubjectID) ([]*Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var grants []*Grant
	for key, grant := range s.grants {
		if key.subjectID == subjectID {
			g := *grant
			grants = append(grants, &g)
		}
	}
	sort.Slice(grants, func(i, j int) bool {
		if !grants[i].GrantedAt.Equal(grants[j].GrantedAt) {
			return grants[i].GrantedAt.Before(grants[j].GrantedAt)
		}
		return grants[i].DoorID.String() < grants[j].DoorID.String()
	})
	return grants, nil
}

func (s *MemoryStore) Upsert(_ context.Context, grant *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{subjectID: grant.SubjectID, doorID: grant.DoorID}
	if _, exists := s.grants[key]; exists {
		// Idempotent: the original grant, including granted_at, wins.
		return nil
	}
	g := *grant
	s.grants[key] = &g
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, subjectID id.SubjectID, doorID id.DoorID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey{subjectID: subjectID, doorID: doorID}]
	return ok, nil
}
