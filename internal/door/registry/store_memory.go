package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"smartdoor/internal/door/models"
	id "smartdoor/pkg/domain"
	"smartdoor/pkg/platform/sentinel"
)

// doorEntry pairs a door record with its own mutex so mutations serialize per
// door instead of behind one registry-wide lock.
type doorEntry struct {
	mu   sync.Mutex
	door models.Door
}

// MemoryStore keeps doors in memory for tests and single-instance dev runs.
// The outer RWMutex only guards the map topology; per-door mutation holds the
// entry mutex, so commands against different doors never contend.
type MemoryStore struct {
	mu    sync.RWMutex
	doors map[id.DoorID]*doorEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{doors: make(map[id.DoorID]*doorEntry)}
}

func (s *MemoryStore) entry(doorID id.DoorID) (*doorEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.doors[doorID]
	return e, ok
}

func (s *MemoryStore) Get(_ context.Context, doorID id.DoorID) (*models.Door, error) {
	e, ok := s.entry(doorID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	door := e.door
	return &door, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Door, error) {
	s.mu.RLock()
	entries := make([]*doorEntry, 0, len(s.doors))
	for _, e := range s.doors {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	doors := make([]*models.Door, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		door := e.door
		e.mu.Unlock()
		doors = append(doors, &door)
	}
	sort.Slice(doors, func(i, j int) bool {
		if doors[i].Name != doors[j].Name {
			return doors[i].Name < doors[j].Name
		}
		return doors[i].ID.String() < doors[j].ID.String()
	})
	return doors, nil
}

func (s *MemoryStore) ApplyTransition(_ context.Context, doorID id.DoorID, action models.Action, now time.Time) (*models.Door, error) {
	e, ok := s.entry(doorID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.door.Locked = action.Locks()
	e.door.LastUpdate = now
	door := e.door
	return &door, nil
}

func (s *MemoryStore) ReportHealth(_ context.Context, doorID id.DoorID, batteryLevel int, now time.Time) (*models.Door, error) {
	e, ok := s.entry(doorID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if batteryLevel < 0 {
		batteryLevel = 0
	}
	if batteryLevel > 100 {
		batteryLevel = 100
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.door.BatteryLevel = batteryLevel
	e.door.LastUpdate = now
	door := e.door
	return &door, nil
}

func (s *MemoryStore) Create(_ context.Context, door *models.Door) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.doors[door.ID]; exists {
		return sentinel.ErrConflict
	}
	s.doors[door.ID] = &doorEntry{door: *door}
	return nil
}
