package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// memStore is an in-memory catalog and ledger used by the allocator
// tests.  Insert and UpdateStatus enforce the same at-most-one-ACTIVE
// rule as the database's unique index, under a mutex, so concurrency
// tests exercise the real race semantics.
type memStore struct {
	mu           sync.Mutex
	tables       map[uint64]*model.Table
	reservations map[uint64]*model.Reservation
	nextResID    uint64

	// beforeInsert, when set, runs inside Insert before the uniqueness
	// check.  Tests use it to lose a race on purpose.
	beforeInsert func(s *memStore, r *model.Reservation)
}

func newMemStore(capacities ...uint32) *memStore {
	s := &memStore{
		tables:       make(map[uint64]*model.Table),
		reservations: make(map[uint64]*model.Reservation),
	}
	for i, capacity := range capacities {
		id := uint64(i + 1)
		s.tables[id] = &model.Table{ID: id, TableNumber: uint32(i + 1), Capacity: capacity}
	}
	return s
}

func (s *memStore) addTable(id uint64, number, capacity uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[id] = &model.Table{ID: id, TableNumber: number, Capacity: capacity}
}

func (s *memStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.tables)), nil
}

func (s *memStore) CountFitting(ctx context.Context, minCapacity uint32) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tables {
		if t.Capacity >= minCapacity {
			n++
		}
	}
	return n, nil
}

func (s *memStore) FindSmallestFitting(ctx context.Context, minCapacity uint32, excluding []uint64) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skip := make(map[uint64]bool, len(excluding))
	for _, id := range excluding {
		skip[id] = true
	}
	var candidates []*model.Table
	for _, t := range s.tables {
		if t.Capacity >= minCapacity && !skip[t.ID] {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Capacity != candidates[j].Capacity {
			return candidates[i].Capacity < candidates[j].Capacity
		}
		return candidates[i].TableNumber < candidates[j].TableNumber
	})
	cp := *candidates[0]
	return &cp, nil
}

func (s *memStore) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrTableNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) Update(ctx context.Context, id uint64, tableNumber, capacity *uint32) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrTableNotFound
	}
	if tableNumber != nil {
		t.TableNumber = *tableNumber
	}
	if capacity != nil {
		t.Capacity = *capacity
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) ActiveTableIDsFor(ctx context.Context, date, timeSlot string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for _, r := range s.reservations {
		if r.Status == model.StatusActive && r.Date == date && r.TimeSlot == timeSlot {
			ids = append(ids, r.TableID)
		}
	}
	return ids, nil
}

func (s *memStore) FindActiveConflict(ctx context.Context, tableID uint64, date, timeSlot string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConflictLocked(tableID, date, timeSlot), nil
}

func (s *memStore) activeConflictLocked(tableID uint64, date, timeSlot string) *model.Reservation {
	for _, r := range s.reservations {
		if r.Status == model.StatusActive && r.TableID == tableID && r.Date == date && r.TimeSlot == timeSlot {
			cp := *r
			return &cp
		}
	}
	return nil
}

func (s *memStore) Insert(ctx context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beforeInsert != nil {
		hook := s.beforeInsert
		s.beforeInsert = nil
		hook(s, r)
	}
	if s.activeConflictLocked(r.TableID, r.Date, r.TimeSlot) != nil {
		return repository.ErrSlotTaken
	}
	s.nextResID++
	r.ID = s.nextResID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.reservations[r.ID] = &cp
	return nil
}

func (s *memStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	if status == model.StatusActive && r.Status != model.StatusActive {
		if c := s.activeConflictLocked(r.TableID, r.Date, r.TimeSlot); c != nil && c.ID != id {
			return nil, repository.ErrSlotTaken
		}
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (s *memStore) CountActiveOverCapacity(ctx context.Context, tableID uint64, newCapacity uint32) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.reservations {
		if r.Status == model.StatusActive && r.TableID == tableID && r.Guests > newCapacity {
			n++
		}
	}
	return n, nil
}

// ledgerAdapter renames GetReservation to the contract's GetByID so a
// single memStore can satisfy both interfaces despite the method clash
// with the catalog's GetByID.
type ledgerAdapter struct{ *memStore }

func (l ledgerAdapter) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return l.GetReservation(ctx, id)
}

// newTestAllocator wires an allocator to the store with the clock
// pinned so "today" never drifts under the tests.
func newTestAllocator(s *memStore, now time.Time) *Allocator {
	a := NewAllocator(s, ledgerAdapter{s})
	a.now = func() time.Time { return now }
	return a
}
