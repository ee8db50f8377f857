package repo

import (
	"sync"
	"time"

	"tourmarket-backend/internal/domain"
)

// MemoryStore keeps orders in memory with the same contract as the
// file store. Used by the memory driver and by service tests; nothing
// survives a restart and no backups are taken.
type MemoryStore struct {
	mu                sync.RWMutex
	orders            []domain.Order
	commissionPercent float64
	now               func() time.Time
}

func NewMemoryStore(commissionPercent float64) *MemoryStore {
	return &MemoryStore{
		commissionPercent: commissionPercent,
		now:               time.Now,
	}
}

func (s *MemoryStore) ReadAll(actor domain.Actor) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !actor.Known() {
		return []domain.Order{}, nil
	}
	visible := []domain.Order{}
	for _, o := range s.orders {
		if actor.IsAdmin() || o.OwnedBy(actor) {
			visible = append(visible, o)
		}
	}
	return visible, nil
}

func (s *MemoryStore) FindByID(id string, actor domain.Actor) (*domain.Order, error) {
	orders, err := s.ReadAll(actor)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Insert(o domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := normalizeOrder(o, s.commissionPercent, s.now().UTC())
	s.orders = append(s.orders, norm)
	return norm, nil
}

func (s *MemoryStore) UpdateByID(id string, patch domain.OrderPatch, actor domain.Actor) (*domain.Order, error) {
	if id == "" || !actor.Known() {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID != id {
			continue
		}
		current := s.orders[i]
		if !actor.IsAdmin() && !current.OwnedBy(actor) {
			return nil, nil
		}
		merged := patch.Apply(current)
		merged.ID = current.ID
		norm := normalizeOrder(merged, s.commissionPercent, s.now().UTC())
		s.orders[i] = norm
		return &norm, nil
	}
	return nil, nil
}
