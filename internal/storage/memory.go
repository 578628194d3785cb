package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryPickupStorage implements PickupStorage using an in-memory slice
type MemoryPickupStorage struct {
	pickups []*Pickup
	mu      sync.RWMutex
}

// NewMemoryPickupStorage creates a new in-memory storage instance
func NewMemoryPickupStorage(pickups ...*Pickup) *MemoryPickupStorage {
	return &MemoryPickupStorage{
		pickups: copyPickups(pickups),
	}
}

func (m *MemoryPickupStorage) Load(ctx context.Context) ([]*Pickup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return copyPickups(m.pickups), nil
}

func (m *MemoryPickupStorage) Save(ctx context.Context, pickups []*Pickup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pickups = copyPickups(pickups)
	return nil
}

func (m *MemoryPickupStorage) Append(ctx context.Context, pickup *Pickup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.pickups {
		if existing.ID == pickup.ID {
			return fmt.Errorf("pickup %d already exists", pickup.ID)
		}
	}

	p := *pickup
	m.pickups = append([]*Pickup{&p}, m.pickups...)
	return nil
}

func copyPickups(pickups []*Pickup) []*Pickup {
	result := make([]*Pickup, 0, len(pickups))
	for _, pickup := range pickups {
		p := *pickup
		result = append(result, &p)
	}
	return result
}
