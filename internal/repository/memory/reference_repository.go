package memory

import (
	"context"
	"sync"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/google/uuid"
)

// GroupRepository справочник групп в памяти (для тестов)
type GroupRepository struct {
	mu     sync.RWMutex
	groups map[uuid.UUID]model.AcademicGroup
}

func NewGroupRepository(groups ...model.AcademicGroup) *GroupRepository {
	r := &GroupRepository{groups: make(map[uuid.UUID]model.AcademicGroup)}
	for _, g := range groups {
		r.Put(g)
	}
	return r
}

// Put добавляет или заменяет группу
func (r *GroupRepository) Put(group model.AcademicGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = group
}

func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AcademicGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if group, ok := r.groups[id]; ok {
		return &group, nil
	}
	return nil, nil
}

// VenueRepository справочник аудиторий в памяти
type VenueRepository struct {
	mu     sync.RWMutex
	venues map[uuid.UUID]model.Venue
}

func NewVenueRepository(venues ...model.Venue) *VenueRepository {
	r := &VenueRepository{venues: make(map[uuid.UUID]model.Venue)}
	for _, v := range venues {
		r.Put(v)
	}
	return r
}

func (r *VenueRepository) Put(venue model.Venue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venues[venue.ID] = venue
}

func (r *VenueRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if venue, ok := r.venues[id]; ok {
		return &venue, nil
	}
	return nil, nil
}
