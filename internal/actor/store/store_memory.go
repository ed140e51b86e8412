package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"reestr/internal/actor/models"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded actor store for tests and development.
type InMemory struct {
	mu     sync.RWMutex
	actors map[id.ActorID]models.Actor
}

func NewInMemory() *InMemory {
	return &InMemory{actors: make(map[id.ActorID]models.Actor)}
}

// Create stores a new actor. Logins are unique, case-insensitively.
func (s *InMemory) Create(_ context.Context, a *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.actors[a.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.actors {
		if strings.EqualFold(existing.Login, a.Login) {
			return sentinel.ErrConflict
		}
	}
	s.actors[a.ID] = *a
	return nil
}

// Update replaces the stored actor; the login uniqueness check excludes the
// record being updated.
func (s *InMemory) Update(_ context.Context, a *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.actors[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for existingID, existing := range s.actors {
		if existingID != a.ID && strings.EqualFold(existing.Login, a.Login) {
			return sentinel.ErrConflict
		}
	}
	s.actors[a.ID] = *a
	return nil
}

func (s *InMemory) Delete(_ context.Context, actorID id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.actors[actorID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.actors, actorID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, actorID id.ActorID) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.actors[actorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

func (s *InMemory) FindByLogin(_ context.Context, login string) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.actors {
		if strings.EqualFold(a.Login, login) {
			copied := a
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns all actors ordered by creation time, newest first.
func (s *InMemory) List(_ context.Context) ([]models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		out = append(out, a)
	}
	sortActors(out)
	return out, nil
}

// ListByDistrict returns actors bound to the given district, newest first.
func (s *InMemory) ListByDistrict(_ context.Context, districtID id.DistrictID) ([]models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Actor
	for _, a := range s.actors {
		if a.DistrictID != nil && *a.DistrictID == districtID {
			out = append(out, a)
		}
	}
	sortActors(out)
	return out, nil
}

func sortActors(actors []models.Actor) {
	sort.Slice(actors, func(i, j int) bool {
		if !actors[i].CreatedAt.Equal(actors[j].CreatedAt) {
			return actors[i].CreatedAt.After(actors[j].CreatedAt)
		}
		return actors[i].ID.String() < actors[j].ID.String()
	})
}
