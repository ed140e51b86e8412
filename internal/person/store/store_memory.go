package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"reestr/internal/person/models"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded person store for tests and development. Scope
// and filter predicates are evaluated in Go, mirroring the SQL the Postgres
// store generates.
type InMemory struct {
	mu      sync.RWMutex
	persons map[id.PersonID]models.Person
}

func NewInMemory() *InMemory {
	return &InMemory{persons: make(map[id.PersonID]models.Person)}
}

// Create stores a new person. Passport serial+number pairs are unique.
func (s *InMemory) Create(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[p.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.persons {
		if existing.PassportSerial == p.PassportSerial && existing.PassportNumber == p.PassportNumber {
			return sentinel.ErrConflict
		}
	}
	s.persons[p.ID] = *p
	return nil
}

func (s *InMemory) Update(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for existingID, existing := range s.persons {
		if existingID != p.ID &&
			existing.PassportSerial == p.PassportSerial &&
			existing.PassportNumber == p.PassportNumber {
			return sentinel.ErrConflict
		}
	}
	s.persons[p.ID] = *p
	return nil
}

func (s *InMemory) Delete(_ context.Context, personID id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[personID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.persons, personID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, personID id.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[personID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

// List returns every person visible under the scope, most recently
// registered first.
func (s *InMemory) List(ctx context.Context, scope models.Scope) ([]models.Person, error) {
	return s.Search(ctx, scope, models.SearchFilter{})
}

// ListInProcess returns in-process persons visible under the scope, most
// recently processed first.
func (s *InMemory) ListInProcess(_ context.Context, scope models.Scope) ([]models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Person
	for _, p := range s.persons {
		if p.InProcess && scope.Matches(&p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ProcessedAt.Equal(*out[j].ProcessedAt) {
			return out[i].ProcessedAt.After(*out[j].ProcessedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Search returns persons matching the scope and every non-empty filter
// predicate, most recently registered first.
func (s *InMemory) Search(_ context.Context, scope models.Scope, filter models.SearchFilter) ([]models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Person
	for _, p := range s.persons {
		if scope.Matches(&p) && matchesFilter(&p, filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.After(out[j].RegisteredAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func matchesFilter(p *models.Person, f models.SearchFilter) bool {
	if f.FirstName != "" && !containsFold(p.FirstName, f.FirstName) {
		return false
	}
	if f.LastName != "" && !containsFold(p.LastName, f.LastName) {
		return false
	}
	if f.PassportSerial != "" && p.PassportSerial != strings.ToUpper(f.PassportSerial) {
		return false
	}
	if f.PassportNumber != "" && !strings.Contains(p.PassportNumber, f.PassportNumber) {
		return false
	}
	if f.DistrictID != nil && p.DistrictID != *f.DistrictID {
		return false
	}
	if f.MahallaID != nil && p.MahallaID != *f.MahallaID {
		return false
	}
	if f.CrimeCategoryID != nil && p.CrimeCategoryID != *f.CrimeCategoryID {
		return false
	}
	if f.CrimeTypeID != nil && p.CrimeTypeID != *f.CrimeTypeID {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
