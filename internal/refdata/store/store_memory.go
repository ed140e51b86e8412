// Package store provides the reference-data store implementations. The
// in-memory form backs tests and development; PostgreSQL backs production.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"reestr/internal/refdata/models"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
)

// InMemory keeps all four reference collections behind one mutex; the
// volumes are tiny and the simplicity wins.
type InMemory struct {
	mu         sync.RWMutex
	districts  map[id.DistrictID]models.District
	mahallas   map[id.MahallaID]models.Mahalla
	categories map[id.CrimeCategoryID]models.CrimeCategory
	types      map[id.CrimeTypeID]models.CrimeType
}

// NewInMemory constructs an empty reference-data store.
func NewInMemory() *InMemory {
	return &InMemory{
		districts:  make(map[id.DistrictID]models.District),
		mahallas:   make(map[id.MahallaID]models.Mahalla),
		categories: make(map[id.CrimeCategoryID]models.CrimeCategory),
		types:      make(map[id.CrimeTypeID]models.CrimeType),
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// --- Districts ---

func (s *InMemory) CreateDistrict(_ context.Context, d *models.District) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.districts {
		if equalFold(existing.Name, d.Name) {
			return sentinel.ErrConflict
		}
		// Codes are unique too, but a blank code never collides with
		// another blank one.
		if d.Code != "" && equalFold(existing.Code, d.Code) {
			return sentinel.ErrConflict
		}
	}
	s.districts[d.ID] = *d
	return nil
}

func (s *InMemory) FindDistrict(_ context.Context, districtID id.DistrictID) (*models.District, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.districts[districtID]; ok {
		return &d, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListDistricts(_ context.Context) ([]models.District, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.District, 0, len(s.districts))
	for _, d := range s.districts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- Mahallas ---

func (s *InMemory) CreateMahalla(_ context.Context, m *models.Mahalla) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.districts[m.DistrictID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.mahallas {
		if existing.DistrictID == m.DistrictID && equalFold(existing.Name, m.Name) {
			return sentinel.ErrConflict
		}
	}
	s.mahallas[m.ID] = *m
	return nil
}

func (s *InMemory) FindMahalla(_ context.Context, mahallaID id.MahallaID) (*models.Mahalla, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.mahallas[mahallaID]; ok {
		return &m, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListMahallasByDistrict(_ context.Context, districtID id.DistrictID) ([]models.Mahalla, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Mahalla, 0)
	for _, m := range s.mahallas {
		if m.DistrictID == districtID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- Crime categories ---

func (s *InMemory) CreateCrimeCategory(_ context.Context, c *models.CrimeCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if equalFold(existing.Name, c.Name) {
			return sentinel.ErrConflict
		}
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *InMemory) UpdateCrimeCategory(_ context.Context, c *models.CrimeCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for otherID, existing := range s.categories {
		if otherID != c.ID && equalFold(existing.Name, c.Name) {
			return sentinel.ErrConflict
		}
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *InMemory) DeleteCrimeCategory(_ context.Context, categoryID id.CrimeCategoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[categoryID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.categories, categoryID)
	return nil
}

func (s *InMemory) FindCrimeCategory(_ context.Context, categoryID id.CrimeCategoryID) (*models.CrimeCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.categories[categoryID]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListCrimeCategories(_ context.Context) ([]models.CrimeCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CrimeCategory, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- Crime types ---

func sameCategory(a, b *id.CrimeCategoryID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *InMemory) CreateCrimeType(_ context.Context, c *models.CrimeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CategoryID != nil {
		if _, ok := s.categories[*c.CategoryID]; !ok {
			return sentinel.ErrNotFound
		}
	}
	for _, existing := range s.types {
		if sameCategory(existing.CategoryID, c.CategoryID) && equalFold(existing.Name, c.Name) {
			return sentinel.ErrConflict
		}
	}
	s.types[c.ID] = *c
	return nil
}

func (s *InMemory) UpdateCrimeType(_ context.Context, c *models.CrimeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if c.CategoryID != nil {
		if _, ok := s.categories[*c.CategoryID]; !ok {
			return sentinel.ErrNotFound
		}
	}
	for otherID, existing := range s.types {
		if otherID != c.ID && sameCategory(existing.CategoryID, c.CategoryID) && equalFold(existing.Name, c.Name) {
			return sentinel.ErrConflict
		}
	}
	s.types[c.ID] = *c
	return nil
}

func (s *InMemory) DeleteCrimeType(_ context.Context, typeID id.CrimeTypeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[typeID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.types, typeID)
	return nil
}

func (s *InMemory) FindCrimeType(_ context.Context, typeID id.CrimeTypeID) (*models.CrimeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.types[typeID]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListCrimeTypes(_ context.Context) ([]models.CrimeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CrimeType, 0, len(s.types))
	for _, c := range s.types {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
