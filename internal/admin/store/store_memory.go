// Package store persists admin accounts.
package store

import (
	"context"
	"sort"
	"sync"

	"docverify/internal/admin/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// InMemory is a map-backed admin store for tests and single-node dev runs.
type InMemory struct {
	mu      sync.RWMutex
	admins  map[id.AdminID]*models.Admin
	byEmail map[string]id.AdminID
}

func NewInMemory() *InMemory {
	return &InMemory{
		admins:  make(map[id.AdminID]*models.Admin),
		byEmail: make(map[string]id.AdminID),
	}
}

func (s *InMemory) Create(_ context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[admin.Email]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.admins[admin.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *admin
	s.admins[admin.ID] = &cp
	s.byEmail[admin.Email] = admin.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, adminID id.AdminID) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[adminID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	adminID, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.admins[adminID]
	return &cp, nil
}

// FindMany returns matching admins ordered by CreatedAt descending.
func (s *InMemory) FindMany(_ context.Context, filter models.Filter, page id.Page) ([]*models.Admin, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Admin
	for _, a := range s.admins {
		if matches(a, filter) {
			cp := *a
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	start := page.Offset()
	if start >= total {
		return []*models.Admin{}, total, nil
	}
	end := min(start+page.Limit, total)
	return matched[start:end], total, nil
}

func (s *InMemory) CountByRole(_ context.Context, role id.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.admins {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

// Execute loads the admin, runs validate, then mutate, then saves, all under
// the write lock. A validate error aborts without changes.
func (s *InMemory) Execute(_ context.Context, adminID id.AdminID, validate func(*models.Admin) error, mutate func(*models.Admin)) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.admins[adminID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := *current
	if validate != nil {
		if err := validate(&next); err != nil {
			return nil, err
		}
	}
	mutate(&next)

	if next.Email != current.Email {
		if owner, taken := s.byEmail[next.Email]; taken && owner != adminID {
			return nil, sentinel.ErrConflict
		}
		delete(s.byEmail, current.Email)
		s.byEmail[next.Email] = adminID
	}
	s.admins[adminID] = &next
	cp := next
	return &cp, nil
}

func matches(a *models.Admin, f models.Filter) bool {
	if !f.ID.IsNil() && a.ID != f.ID {
		return false
	}
	if f.ActiveOnly && !a.IsActive {
		return false
	}
	return true
}
