// Package store persists verification records.
package store

import (
	"context"
	"sort"
	"sync"

	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// InMemory is a map-backed store. All filter semantics match the Postgres store.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.VerificationID]*models.Verification
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.VerificationID]*models.Verification)}
}

func (s *InMemory) Create(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[v.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[v.ID] = clone(v)
	return nil
}

func (s *InMemory) FindOne(_ context.Context, filter models.Filter) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.matchLocked(filter)
	if len(matched) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return clone(matched[0]), nil
}

// FindMany returns one page of matches ordered by CreatedAt descending, plus
// the total match count.
func (s *InMemory) FindMany(_ context.Context, filter models.Filter, page id.Page) ([]*models.Verification, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.matchLocked(filter)
	total := len(matched)
	start := page.Offset()
	if start >= total {
		return []*models.Verification{}, total, nil
	}
	end := min(start+page.Limit, total)
	out := make([]*models.Verification, 0, end-start)
	for _, v := range matched[start:end] {
		out = append(out, clone(v))
	}
	return out, total, nil
}

func (s *InMemory) Count(_ context.Context, filter models.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matchLocked(filter)), nil
}

// Execute finds the single record matching filter and applies validate then
// mutate under the write lock.
func (s *InMemory) Execute(_ context.Context, filter models.Filter, validate func(*models.Verification) error, mutate func(*models.Verification)) (*models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := s.matchLocked(filter)
	if len(matched) == 0 {
		return nil, sentinel.ErrNotFound
	}
	next := clone(matched[0])
	if validate != nil {
		if err := validate(next); err != nil {
			return nil, err
		}
	}
	mutate(next)
	s.records[next.ID] = next
	return clone(next), nil
}

// Delete removes the record matching filter and returns it.
func (s *InMemory) Delete(_ context.Context, filter models.Filter) (*models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := s.matchLocked(filter)
	if len(matched) == 0 {
		return nil, sentinel.ErrNotFound
	}
	v := matched[0]
	delete(s.records, v.ID)
	return clone(v), nil
}

func (s *InMemory) AggregateByStatus(_ context.Context, filter models.Filter) (models.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts models.StatusCounts
	for _, v := range s.matchLocked(filter) {
		counts.Add(v.Status, 1)
	}
	return counts, nil
}

// Recent returns up to n matches, newest first.
func (s *InMemory) Recent(_ context.Context, filter models.Filter, n int) ([]*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.matchLocked(filter)
	if len(matched) > n {
		matched = matched[:n]
	}
	out := make([]*models.Verification, 0, len(matched))
	for _, v := range matched {
		out = append(out, clone(v))
	}
	return out, nil
}

// LatestApprovedByIDNumber returns the approved record with the most recent
// ReviewedAt for idNumber.
func (s *InMemory) LatestApprovedByIDNumber(_ context.Context, idNumber string) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Verification
	for _, v := range s.records {
		if v.IDNumber != idNumber || v.Status != models.StatusApproved {
			continue
		}
		if best == nil || reviewedAfter(v, best) {
			best = v
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	return clone(best), nil
}

// LatestByIDNumber returns the most recently submitted record for idNumber.
func (s *InMemory) LatestByIDNumber(_ context.Context, idNumber string) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Verification
	for _, v := range s.records {
		if v.IDNumber != idNumber {
			continue
		}
		if best == nil || v.SubmittedAt.After(best.SubmittedAt) {
			best = v
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	return clone(best), nil
}

func (s *InMemory) matchLocked(filter models.Filter) []*models.Verification {
	var matched []*models.Verification
	for _, v := range s.records {
		if filter.Matches(v) {
			matched = append(matched, v)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func reviewedAfter(a, b *models.Verification) bool {
	switch {
	case a.ReviewedAt == nil:
		return false
	case b.ReviewedAt == nil:
		return true
	default:
		return a.ReviewedAt.After(*b.ReviewedAt)
	}
}

func clone(v *models.Verification) *models.Verification {
	cp := *v
	if v.EndDate != nil {
		d := *v.EndDate
		cp.EndDate = &d
	}
	if v.ReviewedBy != nil {
		r := *v.ReviewedBy
		cp.ReviewedBy = &r
	}
	if v.ReviewedAt != nil {
		t := *v.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}
