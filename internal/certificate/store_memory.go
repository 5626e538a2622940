package certificate

import (
	"context"
	"maps"
	"sort"
	"sync"

	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore is the map-backed certificate store. CertificateID is unique
// across live and deleted certificates, as in the certificates table.
type InMemoryStore struct {
	mu     sync.RWMutex
	certs  map[id.CertificateID]*Certificate
	byCode map[string]id.CertificateID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		certs:  make(map[id.CertificateID]*Certificate),
		byCode: make(map[string]id.CertificateID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, c *Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCode[c.CertificateID]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.certs[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.certs[c.ID] = cloneCertificate(c)
	s.byCode[c.CertificateID] = c.ID
	return nil
}

func (s *InMemoryStore) FindOne(_ context.Context, filter Filter) (*Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.matchLocked(filter)
	if len(matched) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return cloneCertificate(matched[0]), nil
}

// FindMany returns one page ordered by CreatedAt descending and the total
// number of matches.
func (s *InMemoryStore) FindMany(_ context.Context, filter Filter, page id.Page) ([]*Certificate, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.matchLocked(filter)
	total := len(matched)
	start := page.Offset()
	if start >= total {
		return []*Certificate{}, total, nil
	}
	end := min(start+page.Limit, total)
	out := make([]*Certificate, 0, end-start)
	for _, c := range matched[start:end] {
		out = append(out, cloneCertificate(c))
	}
	return out, total, nil
}

func (s *InMemoryStore) Execute(_ context.Context, filter Filter, validate func(*Certificate) error, mutate func(*Certificate)) (*Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := s.matchLocked(filter)
	if len(matched) == 0 {
		return nil, sentinel.ErrNotFound
	}
	next := cloneCertificate(matched[0])
	if validate != nil {
		if err := validate(next); err != nil {
			return nil, err
		}
	}
	mutate(next)
	s.certs[next.ID] = next
	return cloneCertificate(next), nil
}

func (s *InMemoryStore) matchLocked(filter Filter) []*Certificate {
	var matched []*Certificate
	for _, c := range s.certs {
		if filter.Matches(c) {
			matched = append(matched, c)
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

func cloneCertificate(c *Certificate) *Certificate {
	cp := *c
	cp.Extra = maps.Clone(c.Extra)
	if c.FromDate != nil {
		t := *c.FromDate
		cp.FromDate = &t
	}
	if c.ToDate != nil {
		t := *c.ToDate
		cp.ToDate = &t
	}
	if c.UpdatedBy != nil {
		a := *c.UpdatedBy
		cp.UpdatedBy = &a
	}
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		cp.DeletedAt = &t
	}
	if c.DeletedBy != nil {
		a := *c.DeletedBy
		cp.DeletedBy = &a
	}
	return &cp
}
