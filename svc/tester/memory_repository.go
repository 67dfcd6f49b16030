package tester

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Grant is a tester grant recorded by MemoryRepository.
type Grant struct {
	Email     string
	ExpiresAt time.Time
}

// MemoryRepository is an in-process Repository for development and tests.
type MemoryRepository struct {
	mu          sync.Mutex
	codes       map[string]*Code
	redemptions map[uuid.UUID][]uuid.UUID
	grants      map[uuid.UUID]Grant
}

func NewMemoryRepository(codes ...Code) *MemoryRepository {
	r := &MemoryRepository{
		codes:       make(map[string]*Code, len(codes)),
		redemptions: make(map[uuid.UUID][]uuid.UUID),
		grants:      make(map[uuid.UUID]Grant),
	}
	for _, c := range codes {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.Code = Normalize(c.Code)
		r.codes[c.Code] = &c
	}
	return r
}

func (r *MemoryRepository) Claim(_ context.Context, code string) (*Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok || !c.IsActive || c.Exhausted() {
		return nil, ErrCodeUnavailable
	}
	c.CurrentUses++
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) Lookup(_ context.Context, code string) (*Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) RecordRedemption(_ context.Context, userID, codeID uuid.UUID, _ time.Time) error {
	r.mu.Lock()
	r.redemptions[userID] = append(r.redemptions[userID], codeID)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) GrantTesterAccess(_ context.Context, userID uuid.UUID, email string, expiresAt time.Time) error {
	r.mu.Lock()
	r.grants[userID] = Grant{Email: email, ExpiresAt: expiresAt}
	r.mu.Unlock()
	return nil
}

// GrantFor returns the grant of a user, if any.
func (r *MemoryRepository) GrantFor(userID uuid.UUID) (Grant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grants[userID]
	return g, ok
}

var _ Repository = (*MemoryRepository)(nil)
