package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/notewave/notewave/internal/models"
)

// MemoryUserRepository is an in-memory UserRepository used when MongoDB is
// not configured (local development and tests).
type MemoryUserRepository struct {
	mu    sync.RWMutex
	bySub map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{bySub: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := r.bySub[u.Sub]
	if ok {
		existing.Email = strings.ToLower(u.Email)
		existing.Name = u.Name
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}
	stored := &models.User{
		Sub:       u.Sub,
		Email:     strings.ToLower(u.Email),
		Name:      u.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.bySub[u.Sub] = stored
	cp := *stored
	return &cp, nil
}

func (r *MemoryUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.bySub[sub]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(email)
	for _, u := range r.bySub {
		if u.Email == needle {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
