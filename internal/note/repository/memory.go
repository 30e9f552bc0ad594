package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/notewave/notewave/internal/note"
)

// MemoryRepo is an in-memory note repository used for unit tests and for
// running the service without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*note.Note
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*note.Note)}
}

// clone returns a snapshot: callers must never observe later mutations of the
// stored value, and their own mutations must not leak back into the store.
func clone(n *note.Note) *note.Note {
	cp := *n
	cp.Collaborators = append([]note.Collaborator(nil), n.Collaborators...)
	return &cp
}

func (m *MemoryRepo) Create(ctx context.Context, n *note.Note) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = "note_" + time.Now().Format("20060102T150405.000000000")
	}
	n.CreatedAt = time.Now().UTC()
	n.UpdatedAt = n.CreatedAt
	m.store[n.ID] = clone(n)
	return n.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.store[id]; ok {
		return clone(n), nil
	}
	return nil, note.ErrNotFound
}

// ListForUser returns notes the user owns or collaborates on, most recently
// updated first.
func (m *MemoryRepo) ListForUser(ctx context.Context, userID string) ([]*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*note.Note{}
	for _, n := range m.store {
		if note.ResolveRole(n, userID) != note.RoleNone {
			out = append(out, clone(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Search performs a case-insensitive keyword match over title and body,
// restricted to notes the user owns or collaborates on.
func (m *MemoryRepo) Search(ctx context.Context, userID, q string) ([]*note.Note, error) {
	q = strings.ToLower(q)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*note.Note{}
	for _, n := range m.store {
		if note.ResolveRole(n, userID) == note.RoleNone {
			continue
		}
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Body), q) {
			out = append(out, clone(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// UpdateContent applies a sequence-guarded content write. A write whose seq is
// not greater than the stored edit sequence is discarded with ErrStaleEdit.
func (m *MemoryRepo) UpdateContent(ctx context.Context, id string, title, body *string, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.store[id]
	if !ok {
		return note.ErrNotFound
	}
	if seq <= n.EditSeq {
		return note.ErrStaleEdit
	}
	if title != nil {
		n.Title = *title
	}
	if body != nil {
		n.Body = *body
	}
	n.EditSeq = seq
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// SetCollaborators replaces the collaborator list.
func (m *MemoryRepo) SetCollaborators(ctx context.Context, id string, collabs []note.Collaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.store[id]
	if !ok {
		return note.ErrNotFound
	}
	n.Collaborators = append([]note.Collaborator(nil), collabs...)
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// SetSharing updates the public flag and token together. Disabling always
// clears the token.
func (m *MemoryRepo) SetSharing(ctx context.Context, id string, isPublic bool, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.store[id]
	if !ok {
		return note.ErrNotFound
	}
	n.IsPublic = isPublic
	n.PublicToken = token
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// FindByPublicToken resolves a share token. Both conditions are required:
// the token must match and sharing must still be enabled.
func (m *MemoryRepo) FindByPublicToken(ctx context.Context, token string) (*note.Note, error) {
	if token == "" {
		return nil, note.ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.store {
		if n.IsPublic && n.PublicToken == token {
			return clone(n), nil
		}
	}
	return nil, note.ErrNotFound
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return note.ErrNotFound
	}
	delete(m.store, id)
	return nil
}
