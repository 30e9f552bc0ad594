package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/notewave/notewave/internal/models"
	"github.com/notewave/notewave/internal/note"
)

// ErrNoStorage is returned by Export when no object store is configured.
var ErrNoStorage = errors.New("object storage not configured")

// Repository is the persistence surface the service depends on. The service
// treats every note it reads as a snapshot valid for one authorization +
// mutation call; it never holds a note across calls.
type Repository interface {
	Create(ctx context.Context, n *note.Note) (string, error)
	Get(ctx context.Context, id string) (*note.Note, error)
	ListForUser(ctx context.Context, userID string) ([]*note.Note, error)
	Search(ctx context.Context, userID, q string) ([]*note.Note, error)
	UpdateContent(ctx context.Context, id string, title, body *string, seq int64) error
	SetCollaborators(ctx context.Context, id string, collabs []note.Collaborator) error
	SetSharing(ctx context.Context, id string, isPublic bool, token string) error
	FindByPublicToken(ctx context.Context, token string) (*note.Note, error)
	Delete(ctx context.Context, id string) error
}

// UserDirectory resolves invited collaborators by email.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ObjectStore receives note export snapshots (optional).
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Service implements the note business operations. Every operation resolves
// the caller's role through the access gate before touching the repository.
type Service struct {
	repo     Repository
	users    UserDirectory
	store    ObjectStore
	shareURL string
}

func New(repo Repository, users UserDirectory, store ObjectStore, shareURL string) *Service {
	return &Service{repo: repo, users: users, store: store, shareURL: strings.TrimRight(shareURL, "/")}
}

func validateTitle(title string) error {
	if len(title) == 0 {
		return &note.ValidationError{Field: "title", Reason: "required"}
	}
	if len(title) > note.TitleMaxLen {
		return &note.ValidationError{Field: "title", Reason: fmt.Sprintf("longer than %d characters", note.TitleMaxLen)}
	}
	return nil
}

func validateBody(body string) error {
	if len(body) > note.BodyMaxLen {
		return &note.ValidationError{Field: "body", Reason: fmt.Sprintf("longer than %d characters", note.BodyMaxLen)}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor note.Identity, title, body string) (*note.Note, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateBody(body); err != nil {
		return nil, err
	}
	n := &note.Note{
		Title:         title,
		Body:          body,
		Owner:         note.UserRef{ID: actor.ID, Name: actor.Name, Email: actor.Email},
		Collaborators: []note.Collaborator{},
	}
	id, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get returns the note together with the caller's resolved role.
func (s *Service) Get(ctx context.Context, actor note.Identity, id string) (*note.Note, note.Role, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, note.RoleNone, err
	}
	if err := note.RequireViewer(n, actor.ID); err != nil {
		return nil, note.RoleNone, err
	}
	return n, note.ResolveRole(n, actor.ID), nil
}

func (s *Service) List(ctx context.Context, actor note.Identity) ([]*note.Note, error) {
	return s.repo.ListForUser(ctx, actor.ID)
}

func (s *Service) Search(ctx context.Context, actor note.Identity, q string) ([]*note.Note, error) {
	if strings.TrimSpace(q) == "" {
		return nil, &note.ValidationError{Field: "q", Reason: "required"}
	}
	return s.repo.Search(ctx, actor.ID, q)
}

// Update persists a content change. seq is the client's save generation; zero
// means "next" and is allocated from the stored sequence. A stale sequence is
// rejected with note.ErrStaleEdit and has no effect.
func (s *Service) Update(ctx context.Context, actor note.Identity, id string, title, body *string, seq int64) (*note.Note, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := note.RequireEditor(n, actor.ID); err != nil {
		return nil, err
	}
	if title != nil {
		if err := validateTitle(*title); err != nil {
			return nil, err
		}
	}
	if body != nil {
		if err := validateBody(*body); err != nil {
			return nil, err
		}
	}
	if seq < 0 {
		return nil, &note.ValidationError{Field: "seq", Reason: "must not be negative"}
	}
	if seq == 0 {
		seq = n.EditSeq + 1
	}
	if err := s.repo.UpdateContent(ctx, id, title, body, seq); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor note.Identity, id string) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := note.RequireOwner(n, actor.ID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AddCollaborator invites a user by email with the given role (viewer or
// editor). The owner can never be added as a collaborator, and a user may
// appear at most once in the list.
func (s *Service) AddCollaborator(ctx context.Context, actor note.Identity, id, email, role string) (*note.Note, error) {
	r, err := note.ParseCollaboratorRole(role)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, &note.ValidationError{Field: "email", Reason: "required"}
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := note.RequireOwner(n, actor.ID); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup collaborator: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: no user with email %q", note.ErrNotFound, email)
	}
	if u.Sub == n.Owner.ID {
		return nil, &note.ValidationError{Field: "email", Reason: "user is already the owner of this note"}
	}
	if n.Collaborator(u.Sub) != nil {
		return nil, &note.ValidationError{Field: "email", Reason: "user is already a collaborator on this note"}
	}
	collabs := append(n.Collaborators, note.Collaborator{
		User: note.UserRef{ID: u.Sub, Name: u.Name, Email: u.Email},
		Role: r,
	})
	if err := s.repo.SetCollaborators(ctx, id, collabs); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateCollaboratorRole(ctx context.Context, actor note.Identity, id, userID, role string) (*note.Note, error) {
	r, err := note.ParseCollaboratorRole(role)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := note.RequireOwner(n, actor.ID); err != nil {
		return nil, err
	}
	c := n.Collaborator(userID)
	if c == nil {
		return nil, fmt.Errorf("%w: user %s is not a collaborator", note.ErrNotFound, userID)
	}
	c.Role = r
	if err := s.repo.SetCollaborators(ctx, id, n.Collaborators); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) RemoveCollaborator(ctx context.Context, actor note.Identity, id, userID string) (*note.Note, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := note.RequireOwner(n, actor.ID); err != nil {
		return nil, err
	}
	if n.Collaborator(userID) == nil {
		return nil, fmt.Errorf("%w: user %s is not a collaborator", note.ErrNotFound, userID)
	}
	kept := make([]note.Collaborator, 0, len(n.Collaborators))
	for _, c := range n.Collaborators {
		if c.User.ID != userID {
			kept = append(kept, c)
		}
	}
	if err := s.repo.SetCollaborators(ctx, id, kept); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// GenerateShareLink mints a fresh 256-bit hex token, enables public access
// and unconditionally replaces any prior token. Holders of an old link are
// not notified; the old token simply stops resolving.
func (s *Service) GenerateShareLink(ctx context.Context, actor note.Identity, id string) (token, shareURL string, err error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	if err := note.RequireOwner(n, actor.ID); err != nil {
		return "", "", err
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = hex.EncodeToString(b)
	if err := s.repo.SetSharing(ctx, id, true, token); err != nil {
		return "", "", err
	}
	return token, s.shareURL + "/shared/" + token, nil
}

// DisableShareLink turns public access off and clears the token.
func (s *Service) DisableShareLink(ctx context.Context, actor note.Identity, id string) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := note.RequireOwner(n, actor.ID); err != nil {
		return err
	}
	return s.repo.SetSharing(ctx, id, false, "")
}

// ResolvePublic maps a share token to the read-only public view. The token
// resolves only while sharing is enabled.
func (s *Service) ResolvePublic(ctx context.Context, token string) (*note.PublicNote, error) {
	n, err := s.repo.FindByPublicToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return n.PublicView(), nil
}

// Export uploads a snapshot of the note body to the object store and returns
// a presigned download URL.
func (s *Service) Export(ctx context.Context, actor note.Identity, id string) (string, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if err := note.RequireOwner(n, actor.ID); err != nil {
		return "", err
	}
	if s.store == nil {
		return "", ErrNoStorage
	}
	content := n.Title + "\n\n" + n.Body
	key := fmt.Sprintf("exports/%s/%d.md", n.ID, time.Now().UTC().UnixNano())
	if err := s.store.UploadFile(ctx, key, strings.NewReader(content), int64(len(content)), "text/markdown"); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	url, err := s.store.GetPresignedURL(ctx, key, 15*time.Minute)
	if err != nil {
		return "", fmt.Errorf("presign export: %w", err)
	}
	return url, nil
}
