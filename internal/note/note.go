package note

import "time"

// Persisted field limits, enforced before any state change.
const (
	TitleMaxLen = 200
	BodyMaxLen  = 50000
)

// UserRef is the denormalized identity snapshot stored on a note
// (owner and collaborator entries). The domain treats the ID as an
// opaque comparable key; name/email exist for display only.
type UserRef struct {
	ID    string `bson:"userId" json:"userId"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// Collaborator is one entry of a note's collaborator list.
// Role is always viewer or editor; the owner is never listed here.
type Collaborator struct {
	User UserRef `bson:"user" json:"user"`
	Role Role    `bson:"role" json:"role"`
}

// Note is the shared document: the unit of ownership, collaboration and sharing.
type Note struct {
	ID            string         `bson:"id" json:"id"`
	Title         string         `bson:"title" json:"title"`
	Body          string         `bson:"body" json:"body"`
	Owner         UserRef        `bson:"owner" json:"owner"`
	Collaborators []Collaborator `bson:"collaborators" json:"collaborators"`
	IsPublic      bool           `bson:"isPublic" json:"isPublic"`
	PublicToken   string         `bson:"publicToken,omitempty" json:"-"`
	// EditSeq is the monotonically increasing save generation; writes that
	// carry a sequence number not greater than the stored one are discarded.
	EditSeq   int64     `bson:"editSeq" json:"editSeq"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Identity is the authenticated caller as seen by the domain.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PublicNote is the read-only view returned for public share links.
// It never includes the collaborator list.
type PublicNote struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Owner     UserRef   `json:"owner"`
	UpdatedAt time.Time `json:"updatedAt"`
	ReadOnly  bool      `json:"readOnly"`
}

// PublicView strips everything a public viewer must not see.
func (n *Note) PublicView() *PublicNote {
	return &PublicNote{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Owner:     n.Owner,
		UpdatedAt: n.UpdatedAt,
		ReadOnly:  true,
	}
}

// Collaborator returns the entry for the given user ID, or nil.
func (n *Note) Collaborator(userID string) *Collaborator {
	for i := range n.Collaborators {
		if n.Collaborators[i].User.ID == userID {
			return &n.Collaborators[i]
		}
	}
	return nil
}
