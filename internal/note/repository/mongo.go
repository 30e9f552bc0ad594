package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/notewave/notewave/internal/note"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed note repository.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// indexes: unique note id, unique-sparse public token (at most one note per
	// token), and the collaborator key used by access-restricted listings
	ctx := context.Background()
	col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true),
	})
	col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "publicToken", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true),
	})
	col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collaborators.user.userId", Value: 1}},
	})
	return &MongoRepo{col: col}
}

// accessFilter restricts a query to notes the user owns or collaborates on.
func accessFilter(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"owner.userId": userID},
		bson.M{"collaborators.user.userId": userID},
	}}
}

func (m *MongoRepo) Create(ctx context.Context, n *note.Note) (string, error) {
	if n.ID == "" {
		n.ID = "note_" + time.Now().Format("20060102T150405.000000000")
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Collaborators == nil {
		n.Collaborators = []note.Collaborator{}
	}
	if _, err := m.col.InsertOne(ctx, n); err != nil {
		return "", err
	}
	return n.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*note.Note, error) {
	var n note.Note
	if err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, note.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (m *MongoRepo) ListForUser(ctx context.Context, userID string) ([]*note.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return m.find(ctx, accessFilter(userID), opts)
}

func (m *MongoRepo) Search(ctx context.Context, userID, q string) ([]*note.Note, error) {
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	filter := bson.M{"$and": bson.A{
		accessFilter(userID),
		bson.M{"$or": bson.A{
			bson.M{"title": rx},
			bson.M{"body": rx},
		}},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return m.find(ctx, filter, opts)
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*note.Note, error) {
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*note.Note{}
	for cur.Next(ctx) {
		var n note.Note
		if err := cur.Decode(&n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, cur.Err()
}

// UpdateContent applies a sequence-guarded content write: the filter only
// matches while the stored editSeq is below seq, so a stale save can never
// overwrite a newer one regardless of arrival order.
func (m *MongoRepo) UpdateContent(ctx context.Context, id string, title, body *string, seq int64) error {
	set := bson.M{"editSeq": seq, "updatedAt": time.Now().UTC()}
	if title != nil {
		set["title"] = *title
	}
	if body != nil {
		set["body"] = *body
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"id": id, "editSeq": bson.M{"$lt": seq}}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// distinguish a missing note from a lost race
		if _, err := m.Get(ctx, id); err != nil {
			return err
		}
		return note.ErrStaleEdit
	}
	return nil
}

func (m *MongoRepo) SetCollaborators(ctx context.Context, id string, collabs []note.Collaborator) error {
	if collabs == nil {
		collabs = []note.Collaborator{}
	}
	set := bson.M{"collaborators": collabs, "updatedAt": time.Now().UTC()}
	res, err := m.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return note.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) SetSharing(ctx context.Context, id string, isPublic bool, token string) error {
	update := bson.M{"$set": bson.M{"isPublic": isPublic, "updatedAt": time.Now().UTC()}}
	if token == "" {
		update["$unset"] = bson.M{"publicToken": ""}
	} else {
		update["$set"].(bson.M)["publicToken"] = token
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return note.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) FindByPublicToken(ctx context.Context, token string) (*note.Note, error) {
	if token == "" {
		return nil, note.ErrNotFound
	}
	var n note.Note
	err := m.col.FindOne(ctx, bson.M{"publicToken": token, "isPublic": true}).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, note.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return note.ErrNotFound
	}
	return nil
}
