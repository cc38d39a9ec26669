package loginlink

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection is the collection MongoStore uses unless told otherwise.
const DefaultMongoCollection = "login_links"

// MongoStore keeps one document per (owner_id, kind), enforced by a unique
// index. Take is a FindOneAndDelete on the digest, which MongoDB executes as
// a single atomic document operation.
type MongoStore struct {
	coll *mongo.Collection
}

// mongoLink is the stored document shape. IDs are stored as strings so the
// documents stay readable from the shell.
type mongoLink struct {
	OwnerID   string    `bson:"owner_id"`
	Kind      string    `bson:"kind"`
	Digest    string    `bson:"digest"`
	IssuedAt  time.Time `bson:"issued_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// NewMongoStore creates a store over the given collection.
// Call EnsureIndexes once at startup.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the unique (owner_id, kind) and digest indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "digest", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
	})
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, link Link) error {
	doc := toMongoLink(link)
	filter := bson.D{{Key: "owner_id", Value: doc.OwnerID}, {Key: "kind", Value: doc.Kind}}

	_, err := s.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on an absent key and one lost the insert;
		// the document exists now, so replace it.
		_, err = s.coll.ReplaceOne(ctx, filter, doc)
	}
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, digest string) (Link, error) {
	return decodeMongoLink(s.coll.FindOne(ctx, bson.D{{Key: "digest", Value: digest}}))
}

func (s *MongoStore) Take(ctx context.Context, digest string) (Link, error) {
	return decodeMongoLink(s.coll.FindOneAndDelete(ctx, bson.D{{Key: "digest", Value: digest}}))
}

func (s *MongoStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{{Key: "owner_id", Value: ownerID.String()}}); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *MongoStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: before}}}})
	if err != nil {
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) List(ctx context.Context, ownerIDs ...uuid.UUID) ([]Link, error) {
	filter := bson.D{}
	if len(ownerIDs) > 0 {
		ids := make([]string, len(ownerIDs))
		for i, id := range ownerIDs {
			ids[i] = id.String()
		}
		filter = bson.D{{Key: "owner_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	}

	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	defer cur.Close(ctx)

	var docs []mongoLink
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	links := make([]Link, 0, len(docs))
	for _, doc := range docs {
		link, err := doc.link()
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	sortLinks(links)
	return links, nil
}

type mongoDecoder interface {
	Decode(v any) error
}

func decodeMongoLink(res mongoDecoder) (Link, error) {
	var doc mongoLink
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Link{}, ErrNotFound
		}
		return Link{}, errors.Join(ErrStoreFailure, err)
	}
	return doc.link()
}

func toMongoLink(link Link) mongoLink {
	return mongoLink{
		OwnerID:   link.OwnerID.String(),
		Kind:      string(link.Kind),
		Digest:    link.Digest,
		IssuedAt:  link.IssuedAt.UTC(),
		ExpiresAt: link.ExpiresAt.UTC(),
	}
}

func (d mongoLink) link() (Link, error) {
	ownerID, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return Link{}, errors.Join(ErrStoreFailure, err)
	}
	return Link{
		OwnerID:   ownerID,
		Kind:      Kind(d.Kind),
		Digest:    d.Digest,
		IssuedAt:  d.IssuedAt,
		ExpiresAt: d.ExpiresAt,
	}, nil
}
