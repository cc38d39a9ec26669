package audit

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection is the collection MongoStorage uses unless told otherwise.
const DefaultMongoCollection = "audit_events"

// MongoStorage writes events as documents, one per event, keyed by event ID.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage creates a storage over the given collection.
// Call EnsureIndexes once at startup.
func NewMongoStorage(coll *mongo.Collection) *MongoStorage {
	return &MongoStorage{coll: coll}
}

// EnsureIndexes creates the lookup indexes used by Query.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *MongoStorage) Store(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]any, len(events))
	for i, e := range events {
		docs[i] = e
	}
	if _, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *MongoStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if criteria.Limit > 0 {
		opts.SetLimit(int64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		opts.SetSkip(int64(criteria.Offset))
	}

	cur, err := s.coll.Find(ctx, mongoFilter(criteria), opts)
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return events, nil
}

func (s *MongoStorage) Count(ctx context.Context, criteria Criteria) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, mongoFilter(criteria))
	if err != nil {
		return 0, errors.Join(ErrStorageFailure, err)
	}
	return n, nil
}

func mongoFilter(c Criteria) bson.D {
	filter := bson.D{}
	for _, f := range []struct{ key, value string }{
		{"user_id", c.UserID},
		{"actor_id", c.ActorID},
		{"action", c.Action},
		{"resource", c.Resource},
		{"resource_id", c.ResourceID},
		{"result", string(c.Result)},
	} {
		if f.value != "" {
			filter = append(filter, bson.E{Key: f.key, Value: f.value})
		}
	}

	created := bson.D{}
	if !c.Since.IsZero() {
		created = append(created, bson.E{Key: "$gte", Value: c.Since})
	}
	if !c.Until.IsZero() {
		created = append(created, bson.E{Key: "$lt", Value: c.Until})
	}
	if len(created) > 0 {
		filter = append(filter, bson.E{Key: "created_at", Value: created})
	}
	return filter
}
