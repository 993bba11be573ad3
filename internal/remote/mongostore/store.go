// Package mongostore implements remote.Store on MongoDB. Live queries use a
// change stream on the whole collection as a trigger and re-run the filtered
// query on every change, so subscribers always receive a full snapshot.
// Change streams require a replica set.
package mongostore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"padaria/internal/remote"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const opTimeout = 5 * time.Second

type Store struct {
	db     *mongo.Database
	logger *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Get(ctx context.Context, q remote.Query) ([]remote.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.find(ctx, q)
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := s.db.Collection(collection).InsertOne(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("inserting into %s: %w", collection, err)
	}

	switch id := result.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	default:
		return fmt.Sprint(id), nil
	}
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	result, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	return nil
}

// Subscribe opens the change stream before taking the first snapshot so no
// write between the two is missed. The subscription outlives ctx.
func (s *Store) Subscribe(ctx context.Context, q remote.Query, fn remote.SnapshotFunc) (remote.Subscription, error) {
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	stream, err := s.db.Collection(q.Collection).Watch(subCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watching %s: %w", q.Collection, err)
	}

	sub := &subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer stream.Close(context.Background())

		s.push(subCtx, q, fn)
		for stream.Next(subCtx) {
			// coalesce bursts into one snapshot
			for stream.RemainingBatchLength() > 0 {
				if !stream.TryNext(subCtx) {
					break
				}
			}
			s.push(subCtx, q, fn)
		}

		if err := stream.Err(); err != nil && subCtx.Err() == nil {
			s.logger.Warn("change stream stopped", zap.String("collection", q.Collection), zap.Error(err))
			fn(nil, fmt.Errorf("watching %s: %w", q.Collection, err))
		}
	}()

	return sub, nil
}

func (s *Store) push(ctx context.Context, q remote.Query, fn remote.SnapshotFunc) {
	findCtx, cancel := context.WithTimeout(ctx, opTimeout)
	docs, err := s.find(findCtx, q)
	cancel()

	if ctx.Err() != nil {
		return
	}
	fn(docs, err)
}

func (s *Store) find(ctx context.Context, q remote.Query) ([]remote.Document, error) {
	filter := bson.M{}
	for k, v := range q.Where {
		filter[k] = v
	}

	opts := options.Find()
	if q.OrderBy != "" {
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: 1}})
	}

	cursor, err := s.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", q.Collection, err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", q.Collection, err)
	}

	docs := make([]remote.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, toDocument(m))
	}
	return docs, nil
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (sub *subscription) Cancel() {
	sub.once.Do(func() {
		sub.cancel()
		<-sub.done
	})
}

func toDocument(m bson.M) remote.Document {
	var id string
	switch v := m["_id"].(type) {
	case primitive.ObjectID:
		id = v.Hex()
	case string:
		id = v
	case nil:
	default:
		id = fmt.Sprint(v)
	}

	fields := make(map[string]any, len(m))
	for k, v := range m {
		if k == "_id" {
			continue
		}
		fields[k] = plain(v)
	}
	return remote.Document{ID: id, Fields: fields}
}

// plain converts driver container types into the map/slice shapes the remote
// package accessors understand.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = plain(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = plain(el)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = plain(el)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = plain(el)
		}
		return out
	}
	return v
}
