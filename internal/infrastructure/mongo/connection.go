package mongo

import (
	"context"
	"fmt"
	"time"

	"padaria/internal/config"
	"padaria/internal/remote"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Storage struct {
	client   *mongo.Client
	database *mongo.Database
}

func New(cfg config.MongoConfig) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &Storage{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Storage) Database() *mongo.Database {
	return s.database
}

// CreateIndexes backs the bakery-scoped live queries.
func (s *Storage) CreateIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	menuIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bakeryId", Value: 1}}},
	}
	if _, err := s.database.Collection(remote.CollectionMenuItems).Indexes().CreateMany(ctx, menuIndexes); err != nil {
		return fmt.Errorf("creating %s indexes: %w", remote.CollectionMenuItems, err)
	}

	orderIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bakeryId", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	if _, err := s.database.Collection(remote.CollectionOrders).Indexes().CreateMany(ctx, orderIndexes); err != nil {
		return fmt.Errorf("creating %s indexes: %w", remote.CollectionOrders, err)
	}

	return nil
}
