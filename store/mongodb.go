package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ Store = (*DB)(nil)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string, logger *slog.Logger) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := &DB{
		Client:   client,
		Database: client.Database(dbName),
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("connected to mongodb", "db", dbName)
	return db, nil
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection("books")
}

func (db *DB) Reviews() *mongo.Collection {
	return db.Database.Collection("reviews")
}

// BookReads is the first-read ledger: one document per (userId, bookId) ever.
func (db *DB) BookReads() *mongo.Collection {
	return db.Database.Collection("book_reads")
}

// EnsureIndexes creates the unique indexes the invariants rely on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{db.Users(), mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{db.Reviews(), mongo.IndexModel{Keys: bson.D{{Key: "bookId", Value: 1}, {Key: "userId", Value: 1}}, Options: unique}},
		{db.Reviews(), mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}},
		{db.BookReads(), mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "bookId", Value: 1}}, Options: unique}},
		{db.BookReads(), mongo.IndexModel{Keys: bson.D{{Key: "bookId", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, nil)
}

func (db *DB) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
