package store

import (
	"context"

	"github.com/kevinaaaquil/shelf/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	q := bson.M{}
	if filter.TrendingOnly {
		q["isTrending"] = true
	}
	return db.findBooks(ctx, q, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (db *DB) BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error) {
	if len(ids) == 0 {
		return []models.Book{}, nil
	}
	return db.findBooks(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (db *DB) findBooks(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	if err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book); err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (db *DB) ToggleTrending(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"isTrending": bson.M{"$not": bson.A{bson.M{"$ifNull": bson.A{"$isTrending", false}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var book models.Book
	if err := db.Books().FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&book); err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

// DeleteBook removes the book and everything referencing it. The returned book
// carries PDFKey so the caller can drop the blob.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	if err := db.Books().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&book); err != nil {
		return nil, translate(err)
	}
	if _, err := db.Reviews().DeleteMany(ctx, bson.M{"bookId": id}); err != nil {
		return &book, err
	}
	if _, err := db.BookReads().DeleteMany(ctx, bson.M{"bookId": id}); err != nil {
		return &book, err
	}
	_, err := db.Users().UpdateMany(ctx, bson.M{}, bson.M{"$pull": bson.M{
		"favorites":       id,
		"readingProgress": bson.M{"bookId": id},
	}})
	return &book, err
}
