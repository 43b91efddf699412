package store

import (
	"context"

	"github.com/kevinaaaquil/shelf/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertReview relies on the unique (bookId, userId) index; a lost race returns ErrDuplicate.
func (db *DB) InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	res, err := db.Reviews().InsertOne(ctx, review)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	if err := db.Reviews().FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (db *DB) ReviewFor(ctx context.Context, userID, bookID primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	if err := db.Reviews().FindOne(ctx, bson.M{"bookId": bookID, "userId": userID}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (db *DB) ReviewsForBook(ctx context.Context, bookID primitive.ObjectID) ([]models.Review, error) {
	return db.findReviews(ctx, bson.M{"bookId": bookID}, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (db *DB) RecentReviews(ctx context.Context, limit int) ([]models.Review, error) {
	return db.findReviews(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(int64(limit)))
}

func (db *DB) findReviews(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Review, error) {
	cur, err := db.Reviews().Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	reviews := []models.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (db *DB) CountReviewsByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return db.Reviews().CountDocuments(ctx, bson.M{"userId": userID})
}

func (db *DB) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Reviews().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteReviewsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	raw, err := db.Reviews().Distinct(ctx, "bookId", bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	if _, err := db.Reviews().DeleteMany(ctx, bson.M{"userId": userID}); err != nil {
		return nil, err
	}
	books := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			books = append(books, id)
		}
	}
	return books, nil
}

// RecomputeRating aggregates over every live review of the book; it never applies a delta.
func (db *DB) RecomputeRating(ctx context.Context, bookID primitive.ObjectID) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bookId": bookID}}},
		{{Key: "$group", Value: bson.M{
			"_id":        "$bookId",
			"numReviews": bson.M{"$sum": 1},
			"avgRating":  bson.M{"$avg": "$rating"},
		}}},
	}
	cur, err := db.Reviews().Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		NumReviews int     `bson:"numReviews"`
		AvgRating  float64 `bson:"avgRating"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.RatingSummary{}, err
	}
	var sum models.RatingSummary
	if len(rows) > 0 {
		sum = models.RatingSummary{Rating: rows[0].AvgRating, NumReviews: rows[0].NumReviews}
	}
	_, err = db.Books().UpdateOne(ctx, bson.M{"_id": bookID}, bson.M{"$set": bson.M{
		"rating":     sum.Rating,
		"numReviews": sum.NumReviews,
	}})
	return sum, err
}
