package store

import (
	"context"

	"github.com/kevinaaaquil/shelf/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *DB) Counts(ctx context.Context) (models.LibraryCounts, error) {
	var c models.LibraryCounts
	var err error
	if c.TotalBooks, err = db.Books().CountDocuments(ctx, bson.M{}); err != nil {
		return c, err
	}
	if c.TotalReviews, err = db.Reviews().CountDocuments(ctx, bson.M{}); err != nil {
		return c, err
	}
	if c.ActiveReaders, err = db.Users().CountDocuments(ctx, bson.M{"readingProgress.0": bson.M{"$exists": true}}); err != nil {
		return c, err
	}
	cur, err := db.Books().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$reads"}}}},
	})
	if err != nil {
		return c, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return c, err
	}
	if len(rows) > 0 {
		c.TotalReads = rows[0].Total
	}
	return c, nil
}
