package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/shelf/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	// Arrays must exist for the pipeline updates below.
	if user.ReadingProgress == nil {
		user.ReadingProgress = []models.ProgressEntry{}
	}
	if user.Favorites == nil {
		user.Favorites = []primitive.ObjectID{}
	}
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	return db.findUsers(ctx, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (db *DB) RecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	return db.findUsers(ctx, options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(int64(limit)))
}

func (db *DB) findUsers(ctx context.Context, opts *options.FindOptions) ([]models.User, error) {
	cur, err := db.Users().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) error {
	updates := bson.M{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Email != nil {
		updates["email"] = *upd.Email
	}
	if upd.Gender != nil {
		updates["gender"] = *upd.Gender
	}
	if upd.Password != nil {
		updates["password"] = *upd.Password
	}
	if len(updates) == 0 {
		return nil
	}
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleBlocked flips isBlocked server-side so two concurrent toggles cannot both read the same value.
func (db *DB) ToggleBlocked(ctx context.Context, id primitive.ObjectID) (bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"isBlocked": bson.M{"$not": bson.A{bson.M{"$ifNull": bson.A{"$isBlocked", false}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"isBlocked": 1})
	var u models.User
	if err := db.Users().FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&u); err != nil {
		return false, translate(err)
	}
	return u.IsBlocked, nil
}

func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceProgress rewrites readingProgress in one pipeline update: every entry for
// the book is filtered out and the new entry appended, so concurrent calls cannot
// leave two entries behind.
func (db *DB) ReplaceProgress(ctx context.Context, userID primitive.ObjectID, entry models.ProgressEntry) error {
	current := bson.M{"$ifNull": bson.A{"$readingProgress", bson.A{}}}
	kept := bson.M{"$filter": bson.M{
		"input": current,
		"as":    "p",
		"cond":  bson.M{"$ne": bson.A{"$$p.bookId", entry.BookID}},
	}}
	fresh := bson.A{bson.M{
		"bookId":      entry.BookID,
		"currentPage": entry.CurrentPage,
		"totalPages":  entry.TotalPages,
		"lastRead":    entry.LastRead,
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"readingProgress": bson.M{"$concatArrays": bson.A{kept, fresh}}}}},
	}
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": userID}, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFirstRead inserts into the unique ledger; a duplicate key means the pair was already counted.
// The counter is recomputed from the ledger and only ever raised ($max).
func (db *DB) MarkFirstRead(ctx context.Context, userID, bookID primitive.ObjectID) (bool, error) {
	_, err := db.BookReads().InsertOne(ctx, bson.M{
		"userId":    userID,
		"bookId":    bookID,
		"createdAt": time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := db.BookReads().CountDocuments(ctx, bson.M{"bookId": bookID})
	if err != nil {
		return true, err
	}
	_, err = db.Books().UpdateOne(ctx, bson.M{"_id": bookID}, bson.M{"$max": bson.M{"reads": n}})
	return true, err
}

func (db *DB) ToggleFavorite(ctx context.Context, userID, bookID primitive.ObjectID) ([]primitive.ObjectID, error) {
	favs := bson.M{"$ifNull": bson.A{"$favorites", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"favorites": bson.M{"$cond": bson.M{
			"if":   bson.M{"$in": bson.A{bookID, favs}},
			"then": bson.M{"$setDifference": bson.A{favs, bson.A{bookID}}},
			"else": bson.M{"$concatArrays": bson.A{favs, bson.A{bookID}}},
		}}}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"favorites": 1})
	var u models.User
	if err := db.Users().FindOneAndUpdate(ctx, bson.M{"_id": userID}, pipeline, opts).Decode(&u); err != nil {
		return nil, translate(err)
	}
	if u.Favorites == nil {
		return []primitive.ObjectID{}, nil
	}
	return u.Favorites, nil
}
