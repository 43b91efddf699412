package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is unique per (BookID, UserID).
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookID    primitive.ObjectID `bson:"bookId" json:"bookId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Name      string             `bson:"name" json:"name"` // reviewer display name at time of writing
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// RatingSummary is a book's aggregate recomputed from its live reviews.
type RatingSummary struct {
	Rating     float64 `json:"rating"`
	NumReviews int     `json:"numReviews"`
}
