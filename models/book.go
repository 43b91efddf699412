package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Book struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"` // creator
	Title       string             `bson:"title" json:"title"`
	Author      string             `bson:"author" json:"author"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CoverImage  string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	ISBN        string             `bson:"isbn,omitempty" json:"isbn,omitempty"`
	PDFURL      string             `bson:"pdfUrl,omitempty" json:"pdfUrl,omitempty"` // external link, used when no blob is stored
	PDFKey      string             `bson:"pdfKey,omitempty" json:"-"`                // object key in the blob store
	Pages       int                `bson:"pages" json:"pages"`
	Reads       int64              `bson:"reads" json:"reads"`           // derived from the read ledger
	Rating      float64            `bson:"rating" json:"rating"`         // derived from reviews
	NumReviews  int                `bson:"numReviews" json:"numReviews"` // derived from reviews
	IsTrending  bool               `bson:"isTrending" json:"isTrending"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// BookFilter narrows ListBooks.
type BookFilter struct {
	TrendingOnly bool
}
