package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LibraryCounts are the admin dashboard totals.
type LibraryCounts struct {
	TotalBooks    int64 `json:"totalBooks"`
	ActiveReaders int64 `json:"activeReaders"`
	TotalReads    int64 `json:"totalReads"`
	TotalReviews  int64 `json:"totalReviews"`
}

// Activity is one line of the admin dashboard's recent activity feed.
type Activity struct {
	ID      primitive.ObjectID `json:"id"`
	User    string             `json:"user"`
	Content string             `json:"content"`
	Action  string             `json:"action"`
	Date    time.Time          `json:"date"`
	Type    string             `json:"type"` // "user" or "review"
}
