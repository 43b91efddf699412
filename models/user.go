package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleReader = "reader"
	RoleAdmin  = "admin"
)

var ValidRoles = []string{RoleReader, RoleAdmin}

const DefaultGender = "Not Specified"

type User struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	Password        string               `bson:"password" json:"-"` // bcrypt hash
	Gender          string               `bson:"gender" json:"gender"`
	Role            string               `bson:"role" json:"role"`
	IsBlocked       bool                 `bson:"isBlocked" json:"isBlocked"`
	ReadingProgress []ProgressEntry      `bson:"readingProgress" json:"readingProgress"`
	Favorites       []primitive.ObjectID `bson:"favorites" json:"favorites"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// HasFavorite reports whether bookID is in the user's favorite set.
func (u *User) HasFavorite(bookID primitive.ObjectID) bool {
	for _, id := range u.Favorites {
		if id == bookID {
			return true
		}
	}
	return false
}

// Progress returns the entry for bookID, if any.
func (u *User) Progress(bookID primitive.ObjectID) (ProgressEntry, bool) {
	for _, p := range u.ReadingProgress {
		if p.BookID == bookID {
			return p, true
		}
	}
	return ProgressEntry{}, false
}

// ProgressEntry is a reader's last position in one book. At most one exists per (user, book).
type ProgressEntry struct {
	BookID      primitive.ObjectID `bson:"bookId" json:"bookId"`
	CurrentPage int                `bson:"currentPage" json:"currentPage"`
	TotalPages  int                `bson:"totalPages" json:"totalPages"`
	LastRead    time.Time          `bson:"lastRead" json:"lastRead"`
}

// ProfileUpdate carries the optional fields of a profile edit. Nil means unchanged.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Gender   *string
	Password *string // bcrypt hash
}

// UserStats are the per-user counters shown in the admin user list and profile.
type UserStats struct {
	BooksRead int   `json:"booksRead"`
	Favorites int   `json:"favorites"`
	Reviews   int64 `json:"reviews"`
}
