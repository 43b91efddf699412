package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kevinaaaquil/shelf/backend/auth"
	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"github.com/kevinaaaquil/shelf/backend/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Gender      string `json:"gender" validate:"max=40"`
	Role        string `json:"role" validate:"omitempty,oneof=reader admin"`
	AdminSecret string `json:"adminSecret"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput fields are optional; nil or blank leaves the value unchanged.
type ProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Gender   *string `json:"gender" validate:"omitempty,max=40"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// Session is a user plus a freshly issued bearer token.
type Session struct {
	User  *models.User
	Token string
}

// ProgressView is a progress entry with its book attached.
type ProgressView struct {
	models.ProgressEntry
	Book *models.Book `json:"book,omitempty"`
}

type Profile struct {
	ID              primitive.ObjectID `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Role            string             `json:"role"`
	Gender          string             `json:"gender"`
	IsBlocked       bool               `json:"isBlocked"`
	CreatedAt       time.Time          `json:"createdAt"`
	Favorites       []models.Book      `json:"favorites"`
	ReadingProgress []ProgressView     `json:"readingProgress"`
	FavoritesCount  int                `json:"favoritesCount"`
	BooksStarted    int                `json:"booksStarted"`
	ReviewsCount    int64              `json:"reviewsCount"`
}

type Accounts struct {
	store       store.Store
	issuer      *auth.Issuer
	validate    *validation.Validator
	adminSecret string
	logger      *slog.Logger
	now         func() time.Time
}

func NewAccounts(s store.Store, issuer *auth.Issuer, v *validation.Validator, adminSecret string, logger *slog.Logger) *Accounts {
	return &Accounts{store: s, issuer: issuer, validate: v, adminSecret: adminSecret, logger: logger, now: time.Now}
}

var errBadCredentials = errs.Unauthenticated("invalid email or password")

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a reader, or an admin when the admin secret matches.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := a.validate.Validate(in); err != nil {
		return nil, err
	}
	role := models.RoleReader
	if in.Role == models.RoleAdmin {
		if !a.adminSecretMatches(in.AdminSecret) {
			return nil, errs.Unauthenticated("invalid admin secret")
		}
		role = models.RoleAdmin
	}

	if _, err := a.store.UserByEmail(ctx, in.Email); err == nil {
		return nil, errs.Conflict("user already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "user")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "internal server error")
	}
	gender := strings.TrimSpace(in.Gender)
	if gender == "" {
		gender = models.DefaultGender
	}
	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		Gender:    gender,
		Role:      role,
		CreatedAt: a.now().UTC(),
	}
	id, err := a.store.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, errs.Conflict("user already exists")
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}
	user.ID = id
	a.logger.InfoContext(ctx, "user registered", "user_id", id.Hex(), "role", role)
	return a.session(user)
}

// adminSecretMatches is false when no secret is configured.
func (a *Accounts) adminSecretMatches(given string) bool {
	if a.adminSecret == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.adminSecret), []byte(given)) == 1
}

// Login never changes account state; a failed attempt has no side effects.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := a.validate.Validate(in); err != nil {
		return nil, err
	}
	user, err := a.store.UserByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, errBadCredentials
	}
	if user.IsBlocked {
		return nil, errs.Suspended("your account has been suspended")
	}
	return a.session(user)
}

func (a *Accounts) session(user *models.User) (*Session, error) {
	token, err := a.issuer.Issue(user)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "could not create token")
	}
	return &Session{User: user, Token: token}, nil
}

// Profile returns the user with favorites and progress populated.
func (a *Accounts) Profile(ctx context.Context, userID primitive.ObjectID) (*Profile, error) {
	user, err := a.store.UserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	favorites, err := booksInOrder(ctx, a.store, user.Favorites)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(user.ReadingProgress))
	for i, p := range user.ReadingProgress {
		ids[i] = p.BookID
	}
	books, err := a.store.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	byID := make(map[primitive.ObjectID]*models.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}
	progress := make([]ProgressView, 0, len(user.ReadingProgress))
	for _, p := range user.ReadingProgress {
		progress = append(progress, ProgressView{ProgressEntry: p, Book: byID[p.BookID]})
	}

	reviews, err := a.store.CountReviewsByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return &Profile{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		Gender:          user.Gender,
		IsBlocked:       user.IsBlocked,
		CreatedAt:       user.CreatedAt,
		Favorites:       favorites,
		ReadingProgress: progress,
		FavoritesCount:  len(user.Favorites),
		BooksStarted:    len(user.ReadingProgress),
		ReviewsCount:    reviews,
	}, nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// UpdateProfile applies the non-blank fields. A new email already used by
// another account is a conflict.
func (a *Accounts) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*Profile, error) {
	in.Name = blankToNil(in.Name)
	in.Gender = blankToNil(in.Gender)
	in.Email = blankToNil(in.Email)
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if in.Password != nil && *in.Password == "" {
		in.Password = nil
	}
	if err := a.validate.Validate(in); err != nil {
		return nil, err
	}

	upd := models.ProfileUpdate{Name: in.Name, Gender: in.Gender}
	if in.Email != nil {
		other, err := a.store.UserByEmail(ctx, *in.Email)
		switch {
		case err == nil && other.ID != userID:
			return nil, errs.Conflict("email already in use")
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, storeErr(err, "user")
		}
		upd.Email = in.Email
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeInternal, "internal server error")
		}
		upd.Password = &hash
	}

	if err := a.store.UpdateProfile(ctx, userID, upd); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errs.Conflict("email already in use")
		}
		return nil, storeErr(err, "user")
	}
	return a.Profile(ctx, userID)
}
