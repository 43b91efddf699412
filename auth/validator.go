package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserLookup is the slice of the user store the validator reads.
type UserLookup interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Validator struct {
	secret []byte
	users  UserLookup
	now    func() time.Time
}

func NewValidator(secret string, users UserLookup) *Validator {
	return &Validator{secret: []byte(secret), users: users, now: time.Now}
}

// Validate verifies the token and returns the current user record.
// It fails with errs.CodeUnauthenticated when the proof is missing, malformed,
// expired or names an unknown user, and with errs.CodeSuspended when the
// stored block flag is set, regardless of token validity.
func (v *Validator) Validate(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, errs.Unauthenticated("missing credentials")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.Wrap(err, errs.CodeUnauthenticated, "token expired")
		}
		return nil, errs.Wrap(err, errs.CodeUnauthenticated, "invalid token")
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	id, err := primitive.ObjectIDFromHex(subject)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeUnauthenticated, "invalid token subject")
	}

	user, err := v.users.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.Unauthenticated("user no longer exists")
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "credential lookup failed")
	}
	if user.IsBlocked {
		return nil, errs.Suspended("your account has been suspended")
	}
	return user, nil
}
