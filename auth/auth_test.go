package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret-value"

type memUsers map[primitive.ObjectID]*models.User

func (m memUsers) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

type failingUsers struct{}

func (failingUsers) UserByID(context.Context, primitive.ObjectID) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func newReader() *models.User {
	return &models.User{ID: primitive.NewObjectID(), Email: "r@example.com", Role: models.RoleReader}
}

func TestValidate_ValidToken(t *testing.T) {
	u := newReader()
	iss := NewIssuer(testSecret, time.Hour)
	v := NewValidator(testSecret, memUsers{u.ID: u})

	token, err := iss.Issue(u)
	require.NoError(t, err)

	got, err := v.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestValidate_BlockedUserWithValidTokenIsSuspended(t *testing.T) {
	u := newReader()
	users := memUsers{u.ID: u}
	iss := NewIssuer(testSecret, time.Hour)
	v := NewValidator(testSecret, users)

	token, err := iss.Issue(u)
	require.NoError(t, err)

	// Block after issuance; the token itself is unchanged.
	u.IsBlocked = true
	_, err = v.Validate(context.Background(), token)
	assert.ErrorIs(t, err, errs.ErrSuspended)
	assert.Equal(t, 403, errs.From(err).HTTPStatus())

	// Unblocking restores access with the same token.
	u.IsBlocked = false
	_, err = v.Validate(context.Background(), token)
	assert.NoError(t, err)
}

func TestValidate_Unauthenticated(t *testing.T) {
	u := newReader()
	users := memUsers{u.ID: u}
	iss := NewIssuer(testSecret, time.Hour)
	good, err := iss.Issue(u)
	require.NoError(t, err)

	expiredIss := NewIssuer(testSecret, time.Hour)
	expiredIss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIss.Issue(u)
	require.NoError(t, err)

	otherSecret, err := NewIssuer("another-secret", time.Hour).Issue(u)
	require.NoError(t, err)

	ghost, err := iss.Issue(&models.User{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	// Splice another user's payload under this token's signature.
	goodParts := strings.Split(good, ".")
	ghostParts := strings.Split(ghost, ".")
	tampered := goodParts[0] + "." + ghostParts[1] + "." + goodParts[2]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID:           u.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID.Hex(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "malformed", token: "not-a-jwt"},
		{name: "tampered", token: tampered},
		{name: "expired", token: expired},
		{name: "wrong secret", token: otherSecret},
		{name: "unknown user", token: ghost},
		{name: "alg none", token: unsigned},
	}
	v := NewValidator(testSecret, users)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.token)
			assert.ErrorIs(t, err, errs.ErrUnauthenticated)
			assert.Equal(t, 401, errs.From(err).HTTPStatus())
		})
	}
}

func TestValidate_LookupFailureIsInternal(t *testing.T) {
	u := newReader()
	token, err := NewIssuer(testSecret, time.Hour).Issue(u)
	require.NoError(t, err)

	_, err = NewValidator(testSecret, failingUsers{}).Validate(context.Background(), token)
	assert.ErrorIs(t, err, errs.ErrInternal)
}

func TestIssue_RequiresID(t *testing.T) {
	_, err := NewIssuer(testSecret, time.Hour).Issue(&models.User{})
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
