package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/shelf/backend/auth"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store/sqlite"
	"github.com/kevinaaaquil/shelf/backend/validation"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var discard = slog.New(slog.DiscardHandler)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), discard)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func newReader(t *testing.T, s *sqlite.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Reader " + email, Email: email, Password: "x", Role: models.RoleReader, Gender: models.DefaultGender}
	_, err := s.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

func newAdminUser(t *testing.T, s *sqlite.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Admin", Email: email, Password: "x", Role: models.RoleAdmin, Gender: models.DefaultGender}
	_, err := s.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

func newBook(t *testing.T, s *sqlite.Store, title string) *models.Book {
	t.Helper()
	b := &models.Book{UserID: primitive.NewObjectID(), Title: title, Author: "Author", Pages: 100}
	_, err := s.InsertBook(context.Background(), b)
	require.NoError(t, err)
	return b
}

func newAccounts(s *sqlite.Store, adminSecret string) *Accounts {
	return NewAccounts(s, auth.NewIssuer("test-secret", time.Hour), validation.New(), adminSecret, discard)
}

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (m *memBlobs) Upload(_ context.Context, prefix, filename string, body io.Reader, _ string) (string, error) {
	if m.failPut {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := objectKey(prefix, filename)
	m.objects[key] = data
	return key, nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBlobs) PresignedGetURL(_ context.Context, key string, expiry time.Duration, _ string) (string, error) {
	return fmt.Sprintf("https://blobs.test/%s?expires=%d", key, int(expiry.Seconds())), nil
}

func (m *memBlobs) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type stubMeta struct {
	meta *BookMetadata
	err  error
}

func (s stubMeta) LookupISBN(context.Context, string) (*BookMetadata, error) { return s.meta, s.err }

type notice struct {
	email   string
	blocked bool
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
	err     error
}

func (r *recordingNotifier) SuspensionChanged(_ context.Context, u *models.User, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{email: u.Email, blocked: blocked})
	return r.err
}

func pdfFile(name string) *File {
	return &File{Name: name, ContentType: "application/pdf", Body: bytes.NewReader([]byte("%PDF-1.7"))}
}
