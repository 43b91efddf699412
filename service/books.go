package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/store"
	"github.com/kevinaaaquil/shelf/backend/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	blobPrefix       = "books/"
	streamURLExpiry  = 15 * time.Minute
	metadataDeadline = 10 * time.Second
)

type BookInput struct {
	Title       string `json:"title" validate:"notblank,max=300"`
	Author      string `json:"author" validate:"notblank,max=200"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description" validate:"max=10000"`
	CoverImage  string `json:"coverImage" validate:"omitempty,url"`
	PDFURL      string `json:"pdfUrl" validate:"omitempty,url"`
	ISBN        string `json:"isbn" validate:"max=20"`
	Pages       int    `json:"pages" validate:"gte=0"`
}

// File is an uploaded book file.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type BookDetail struct {
	models.Book
	Reviews []models.Review `json:"reviews"`
}

// Catalog manages book records and their stored files.
type Catalog struct {
	store    store.Store
	blobs    BlobStore
	meta     MetadataLookup
	validate *validation.Validator
	logger   *slog.Logger
	now      func() time.Time
}

// NewCatalog accepts nil blobs or meta; uploads and ISBN lookups are then unavailable.
func NewCatalog(s store.Store, blobs BlobStore, meta MetadataLookup, v *validation.Validator, logger *slog.Logger) *Catalog {
	return &Catalog{store: s, blobs: blobs, meta: meta, validate: v, logger: logger, now: time.Now}
}

// Create stores an optional file and inserts the book. Fields left empty are
// filled from the ISBN lookup when one is configured.
func (c *Catalog) Create(ctx context.Context, owner *models.User, in BookInput, file *File) (*models.Book, error) {
	in.ISBN = NormalizeISBN(in.ISBN)
	if in.ISBN != "" && c.meta != nil {
		c.fillFromMetadata(ctx, &in)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if err := c.validate.Validate(in); err != nil {
		return nil, err
	}

	book := &models.Book{
		UserID:      owner.ID,
		Title:       in.Title,
		Author:      in.Author,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		CoverImage:  in.CoverImage,
		ISBN:        in.ISBN,
		PDFURL:      in.PDFURL,
		Pages:       in.Pages,
		CreatedAt:   c.now().UTC(),
	}

	if file != nil {
		if c.blobs == nil {
			return nil, errs.Internal("file uploads are not configured")
		}
		key, err := c.blobs.Upload(ctx, blobPrefix, file.Name, file.Body, file.ContentType)
		if err != nil {
			return nil, errs.Upstream(err, "failed to store book file")
		}
		book.PDFKey = key
		book.PDFURL = ""
	}

	id, err := c.store.InsertBook(ctx, book)
	if err != nil {
		c.dropBlob(ctx, book.PDFKey)
		return nil, storeErr(err, "book")
	}
	book.ID = id
	c.logger.InfoContext(ctx, "book created", "book_id", id.Hex(), "title", book.Title, "uploaded", book.PDFKey != "")
	return book, nil
}

func (c *Catalog) fillFromMetadata(ctx context.Context, in *BookInput) {
	ctx, cancel := context.WithTimeout(ctx, metadataDeadline)
	defer cancel()
	meta, err := c.meta.LookupISBN(ctx, in.ISBN)
	if err != nil {
		c.logger.WarnContext(ctx, "isbn lookup failed", "isbn", in.ISBN, "error", err)
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = meta.Title
	}
	if strings.TrimSpace(in.Author) == "" {
		in.Author = meta.Author()
	}
	if in.Category == "" {
		in.Category = meta.Category
	}
	if in.Description == "" {
		in.Description = meta.Description
	}
	if in.CoverImage == "" {
		in.CoverImage = meta.CoverURL
	}
	if in.Pages == 0 {
		in.Pages = meta.PageCount
	}
}

func (c *Catalog) List(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	books, err := c.store.ListBooks(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	return books, nil
}

// Get returns the book with its reviews, newest first.
func (c *Catalog) Get(ctx context.Context, id primitive.ObjectID) (*BookDetail, error) {
	book, err := c.store.BookByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	reviews, err := c.store.ReviewsForBook(ctx, id)
	if err != nil {
		return nil, storeErr(err, "review")
	}
	return &BookDetail{Book: *book, Reviews: reviews}, nil
}

func (c *Catalog) ToggleTrending(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	book, err := c.store.ToggleTrending(ctx, id)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	return book, nil
}

// Delete removes the book, everything referencing it, and its stored file.
func (c *Catalog) Delete(ctx context.Context, id primitive.ObjectID) error {
	book, err := c.store.DeleteBook(ctx, id)
	if err != nil {
		return storeErr(err, "book")
	}
	c.dropBlob(ctx, book.PDFKey)
	c.logger.InfoContext(ctx, "book deleted", "book_id", id.Hex())
	return nil
}

// StreamURL returns where the reader should load the book file from.
func (c *Catalog) StreamURL(ctx context.Context, id primitive.ObjectID) (string, error) {
	book, err := c.store.BookByID(ctx, id)
	if err != nil {
		return "", storeErr(err, "book")
	}
	if book.PDFKey != "" && c.blobs != nil {
		u, err := c.blobs.PresignedGetURL(ctx, book.PDFKey, streamURLExpiry, book.Title+".pdf")
		if err != nil {
			return "", errs.Upstream(err, "could not prepare book file")
		}
		return u, nil
	}
	if book.PDFURL != "" {
		return book.PDFURL, nil
	}
	return "", errs.NotFound("book has no readable file")
}

func (c *Catalog) dropBlob(ctx context.Context, key string) {
	if key == "" || c.blobs == nil {
		return
	}
	if err := c.blobs.Delete(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "blob delete failed", "key", key, "error", err)
	}
}
