package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/models"
	"github.com/kevinaaaquil/shelf/backend/render"
	"github.com/kevinaaaquil/shelf/backend/service"
)

const (
	contentTypePDF = "application/pdf"
	uploadField    = "pdfFile"
)

type BooksHandler struct {
	Catalog  *service.Catalog
	Reviews  *service.ReviewAggregator
	MaxBytes int64
	Logger   *slog.Logger
}

type ReviewResponse struct {
	Review     *models.Review `json:"review"`
	Rating     float64        `json:"rating"`
	NumReviews int            `json:"numReviews"`
}

// List supports ?trending=true.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	trending, _ := strconv.ParseBool(r.URL.Query().Get("trending"))
	books, err := h.Catalog.List(r.Context(), models.BookFilter{TrendingOnly: trending})
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	detail, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, detail)
}

// Stream redirects to a short-lived URL for the book file.
func (h *BooksHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	url, err := h.Catalog.StreamURL(r.Context(), id)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// Create accepts a JSON body, or a multipart form with the book file in pdfFile.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}

	var (
		in   service.BookInput
		file *service.File
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if h.MaxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			render.Error(w, r, h.Logger, errs.Wrap(err, errs.CodeValidation, "failed to parse multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()
		if in, err = bookInputFromForm(r); err != nil {
			render.Error(w, r, h.Logger, err)
			return
		}
		f, header, err := r.FormFile(uploadField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			render.Error(w, r, h.Logger, errs.Wrap(err, errs.CodeValidation, "failed to read "+uploadField))
			return
		default:
			defer f.Close()
			ext := strings.ToLower(filepath.Ext(header.Filename))
			if ext != ".pdf" && !strings.HasPrefix(header.Header.Get("Content-Type"), contentTypePDF) {
				render.Error(w, r, h.Logger, errs.Validation("only pdf files are allowed"))
				return
			}
			file = &service.File{Name: header.Filename, ContentType: contentTypePDF, Body: f}
		}
	} else if err := render.DecodeJSON(r, &in); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}

	book, err := h.Catalog.Create(r.Context(), owner, in, file)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusCreated, book)
}

func bookInputFromForm(r *http.Request) (service.BookInput, error) {
	in := service.BookInput{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		CoverImage:  r.FormValue("coverImage"),
		PDFURL:      r.FormValue("pdfUrl"),
		ISBN:        r.FormValue("isbn"),
	}
	if raw := strings.TrimSpace(r.FormValue("pages")); raw != "" {
		pages, err := strconv.Atoi(raw)
		if err != nil {
			return in, errs.ValidationWithDetails("pages must be a number", map[string]string{"pages": "must be a number"})
		}
		in.Pages = pages
	}
	return in, nil
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.Message(w, http.StatusOK, "book removed")
}

func (h *BooksHandler) ToggleTrending(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	book, err := h.Catalog.ToggleTrending(r.Context(), id)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusOK, book)
}

// CreateReview body: { "rating", "comment" }
func (h *BooksHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	bookID, err := pathID(r, "id")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	var req service.ReviewInput
	if err := render.DecodeJSON(r, &req); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	review, sum, err := h.Reviews.Submit(r.Context(), user, bookID, req)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	render.JSON(w, http.StatusCreated, ReviewResponse{Review: review, Rating: sum.Rating, NumReviews: sum.NumReviews})
}

func (h *BooksHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	bookID, err := pathID(r, "id")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	if _, err := h.Reviews.Delete(r.Context(), user, bookID, reviewID); err != nil {
		render.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
