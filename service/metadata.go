package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultMetadataURL = "https://www.googleapis.com/books/v1/volumes"

// MetadataLookup fills book details from an ISBN.
type MetadataLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error)
}

type BookMetadata struct {
	Title       string
	Authors     []string
	Description string
	Category    string
	PageCount   int
	ISBN        string
	CoverURL    string
}

// Author joins the listed authors.
func (m *BookMetadata) Author() string {
	return strings.Join(m.Authors, ", ")
}

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Description         string   `json:"description"`
			PageCount           int      `json:"pageCount"`
			Categories          []string `json:"categories"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// GoogleBooks queries the Google Books volumes API.
type GoogleBooks struct {
	BaseURL string
	HTTP    *http.Client
}

func NewGoogleBooks(baseURL string) *GoogleBooks {
	if baseURL == "" {
		baseURL = defaultMetadataURL
	}
	// Short timeout so a hung lookup does not stall book creation.
	return &GoogleBooks{BaseURL: baseURL, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (g *GoogleBooks) LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("isbn is required")
	}
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.TotalItems == 0 || len(data.Items) == 0 {
		return nil, fmt.Errorf("no volume found for isbn %s", isbn)
	}
	vi := data.Items[0].VolumeInfo
	meta := &BookMetadata{
		Title:       vi.Title,
		Authors:     vi.Authors,
		Description: strings.TrimSpace(vi.Description),
		PageCount:   vi.PageCount,
		ISBN:        isbn,
	}
	if vi.Subtitle != "" {
		meta.Title += ": " + vi.Subtitle
	}
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			meta.ISBN = id.Identifier
			break
		}
	}
	if len(vi.Categories) > 0 {
		meta.Category = vi.Categories[0]
	}
	// Google image links often sit behind a captcha; Open Library serves covers by ISBN directly.
	meta.CoverURL = openLibraryCoverURL(meta.ISBN, "L")
	return meta, nil
}

// NormalizeISBN strips spaces and hyphens.
func NormalizeISBN(isbn string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn))
}

func openLibraryCoverURL(isbn, size string) string {
	clean := NormalizeISBN(isbn)
	if clean == "" {
		return ""
	}
	return "https://covers.openlibrary.org/b/isbn/" + url.PathEscape(clean) + "-" + size + ".jpg"
}
