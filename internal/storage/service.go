package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/prtkgoswami/gears-connect/internal/db"
)

// MaxFiles caps how many images a single upload request may carry.
const MaxFiles = 5

var (
	ErrNoFiles        = errors.New("no files to upload")
	ErrTooManyFiles   = errors.New("too many files in one request")
	ErrBadPayload     = errors.New("file payload is not valid base64")
	ErrNoKeyDerivable = errors.New("no storage key could be derived from the given urls")
)

// keyRe pulls the object key out of a delivery URL: everything after the
// /upload/ segment, minus an optional version segment and the extension.
var keyRe = regexp.MustCompile(`/upload/(?:v\d+/)?([^.#?]+)`)

// KeyFromURL derives the object key from a public delivery URL. Returns ""
// when the URL does not carry an /upload/ path.
func KeyFromURL(rawURL string) string {
	m := keyRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

type Service struct {
	db        db.Querier
	store     ObjectStore
	publicURL string
}

func NewService(db db.Querier, store ObjectStore, publicURL string) *Service {
	return &Service{db: db, store: store, publicURL: strings.TrimRight(publicURL, "/")}
}

// File is one upload payload: a file name plus base64 data, optionally in
// data-URL form carrying its own content type.
type File struct {
	FileName string `json:"file_name"`
	Data     string `json:"data"`
	Kind     string `json:"kind"`
}

// Upload decodes and stores every file, records each object and returns
// the public delivery URLs in input order.
func (s *Service) Upload(ctx context.Context, userID string, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > MaxFiles {
		return nil, ErrTooManyFiles
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		contentType, data, err := decodePayload(f.Data)
		if err != nil {
			return nil, err
		}

		key := "gears_connect/" + uuid.NewString()
		if err := s.store.Put(ctx, key, contentType, data); err != nil {
			return nil, err
		}

		url := s.publicURL + "/upload/" + key + extFor(contentType)
		_, err = s.db.Exec(ctx, `
			INSERT INTO storage_objects (id, user_id, url, kind)
			VALUES ($1,$2,$3,$4)
		`, uuid.NewString(), userID, url, f.Kind)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// DeleteResult reports the outcome for one requested URL.
type DeleteResult struct {
	URL     string `json:"url"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// DeleteBatch removes the objects behind the given delivery URLs. URLs
// with no derivable key are skipped; when none yield a key the whole
// request fails. Individual backend failures are reported per URL rather
// than aborting the batch.
func (s *Service) DeleteBatch(ctx context.Context, urls []string) ([]DeleteResult, error) {
	results := make([]DeleteResult, 0, len(urls))
	derived := 0
	for _, u := range urls {
		key := KeyFromURL(u)
		if key == "" {
			results = append(results, DeleteResult{URL: u, Error: "no storage key derivable"})
			continue
		}
		derived++

		if err := s.store.Delete(ctx, key); err != nil {
			results = append(results, DeleteResult{URL: u, Error: err.Error()})
			continue
		}
		if _, err := s.db.Exec(ctx, `DELETE FROM storage_objects WHERE url=$1`, u); err != nil {
			results = append(results, DeleteResult{URL: u, Error: err.Error()})
			continue
		}
		results = append(results, DeleteResult{URL: u, Deleted: true})
	}
	if derived == 0 {
		return nil, ErrNoKeyDerivable
	}
	return results, nil
}

// DeleteByURLs is the error-only form used by background image cleanup.
func (s *Service) DeleteByURLs(ctx context.Context, urls []string) error {
	results, err := s.DeleteBatch(ctx, urls)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Error != "" {
			return errors.New(r.URL + ": " + r.Error)
		}
	}
	return nil
}

func decodePayload(payload string) (string, []byte, error) {
	contentType := "application/octet-stream"
	raw := payload
	if strings.HasPrefix(payload, "data:") {
		meta, rest, ok := strings.Cut(payload[len("data:"):], ",")
		if !ok {
			return "", nil, ErrBadPayload
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		raw = rest
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", nil, ErrBadPayload
	}
	return contentType, data, nil
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
