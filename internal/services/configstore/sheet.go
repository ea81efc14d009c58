package configstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Row is one entry of the remote tabular config source
// (columns: key, value, type, notes).
type Row struct {
	Key   string
	Value string
	Type  string
	Notes string
}

// Fetcher loads config rows from the remote source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Row, error)
}

// Credential decorates a sheet request with one auth method. The store
// tries credentials in priority order and falls back to an
// unauthenticated public read when none work.
type Credential interface {
	Name() string
	Apply(req *http.Request) error
}

// APIKeyCredential authenticates via an API key query parameter.
type APIKeyCredential struct {
	Key string
}

func (c APIKeyCredential) Name() string { return "api-key" }

func (c APIKeyCredential) Apply(req *http.Request) error {
	if c.Key == "" {
		return errors.New("empty API key")
	}
	q := req.URL.Query()
	q.Set("key", c.Key)
	req.URL.RawQuery = q.Encode()
	return nil
}

// BearerTokenCredential authenticates via an OAuth bearer token obtained
// elsewhere (token acquisition is a collaborator, not implemented here).
type BearerTokenCredential struct {
	Token string
}

func (c BearerTokenCredential) Name() string { return "bearer-token" }

func (c BearerTokenCredential) Apply(req *http.Request) error {
	if c.Token == "" {
		return errors.New("empty bearer token")
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	return nil
}

type anonymousCredential struct{}

func (anonymousCredential) Name() string                { return "anonymous" }
func (anonymousCredential) Apply(_ *http.Request) error { return nil }

// SheetFetcher pulls the config worksheet as CSV over HTTP.
type SheetFetcher struct {
	url    string
	creds  []Credential
	client *http.Client
	log    *zap.Logger
}

// NewSheetFetcher creates a fetcher for the given CSV export URL.
// Credentials are tried in the given order, then an unauthenticated read.
func NewSheetFetcher(url string, creds []Credential, logger *zap.Logger) *SheetFetcher {
	return &SheetFetcher{
		url:    url,
		creds:  creds,
		client: &http.Client{Timeout: 20 * time.Second},
		log:    logger,
	}
}

// Fetch downloads and parses the config rows.
func (f *SheetFetcher) Fetch(ctx context.Context) ([]Row, error) {
	if f.url == "" {
		return nil, errors.New("sheet URL is not configured")
	}

	chain := append(append([]Credential{}, f.creds...), anonymousCredential{})

	var lastErr error
	for _, cred := range chain {
		rows, err := f.fetchWith(ctx, cred)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		f.log.Warn("sheet fetch attempt failed",
			zap.String("credential", cred.Name()),
			zap.Error(err))
	}

	return nil, errors.Wrap(lastErr, "all credential methods failed")
}

func (f *SheetFetcher) fetchWith(ctx context.Context, cred Credential) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build sheet request")
	}
	if err := cred.Apply(req); err != nil {
		return nil, errors.Wrapf(err, "apply credential %s", cred.Name())
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sheet request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("sheet returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseRows(resp.Body)
}

// parseRows reads CSV rows in key,value,type,notes format. A header row
// is detected and skipped; malformed rows are dropped, not fatal.
func parseRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse sheet CSV")
	}

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		key := strings.TrimSpace(rec[0])
		if key == "" {
			continue
		}
		if i == 0 && strings.EqualFold(key, "key") {
			continue
		}

		row := Row{Key: key, Value: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			row.Type = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			row.Notes = strings.TrimSpace(rec[3])
		}
		rows = append(rows, row)
	}

	return rows, nil
}
