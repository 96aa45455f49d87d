package repo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/attritionlab/attrition-engine/internal/store"
)

// HTTPSource downloads a delimited dataset with a GET request.
type HTTPSource struct {
	url        string
	delimiter  rune
	httpClient *http.Client
}

// NewHTTPSource constructs a source for url with a per-request timeout.
func NewHTTPSource(url string, delimiter rune, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:       strings.TrimSpace(url),
		delimiter: delimiter,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements store.Source.
func (s *HTTPSource) Name() string {
	return "http:" + s.url
}

// Open implements store.Source. The response body is streamed into the row
// reader and closed with it.
func (s *HTTPSource) Open(ctx context.Context) (store.RowReader, error) {
	if s == nil || s.url == "" {
		return nil, fmt.Errorf("dataset URL not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("dataset endpoint returned %s", resp.Status)
	}
	return store.NewCSVRowReader(resp.Body, s.delimiter, resp.Body)
}
