package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the name of the manifest shipped inside the app directory.
const FileName = "update_manifest.json"

// Manifest describes the latest available release of the app.
type Manifest struct {
	Version     string `json:"version"`
	Description string `json:"description"`
}

// NetworkError reports a transport failure while fetching a manifest.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a manifest body that does not have the expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest %s: %v", e.Source, e.Err)
}
func (e *ParseError) Unwrap() error { return e.Err }

var (
	ErrMissingVersion     = errors.New("missing field \"version\"")
	ErrMissingDescription = errors.New("missing field \"description\"")
)

// Client fetches remote manifests over HTTP(S).
// The zero value uses http.DefaultClient, which has no timeout.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

func NewClient() *Client { return &Client{HTTP: http.DefaultClient, UserAgent: "gerdoo-launcher"} }

// Fetch issues a single GET against url and decodes the body.
// Transport failures and non-2xx responses yield *NetworkError, a malformed
// body yields *ParseError. A failed fetch never returns a partial manifest.
func (c *Client) Fetch(ctx context.Context, url string) (Manifest, error) {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Manifest{}, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Manifest{}, &NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Manifest{}, &NetworkError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	m, err := decode(resp.Body, true)
	if err != nil {
		return Manifest{}, &ParseError{Source: url, Err: err}
	}
	return m, nil
}

// ReadFile reads a manifest from disk. Only the version is required, so
// bundled manifests that carry extra or fewer fields still resolve.
func ReadFile(path string) (Manifest, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Manifest{}, err
	}
	defer func() { _ = f.Close() }()
	m, err := decode(f, false)
	if err != nil {
		return Manifest{}, &ParseError{Source: path, Err: err}
	}
	return m, nil
}

type wireManifest struct {
	Version     *string `json:"version"`
	Description *string `json:"description"`
}

func decode(r io.Reader, strict bool) (Manifest, error) {
	var w wireManifest
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Manifest{}, err
	}
	if w.Version == nil || strings.TrimSpace(*w.Version) == "" {
		return Manifest{}, ErrMissingVersion
	}
	m := Manifest{Version: strings.TrimSpace(*w.Version)}
	if w.Description != nil {
		m.Description = *w.Description
	} else if strict {
		return Manifest{}, ErrMissingDescription
	}
	return m, nil
}
