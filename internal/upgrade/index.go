// Package upgrade checks the Python package index for newer releases
// and upgrades the CLI and the SignalPilot library.
package upgrade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultIndexURL is PyPI's JSON API root.
const DefaultIndexURL = "https://pypi.org/pypi"

const lookupTimeout = 5 * time.Second

// NetworkLookupError is returned when the index cannot answer.
type NetworkLookupError struct {
	Package    string
	StatusCode int // zero when no response arrived
	Err        error
}

func (e *NetworkLookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("looking up %s: index returned %d", e.Package, e.StatusCode)
	}
	return fmt.Sprintf("looking up %s: %v", e.Package, e.Err)
}

func (e *NetworkLookupError) Unwrap() error { return e.Err }

func (e *NetworkLookupError) Hint() string {
	return "check your network connection and try again"
}

// NotFound reports whether the package is not published.
func (e *NetworkLookupError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Index queries a PyPI-compatible JSON API.
type Index struct {
	BaseURL string
	Client  *http.Client
}

// NewIndex returns an index client for PyPI.
func NewIndex() *Index {
	return &Index{
		BaseURL: DefaultIndexURL,
		Client:  &http.Client{Timeout: lookupTimeout},
	}
}

type projectInfo struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
}

// LatestVersion returns the newest release of pkg.
func (i *Index) LatestVersion(ctx context.Context, pkg string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	u := strings.TrimRight(i.BaseURL, "/") + "/" + url.PathEscape(pkg) + "/json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &NetworkLookupError{Package: pkg, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := i.Client.Do(req)
	if err != nil {
		return "", &NetworkLookupError{Package: pkg, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &NetworkLookupError{Package: pkg, StatusCode: resp.StatusCode}
	}

	var p projectInfo
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", &NetworkLookupError{Package: pkg, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if p.Info.Version == "" {
		return "", &NetworkLookupError{Package: pkg, Err: errors.New("response has no version")}
	}
	return p.Info.Version, nil
}
