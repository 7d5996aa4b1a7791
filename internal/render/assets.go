package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/apperr"
)

// ErrEmptyAsset is returned when an asset resolves to zero bytes.
var ErrEmptyAsset = errors.New("asset is empty")

// Source is a template or font asset.
type Source interface {
	Location() string
	// Fetch returns the asset bytes; empty payloads are an error.
	Fetch(ctx context.Context) ([]byte, error)
	// Probe checks the asset is reachable without downloading it.
	Probe(ctx context.Context) error
}

// NewSource picks an HTTP source for http(s) locations and a file source
// otherwise. An empty location yields nil.
func NewSource(location string, client *http.Client) Source {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPSource(location, client)
	default:
		return FileSource{Path: location}
	}
}

// HTTPSource fetches an asset over HTTP.
type HTTPSource struct {
	URL  string
	HTTP *http.Client
}

// NewHTTPSource creates a source on url. A nil client means a client with no
// timeout beyond the caller's context.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPSource{URL: url, HTTP: client}
}

// NewHTTPClient returns a client with the given timeout; zero disables it.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (s *HTTPSource) Location() string { return s.URL }

// Fetch downloads the asset.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.E(apperr.KindNetwork, "fetch", fmt.Errorf("failed to read %s: %w", s.URL, err))
	}
	if len(data) == 0 {
		return nil, apperr.E(apperr.KindAsset, "fetch", fmt.Errorf("%s: %w", s.URL, ErrEmptyAsset))
	}
	return data, nil
}

// Probe issues a HEAD request.
func (s *HTTPSource) Probe(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodHead)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (s *HTTPSource) do(ctx context.Context, method string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.URL, nil)
	if err != nil {
		return nil, apperr.E(apperr.KindAsset, "fetch", err)
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, apperr.E(apperr.KindNetwork, "fetch", fmt.Errorf("request %s failed: %w", s.URL, err))
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, apperr.Errorf(apperr.KindAsset, "fetch", "failed to fetch %s: %s", s.URL, resp.Status)
	}
	return resp, nil
}

// FileSource reads an asset from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Location() string { return s.Path }

// Fetch reads the whole file.
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, apperr.E(apperr.KindAsset, "fetch", err)
	}
	if len(data) == 0 {
		return nil, apperr.E(apperr.KindAsset, "fetch", fmt.Errorf("%s: %w", s.Path, ErrEmptyAsset))
	}
	return data, nil
}

// Probe stats the file.
func (s FileSource) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return apperr.E(apperr.KindAsset, "probe", err)
	}
	if info.IsDir() {
		return apperr.Errorf(apperr.KindAsset, "probe", "%s is a directory", s.Path)
	}
	return nil
}

// AssetStatus reports whether one asset is reachable.
type AssetStatus struct {
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"`
	Accessible bool   `json:"accessible"`
	Error      string `json:"error,omitempty"`
}

const (
	AssetTemplate = "PDF Template"
	AssetFont     = "Font File"
)

func probe(ctx context.Context, name string, src Source) AssetStatus {
	if src == nil {
		return AssetStatus{Name: name, Error: "not configured"}
	}
	st := AssetStatus{Name: name, Location: src.Location()}
	if err := src.Probe(ctx); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Accessible = true
	return st
}

// Inaccessible filters statuses down to the assets that failed.
func Inaccessible(statuses []AssetStatus) []AssetStatus {
	var out []AssetStatus
	for _, st := range statuses {
		if !st.Accessible {
			out = append(out, st)
		}
	}
	return out
}
