// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/nextup/internal/models"
)

// MockProvider is a test double for [services.Provider].
//
// SearchFn and StreamFn default to empty results. Calls are counted.
type MockProvider struct {
	SearchFn func(ctx context.Context, query string, window int) ([]models.RawCandidate, error)
	StreamFn func(ctx context.Context, id string) (*models.StreamInfo, error)

	searches atomic.Int32
	streams  atomic.Int32

	mu      sync.Mutex
	queries []string
	windows []int
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) SearchRaw(ctx context.Context, query string, window int) ([]models.RawCandidate, error) {
	m.searches.Add(1)
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.windows = append(m.windows, window)
	m.mu.Unlock()

	if m.SearchFn == nil {
		return []models.RawCandidate{}, nil
	}
	return m.SearchFn(ctx, query, window)
}

func (m *MockProvider) ResolveStream(ctx context.Context, id string) (*models.StreamInfo, error) {
	m.streams.Add(1)
	if m.StreamFn == nil {
		return &models.StreamInfo{ID: id, StreamURL: "https://audio.example/" + id}, nil
	}
	return m.StreamFn(ctx, id)
}

// Searches returns how many times SearchRaw ran.
func (m *MockProvider) Searches() int { return int(m.searches.Load()) }

// Streams returns how many times ResolveStream ran.
func (m *MockProvider) Streams() int { return int(m.streams.Load()) }

// Queries returns every query passed to SearchRaw, in call order.
func (m *MockProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Windows returns every window passed to SearchRaw, in call order.
func (m *MockProvider) Windows() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.windows...)
}

// Results returns a SearchFn that always yields hits.
func Results(hits ...models.RawCandidate) func(context.Context, string, int) ([]models.RawCandidate, error) {
	return func(context.Context, string, int) ([]models.RawCandidate, error) {
		return append([]models.RawCandidate(nil), hits...), nil
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
