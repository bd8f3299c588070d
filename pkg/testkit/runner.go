package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "github.com/mmartin-estofados/storefront/pkg/http"
)

// Run executes one scenario file against handler as a subtest.
func Run(t *testing.T, handler http.Handler, path string) {
	t.Helper()

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	t.Run(s.Name, func(t *testing.T) { RunScenario(t, handler, s) })
}

// RunDir runs every scenario in dir, in file-name order, as subtests.
// Scenarios share the handler's state, so later files can rely on rows
// created by earlier ones.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()

	scenarios, err := LoadAllFromDir(dir)
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) { RunScenario(t, handler, s) })
	}
}

// RunScenario fires s at handler with its mocks installed and asserts the
// status, the body subset and that every mock was used.
func RunScenario(t *testing.T, handler http.Handler, s *Scenario) *httptest.ResponseRecorder {
	t.Helper()

	mt := NewMockTransport(s.Mocks...)
	if s.IsMockRequired {
		mt.Strict()
	}
	original := apphttp.DefaultClient.Transport
	apphttp.DefaultClient.Transport = mt
	defer func() { apphttp.DefaultClient.Transport = original }()

	var body io.Reader
	if len(s.RequestBody) > 0 {
		body = bytes.NewReader(s.RequestBody)
	}

	req := httptest.NewRequest(strings.ToUpper(s.RequestMethod), s.RequestURL, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	if len(s.ExpectedBody) > 0 {
		AssertJSONSubset(t, s.Name, s.ExpectedBody, rec.Body.Bytes())
	}
	for _, err := range mt.Uncalled() {
		t.Errorf("[%s] %v", s.Name, err)
	}
	return rec
}
