package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Call is one request seen by a MockTransport.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// MockTransport is an http.RoundTripper that answers from MockSteps and
// records every request. Install it on pkg/http's client:
//
//	mt := testkit.NewMockTransport(testkit.Respond("POST", idURL, 200, body))
//	apphttp.DefaultClient.Transport = mt
//	defer apphttp.ResetTransport()
type MockTransport struct {
	mu      sync.Mutex
	steps   []mockEntry
	calls   []Call
	require bool
}

type mockEntry struct {
	step      MockStep
	callCount int
}

// NewMockTransport answers with the first step matching each request.
func NewMockTransport(steps ...MockStep) *MockTransport {
	mt := &MockTransport{}
	for _, s := range steps {
		mt.steps = append(mt.steps, mockEntry{step: s})
	}
	return mt
}

// Strict makes unmatched requests fail with a transport error.
func (mt *MockTransport) Strict() *MockTransport {
	mt.require = true
	return mt
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.calls = append(mt.calls, Call{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})

	for i := range mt.steps {
		entry := &mt.steps[i]
		if entry.step.Method != "" && !strings.EqualFold(entry.step.Method, req.Method) {
			continue
		}
		if !strings.HasPrefix(req.URL.String(), entry.step.MatchURL) {
			continue
		}
		entry.callCount++
		return buildResponse(req, entry.step), nil
	}

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call %s %s: no matching mock", req.Method, req.URL)
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader(`{"error":"no mock configured"}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// Calls returns a copy of every recorded request.
func (mt *MockTransport) Calls() []Call {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]Call(nil), mt.calls...)
}

// Uncalled lists the steps that never matched a request.
func (mt *MockTransport) Uncalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, e := range mt.steps {
		if e.callCount == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock %s %q was never called", e.step.Method, e.step.MatchURL))
		}
	}
	return errs
}

func buildResponse(req *http.Request, step MockStep) *http.Response {
	code := step.Status
	if code == 0 {
		code = http.StatusOK
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(step.Body)),
		Request:    req,
	}
}
