// Package testkit drives HTTP API tests from JSON scenario files and
// intercepts the outgoing calls made through pkg/http.
//
// A scenario describes one request, the expected status, a subset of the
// expected response body and the mocked upstream answers:
//
//	{
//	  "name": "mercadopago preference",
//	  "requestMethod": "POST",
//	  "requestUrl": "/api/payment",
//	  "requestBody": {"order_id": 1, "method": "mercadopago"},
//	  "expectedCode": 200,
//	  "expectedBody": {"data": {"method": "mercadopago"}},
//	  "mocks": [
//	    {"method": "POST", "matchUrl": "https://mp.test/checkout/preferences",
//	     "status": 201, "body": {"id": "pref-1", "init_point": "https://mp.test/pay"}}
//	  ]
//	}
//
// Scenario files live in testdata/ next to the *_test.go that runs them:
//
//	testkit.RunDir(t, handler, "testdata/payment")
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Scenario is one API test case.
type Scenario struct {
	Name string `json:"name"`

	RequestMethod string            `json:"requestMethod"`
	RequestURL    string            `json:"requestUrl"`
	RequestBody   json.RawMessage   `json:"requestBody"`
	Headers       map[string]string `json:"headers"`

	ExpectedCode int `json:"expectedCode"`
	// ExpectedBody is matched as a subset: every key it names must be
	// present in the response with the same value.
	ExpectedBody json.RawMessage `json:"expectedBody"`

	// IsMockRequired fails the scenario on any outgoing call no mock matches.
	IsMockRequired bool       `json:"isMockRequired"`
	Mocks          []MockStep `json:"mocks"`
}

// MockStep is one canned upstream answer.
type MockStep struct {
	// Method restricts the match to one HTTP method; empty matches any.
	Method string `json:"method"`
	// MatchURL is a prefix of the outgoing URL; empty matches any URL.
	MatchURL string          `json:"matchUrl"`
	Status   int             `json:"status"`
	Body     json.RawMessage `json:"body"`
}

// Respond builds a MockStep from a Go value.
func Respond(method, matchURL string, status int, body interface{}) MockStep {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("testkit: marshal mock body: %v", err))
	}
	return MockStep{Method: method, MatchURL: matchURL, Status: status, Body: raw}
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", path, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", path, err)
	}
	return &s, nil
}

// LoadAllFromDir loads every *.json file in dir, sorted by file name.
func LoadAllFromDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("testkit: no scenario files found in %q", dir)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	return nil
}
