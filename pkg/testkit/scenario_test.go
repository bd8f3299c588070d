package testkit_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/mmartin-estofados/storefront/pkg/http"
	"github.com/mmartin-estofados/storefront/pkg/testkit"
)

// proxy forwards every request to an upstream through pkg/http, so the
// scenario mocks are what it sees.
var proxy = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	resp, err := apphttp.Get("https://upstream.test" + r.URL.Path).WithContext(r.Context()).Send()
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Raw) //nolint:errcheck
})

func writeScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "01_health.json", `{
		"name": "upstream health",
		"requestUrl": "/health",
		"expectedCode": 200,
		"expectedBody": {"status": "ok"},
		"mocks": [{"method": "GET", "matchUrl": "https://upstream.test/health", "body": {"status": "ok", "uptime": 12}}]
	}`)
	writeScenario(t, dir, "02_missing.json", `{
		"name": "unmocked path is a 404",
		"requestUrl": "/nothing",
		"expectedCode": 404
	}`)

	testkit.RunDir(t, proxy, dir)
}

func TestLoadScenarioValidation(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad.json", `{"name": "no url", "expectedCode": 200}`)

	_, err := testkit.LoadScenario(filepath.Join(dir, "bad.json"))
	assert.ErrorContains(t, err, "requestUrl")
}

func TestMockTransportRecordsCalls(t *testing.T) {
	mt := testkit.NewMockTransport(testkit.Respond("POST", "https://api.test/v1", 201, map[string]string{"id": "x"}))
	apphttp.DefaultClient.Transport = mt
	defer apphttp.ResetTransport()

	resp, err := apphttp.Post("https://api.test/v1/payments").Header("X-Idempotency-Key", "k1").Body(map[string]int{"a": 1}).Send()
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	calls := mt.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "k1", calls[0].Header.Get("X-Idempotency-Key"))
	assert.JSONEq(t, `{"a":1}`, string(calls[0].Body))
	assert.Empty(t, mt.Uncalled())
}

func TestStrictMockTransport(t *testing.T) {
	apphttp.DefaultClient.Transport = testkit.NewMockTransport().Strict()
	defer apphttp.ResetTransport()

	_, err := apphttp.Get("https://api.test/anything").Send()
	assert.Error(t, err)
}

func TestAssertJSONSubsetIgnoresExtraKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteString(`{"status":200,"data":{"id":1,"name":"x"}}`)
	testkit.AssertJSONSubset(t, "subset", []byte(`{"data":{"id":1}}`), rec.Body.Bytes())
}
