package tools_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fx-agent/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeRateToolDefaultsDateToLatest(t *testing.T) {
	require := require.New(t)

	var requests []*http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Clone(r.Context()))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"amount":1.0,"base":"USD","date":"2025-08-29","rates":{"EUR":0.88645}}`))
	}))
	defer server.Close()

	tool := tools.NewExchangeRateTool(server.URL)
	payload, err := tool.Execute(`{"currency_from":"USD","currency_to":"EUR"}`)
	require.NoError(err)

	// Exactly one outbound request, against the latest path.
	require.Len(requests, 1)
	require.Equal("/latest", requests[0].URL.Path)
	require.Equal("USD", requests[0].URL.Query().Get("from"))
	require.Equal("EUR", requests[0].URL.Query().Get("to"))

	var decoded struct {
		Rates map[string]float64 `json:"rates"`
	}
	require.NoError(json.Unmarshal(payload, &decoded))
	require.Equal(0.88645, decoded.Rates["EUR"])
}

func TestExchangeRateToolExplicitDate(t *testing.T) {
	require := require.New(t)

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"amount":1.0,"base":"GBP","date":"2024-01-15","rates":{"JPY":185.2}}`))
	}))
	defer server.Close()

	tool := tools.NewExchangeRateTool(server.URL)
	_, err := tool.Execute(`{"currency_date":"2024-01-15","currency_from":"GBP","currency_to":"JPY"}`)
	require.NoError(err)
	require.Equal("/2024-01-15", gotPath)
}

func TestExchangeRateToolArgumentErrors(t *testing.T) {
	assert := assert.New(t)

	tool := tools.NewExchangeRateTool("http://127.0.0.1:0")

	_, err := tool.Execute("not json")
	assert.Error(err)

	_, err = tool.Execute(`{"currency_from":"USD"}`)
	assert.Error(err)
	assert.Contains(err.Error(), "required")
}

func TestExchangeRateToolNon200(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	tool := tools.NewExchangeRateTool(server.URL)
	_, err := tool.Execute(`{"currency_from":"USD","currency_to":"XXX"}`)
	assert.Error(err)
	assert.Contains(err.Error(), "404")
}

func TestExchangeRateToolRejectsNonJSONBody(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance page</html>"))
	}))
	defer server.Close()

	tool := tools.NewExchangeRateTool(server.URL)
	_, err := tool.Execute(`{"currency_from":"USD","currency_to":"EUR"}`)
	assert.Error(err)
}

func TestExchangeRateToolThroughManagerNeverErrors(t *testing.T) {
	assert := assert.New(t)

	tm := tools.NewToolManager()
	assert.NoError(tm.Register(tools.NewExchangeRateTool("http://127.0.0.1:0")))

	// Malformed arguments come back as a Failure result, not an error.
	result := tm.Execute("get_exchange_rate", "not json")
	assert.True(result.Failed())
	assert.True(json.Valid([]byte(result.Content())))
}
