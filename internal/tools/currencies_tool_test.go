package tools_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fx-agent/internal/tools"

	"github.com/stretchr/testify/require"
)

func TestCurrenciesTool(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("/currencies", r.URL.Path)
		w.Write([]byte(`{"EUR":"Euro","USD":"United States Dollar"}`))
	}))
	defer server.Close()

	tool := tools.NewCurrenciesTool(server.URL)
	payload, err := tool.Execute("")
	require.NoError(err)

	var currencies map[string]string
	require.NoError(json.Unmarshal(payload, &currencies))
	require.Equal("Euro", currencies["EUR"])
}

func TestCurrenciesToolRejectsMalformedArguments(t *testing.T) {
	require := require.New(t)

	tool := tools.NewCurrenciesTool("http://127.0.0.1:0")
	_, err := tool.Execute("not json")
	require.Error(err)
}
