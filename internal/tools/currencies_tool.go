package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CurrenciesTool lists the currency codes the exchange-rate service supports.
// The model typically calls it when the user names a currency by its common
// name ("swiss francs") rather than its ISO code.
type CurrenciesTool struct {
	baseURL    string
	httpClient *http.Client
}

var _ ToolExecutor = (*CurrenciesTool)(nil)

func NewCurrenciesTool(baseURL string) *CurrenciesTool {
	if baseURL == "" {
		baseURL = DefaultExchangeAPIURL
	}
	return &CurrenciesTool{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (ct *CurrenciesTool) Definition() Tool {
	return NewFunctionTool(
		"list_currencies",
		"List all supported currencies as a mapping from ISO 4217 code to full currency name.",
		JSONSchema{
			Type:       "object",
			Properties: map[string]*JSONSchema{},
			Required:   []string{},
		},
	)
}

// Execute fetches the code-to-name mapping. It takes no arguments, but a
// malformed argument document is still rejected rather than ignored.
func (ct *CurrenciesTool) Execute(arguments string) ([]byte, error) {
	if arguments != "" {
		var ignored map[string]any
		if err := json.Unmarshal([]byte(arguments), &ignored); err != nil {
			return nil, fmt.Errorf("invalid arguments for currencies tool: %w", err)
		}
	}

	req, err := http.NewRequest("GET", ct.baseURL+"/currencies", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create currencies request: %w", err)
	}
	req.Header.Set("User-Agent", "fx-agent/1.0")

	resp, err := ct.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call currencies API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read currencies response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("currencies API returned status %d: %s", resp.StatusCode, string(body))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("currencies API returned a non-JSON response")
	}
	return body, nil
}
