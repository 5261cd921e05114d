package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultExchangeAPIURL is the public Frankfurter endpoint used when no
// override is configured. The service is keyed by date path segment:
// GET /{date}?from=USD&to=EUR, where {date} is "latest" or YYYY-MM-DD.
const DefaultExchangeAPIURL = "https://api.frankfurter.dev/v1"

// ExchangeRateTool fetches a currency conversion rate from a live
// exchange-rate service. It holds its own HTTP client with a timeout so a
// hung upstream cannot stall the conversation indefinitely.
type ExchangeRateTool struct {
	baseURL    string
	httpClient *http.Client
}

var _ ToolExecutor = (*ExchangeRateTool)(nil)

// NewExchangeRateTool creates the tool. An empty baseURL selects the public
// Frankfurter API; tests point it at a local server.
func NewExchangeRateTool(baseURL string) *ExchangeRateTool {
	if baseURL == "" {
		baseURL = DefaultExchangeAPIURL
	}
	return &ExchangeRateTool{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Definition describes the tool to the LLM. The per-parameter descriptions
// carry the format rules (ISO 4217 codes, date shape) since the model has
// nothing else to go on.
func (et *ExchangeRateTool) Definition() Tool {
	return NewFunctionTool(
		"get_exchange_rate",
		"Get the exchange rate between two currencies on a given date.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"currency_date": {
					Type:        "string",
					Description: "Date to fetch the rate for, in YYYY-MM-DD format, or 'latest' for the most recent rate. Defaults to 'latest'.",
				},
				"currency_from": {
					Type:        "string",
					Description: "The currency to convert from, as an ISO 4217 code, e.g. 'USD'.",
				},
				"currency_to": {
					Type:        "string",
					Description: "The currency to convert to, as an ISO 4217 code, e.g. 'EUR'.",
				},
			},
			Required: []string{"currency_from", "currency_to"},
		},
	)
}

// Execute performs exactly one GET against the rate service and returns the
// response body as-is. No retries and no caching here: the result feeds one
// model turn and is discarded with the conversation.
func (et *ExchangeRateTool) Execute(arguments string) ([]byte, error) {
	var args struct {
		CurrencyDate string `json:"currency_date"`
		CurrencyFrom string `json:"currency_from"`
		CurrencyTo   string `json:"currency_to"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, fmt.Errorf("invalid arguments for exchange rate tool: %w", err)
	}
	if args.CurrencyFrom == "" || args.CurrencyTo == "" {
		return nil, fmt.Errorf("currency_from and currency_to are required")
	}
	if args.CurrencyDate == "" {
		args.CurrencyDate = "latest"
	}

	params := url.Values{}
	params.Set("from", args.CurrencyFrom)
	params.Set("to", args.CurrencyTo)
	endpoint := fmt.Sprintf("%s/%s?%s", et.baseURL, url.PathEscape(args.CurrencyDate), params.Encode())

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange rate request: %w", err)
	}
	req.Header.Set("User-Agent", "fx-agent/1.0")

	resp, err := et.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call exchange rate API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange rate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rate API returned status %d: %s", resp.StatusCode, string(body))
	}

	// Make sure we hand the model well-formed JSON, not an HTML error page.
	if !json.Valid(body) {
		return nil, fmt.Errorf("exchange rate API returned a non-JSON response")
	}
	return body, nil
}
