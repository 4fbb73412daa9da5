package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// esearchResponse is the JSON shape shared by all E-utilities searches.
type esearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// esummaryResponse keys each record by its UID, so records are decoded
// per client from the raw slot.
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// record returns the raw summary slot for a UID, or nil when absent.
func (r *esummaryResponse) record(uid string) json.RawMessage {
	raw, ok := r.Result[uid]
	if !ok {
		return nil
	}
	return raw
}

// getJSON performs a rate-limited GET and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, rawURL string, out interface{}) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// eutilsURL assembles an E-utilities endpoint URL with the api_key
// parameter appended when configured.
func eutilsURL(baseURL, endpoint string, params url.Values, apiKey string) string {
	if apiKey != "" {
		params.Set("api_key", apiKey)
	}
	return fmt.Sprintf("%s%s?%s", baseURL, endpoint, params.Encode())
}

// perSecond builds a limiter allowing n requests per second with a
// burst of one, serializing calls the way NCBI expects.
func perSecond(n int) *rate.Limiter {
	if n <= 0 {
		n = 1
	}
	return rate.NewLimiter(rate.Limit(n), 1)
}
