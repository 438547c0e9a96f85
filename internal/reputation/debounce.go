package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// scoreOracleDisposable is halved by the pipeline before aggregation to
	// avoid double counting with the domain-pattern scorer.
	scoreOracleDisposable = 85

	debounceTimeout = 3 * time.Second
)

// OracleResult is the disposable oracle's raw sub-result.
type OracleResult struct {
	IsDisposable bool   `json:"is_disposable"`
	Score        int    `json:"score"`
	Source       string `json:"source,omitempty"`
}

// DisposableOracle queries disposable.debounce.io (free, keyless) with the
// email's domain.
type DisposableOracle struct {
	baseURL    string
	httpClient HTTPDoer
	cache      *Cache
	logErrors  bool
}

type debounceResponse struct {
	Disposable bool `json:"disposable"`
}

// The API returns {"disposable": "true"}; accept both string and bool forms.
func (d *debounceResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Disposable any `json:"disposable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.Disposable.(type) {
	case bool:
		d.Disposable = v
	case string:
		d.Disposable = strings.EqualFold(v, "true")
	}
	return nil
}

func NewDisposableOracle(cache *Cache, logErrors bool) *DisposableOracle {
	return &DisposableOracle{
		baseURL:    "https://disposable.debounce.io",
		httpClient: &http.Client{Timeout: debounceTimeout},
		cache:      cache,
		logErrors:  logErrors,
	}
}

func (c *DisposableOracle) SetBaseURL(u string) { c.baseURL = u }

func (c *DisposableOracle) SetHTTPClient(client HTTPDoer) { c.httpClient = client }

// Check asks the oracle about the email's domain. Any failure, or an email
// without a domain, yields a zero result.
func (c *DisposableOracle) Check(ctx context.Context, email string) OracleResult {
	var res OracleResult

	parts := strings.SplitN(strings.ToLower(email), "@", 2)
	if len(parts) < 2 || parts[1] == "" {
		return res
	}
	domain := parts[1]

	cacheKey := "debounce:" + domain
	var payload debounceResponse
	if !c.cache.Get(ctx, cacheKey, &payload) {
		reqURL := fmt.Sprintf("%s/?email=%s", c.baseURL, url.QueryEscape(domain))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			logFailure(c.logErrors, "debounce", err)
			return res
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logFailure(c.logErrors, "debounce", err)
			return res
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logFailure(c.logErrors, "debounce", fmt.Errorf("unexpected status %d", resp.StatusCode))
			return res
		}

		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			logFailure(c.logErrors, "debounce", err)
			return res
		}

		c.cache.Set(ctx, cacheKey, payload)
	}

	if payload.Disposable {
		res.IsDisposable = true
		res.Score = scoreOracleDisposable
		res.Source = "debounce_api"
	}

	return res
}
