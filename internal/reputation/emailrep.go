package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/regfence-dev/regfence/internal/checks"
)

// EmailRep score tiers.
const (
	scoreRepHighRisk   = 50
	scoreRepMediumRisk = 25
	scoreRepSuspicious = 30
	scoreRepDisposable = 40
	scoreRepSpam       = 50

	emailRepTimeout = 5 * time.Second
)

const (
	ReasonAPIHighRisk       = "api_high_risk"
	ReasonAPIMediumRisk     = "api_medium_risk"
	ReasonAPISuspiciousFlag = "api_suspicious_flag"
	ReasonAPIDisposable     = "api_disposable"
	ReasonAPISpam           = "api_spam"
)

// EmailRep queries emailrep.io for the address's reputation bucket and
// abuse flags. All contributions are additive.
type EmailRep struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	cache      *Cache
	logErrors  bool
}

type emailRepResponse struct {
	Reputation string `json:"reputation"`
	Details    struct {
		Suspicious bool `json:"suspicious"`
		Disposable bool `json:"disposable"`
		Spam       bool `json:"spam"`
	} `json:"details"`
}

func NewEmailRep(apiKey string, cache *Cache, logErrors bool) *EmailRep {
	return &EmailRep{
		baseURL:    "https://emailrep.io",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: emailRepTimeout},
		cache:      cache,
		logErrors:  logErrors,
	}
}

// SetBaseURL overrides the endpoint (useful for testing).
func (c *EmailRep) SetBaseURL(u string) { c.baseURL = u }

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *EmailRep) SetHTTPClient(client HTTPDoer) { c.httpClient = client }

// Check looks up the email's reputation. Any failure yields a zero result.
func (c *EmailRep) Check(ctx context.Context, email string) checks.Result {
	var res checks.Result

	cacheKey := "emailrep:" + strings.ToLower(email)
	var payload emailRepResponse
	if !c.cache.Get(ctx, cacheKey, &payload) {
		reqURL := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(email))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			logFailure(c.logErrors, "emailrep", err)
			return res
		}
		req.Header.Set("Key", c.apiKey)
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logFailure(c.logErrors, "emailrep", err)
			return res
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logFailure(c.logErrors, "emailrep", fmt.Errorf("unexpected status %d", resp.StatusCode))
			return res
		}

		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			logFailure(c.logErrors, "emailrep", err)
			return res
		}

		c.cache.Set(ctx, cacheKey, payload)
	}

	switch strings.ToLower(payload.Reputation) {
	case "high", "suspicious":
		res.Score += scoreRepHighRisk
		res.Reasons = append(res.Reasons, ReasonAPIHighRisk)
	case "medium", "low":
		res.Score += scoreRepMediumRisk
		res.Reasons = append(res.Reasons, ReasonAPIMediumRisk)
	}

	if payload.Details.Suspicious {
		res.Score += scoreRepSuspicious
		res.Reasons = append(res.Reasons, ReasonAPISuspiciousFlag)
	}
	if payload.Details.Disposable {
		res.Score += scoreRepDisposable
		res.Reasons = append(res.Reasons, ReasonAPIDisposable)
	}
	if payload.Details.Spam {
		res.Score += scoreRepSpam
		res.Reasons = append(res.Reasons, ReasonAPISpam)
	}

	return res
}
