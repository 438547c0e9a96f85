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
	scoreSfsEmail    = 60
	scoreSfsIP       = 40
	scoreSfsUsername = 30

	// bonus when a field's report frequency exceeds this
	sfsFrequencyThreshold  = 10
	sfsEmailFrequencyBonus = 20
	sfsIPFrequencyBonus    = 15

	sfsTimeout = 5 * time.Second
)

const (
	ReasonSfsEmailListed    = "sfs_email_listed"
	ReasonSfsIPListed       = "sfs_ip_listed"
	ReasonSfsUsernameListed = "sfs_username_listed"
)

// SfsResult is the abuse registry's raw sub-result. Confidence is derived
// from combined report frequency and is distinct from the score.
type SfsResult struct {
	Spam       bool     `json:"spam"`
	Confidence int      `json:"confidence"`
	Score      int      `json:"score"`
	Reasons    []string `json:"reasons,omitempty"`
}

// StopForumSpam queries the cross-site abuse registry by email, origin
// address and optional username. The three sub-lookups are independent and
// additive.
type StopForumSpam struct {
	apiURL     string
	reportURL  string
	apiKey     string
	httpClient HTTPDoer
	cache      *Cache
	logErrors  bool
}

type sfsField struct {
	Appears   int `json:"appears"`
	Frequency int `json:"frequency"`
}

type sfsResponse struct {
	Success  int      `json:"success"`
	Email    sfsField `json:"email"`
	IP       sfsField `json:"ip"`
	Username sfsField `json:"username"`
}

func NewStopForumSpam(apiKey string, cache *Cache, logErrors bool) *StopForumSpam {
	return &StopForumSpam{
		apiURL:     "https://api.stopforumspam.org/api",
		reportURL:  "https://www.stopforumspam.com/add.php",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: sfsTimeout},
		cache:      cache,
		logErrors:  logErrors,
	}
}

// SetBaseURLs overrides both endpoints (useful for testing).
func (c *StopForumSpam) SetBaseURLs(apiURL, reportURL string) {
	c.apiURL = apiURL
	c.reportURL = reportURL
}

func (c *StopForumSpam) SetHTTPClient(client HTTPDoer) { c.httpClient = client }

// Check queries the registry. Any failure yields a zero result.
func (c *StopForumSpam) Check(ctx context.Context, email, ipAddress, username string) SfsResult {
	var res SfsResult

	cacheKey := fmt.Sprintf("sfs:%s:%s:%s", strings.ToLower(email), ipAddress, strings.ToLower(username))
	var payload sfsResponse
	if !c.cache.Get(ctx, cacheKey, &payload) {
		params := url.Values{}
		params.Set("email", email)
		params.Set("ip", ipAddress)
		params.Set("json", "1")
		if username != "" {
			params.Set("username", username)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
		if err != nil {
			logFailure(c.logErrors, "stopforumspam", err)
			return res
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logFailure(c.logErrors, "stopforumspam", err)
			return res
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logFailure(c.logErrors, "stopforumspam", fmt.Errorf("unexpected status %d", resp.StatusCode))
			return res
		}

		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			logFailure(c.logErrors, "stopforumspam", err)
			return res
		}

		c.cache.Set(ctx, cacheKey, payload)
	}

	if payload.Success != 1 {
		return res
	}

	if payload.Email.Appears == 1 {
		res.Spam = true
		res.Reasons = append(res.Reasons, ReasonSfsEmailListed)
		res.Score += scoreSfsEmail
		if payload.Email.Frequency > sfsFrequencyThreshold {
			res.Score += sfsEmailFrequencyBonus
		}
	}

	if payload.IP.Appears == 1 {
		res.Spam = true
		res.Reasons = append(res.Reasons, ReasonSfsIPListed)
		res.Score += scoreSfsIP
		if payload.IP.Frequency > sfsFrequencyThreshold {
			res.Score += sfsIPFrequencyBonus
		}
	}

	if username != "" && payload.Username.Appears == 1 {
		res.Spam = true
		res.Reasons = append(res.Reasons, ReasonSfsUsernameListed)
		res.Score += scoreSfsUsername
	}

	if res.Spam {
		res.Confidence = confidence(payload.Email.Frequency + payload.IP.Frequency)
	}

	return res
}

// confidence maps combined report frequency into fixed bands.
func confidence(totalFrequency int) int {
	switch {
	case totalFrequency > 50:
		return 95
	case totalFrequency > 20:
		return 85
	case totalFrequency > 5:
		return 70
	default:
		return 50
	}
}

// Report submits a confirmed spammer to the registry. Requires an API key;
// success is any 200 response.
func (c *StopForumSpam) Report(ctx context.Context, username, email, ipAddress, evidence string) bool {
	if c.apiKey == "" {
		return false
	}
	if evidence == "" {
		evidence = "Reported via regfence"
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("email", email)
	form.Set("ip_addr", ipAddress)
	form.Set("api_key", c.apiKey)
	form.Set("evidence", evidence)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.reportURL, strings.NewReader(form.Encode()))
	if err != nil {
		logFailure(c.logErrors, "stopforumspam report", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logFailure(c.logErrors, "stopforumspam report", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
