package checks

import (
	"regexp"
	"strings"
	"sync"
)

// Disposable-domain confidence tiers.
const (
	scoreDisposableExact   = 90
	scoreDisposablePattern = 75
	scoreSuspiciousTLD     = 40
)

// Known disposable providers. Extended at runtime via LoadCustomDomains.
var disposableDomains = []string{
	"10minutemail.com", "10minutemail.net", "10minutemail.org",
	"guerrillamail.com", "guerrillamail.net", "guerrillamail.org",
	"mailinator.com", "mailinator.net", "mailinator2.com",
	"tempmail.com", "temp-mail.org", "temp-mail.io",
	"throwaway.email", "trashmail.com", "getnada.com",
	"maildrop.cc", "mintemail.com", "mytemp.email",
	"sharklasers.com", "grr.la", "yopmail.com", "yopmail.net",
	"fakeinbox.com", "spambog.com", "deadaddress.com",
	"mailcatch.com", "emailondeck.com", "emailfake.com",
	"dispostable.com", "throwawaymail.com", "fake-mail.com",
	"mohmal.com", "mailnesia.com", "mytrashmail.com",
	"tempr.email", "throwam.com", "devnullmail.com",
	"emailsensei.com", "mailexpire.com", "tempemail.net",
	"gmailnator.com", "emailtemporanea.com", "emailtemporanea.net",
	"ephemail.net", "filzmail.com", "getairmail.com",
	"harakirimail.com", "jetable.org", "klzlk.com",
	"mailforspam.com", "mailtothis.com", "mt2014.com",
	"noclickemail.com", "nospam.ze.tc", "objectmail.com",
	"pookmail.com", "proxymail.eu", "sogetthis.com",
	"spambox.us", "spamfree24.com", "spamgourmet.com",
	"spamspot.com", "supergreatmail.com", "teleworm.com",
	"tmailinator.com", "wasteland.rfc822.org", "wegwerfmail.de",
	"wegwerfmail.net", "wegwerfmail.org", "wh4f.org",
	"zoemail.org", "trbvm.com", "correotemporal.org",
}

// Substring/regex indicators of throwaway providers not in the static set.
var disposablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`temp.*mail`),
	regexp.MustCompile(`trash.*mail`),
	regexp.MustCompile(`fake.*mail`),
	regexp.MustCompile(`throw.*away`),
	regexp.MustCompile(`guerrilla`),
	regexp.MustCompile(`mailinator`),
	regexp.MustCompile(`spam.*`),
	regexp.MustCompile(`disposable`),
	regexp.MustCompile(`temporary`),
	regexp.MustCompile(`wegwerf`),
	regexp.MustCompile(`jetable`),
	regexp.MustCompile(`^[0-9]{5,}\.`), // numeric-prefix domains
	regexp.MustCompile(`minute.*mail`),
}

// TLDs disproportionately used by throwaway services.
var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq", ".top", ".xyz"}

// DisposableResult is the raw sub-result surfaced in ValidationResult.Details.
type DisposableResult struct {
	IsDisposable bool   `json:"is_disposable"`
	Score        int    `json:"score"`
	Provider     string `json:"provider,omitempty"`
}

// DisposableChecker owns a mutable copy of the disposable-domain set.
// Custom entries from configuration are merged in once via LoadCustomDomains.
type DisposableChecker struct {
	mu      sync.RWMutex
	domains map[string]struct{}
}

func NewDisposableChecker() *DisposableChecker {
	domains := make(map[string]struct{}, len(disposableDomains))
	for _, d := range disposableDomains {
		domains[strings.ToLower(d)] = struct{}{}
	}
	return &DisposableChecker{domains: domains}
}

// AddDomain appends one domain to the set, case-folded and de-duplicated.
func (c *DisposableChecker) AddDomain(domain string) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return
	}
	c.mu.Lock()
	c.domains[domain] = struct{}{}
	c.mu.Unlock()
}

// LoadCustomDomains merges a newline-delimited configuration block into the
// set. Idempotent.
func (c *DisposableChecker) LoadCustomDomains(raw string) {
	for _, line := range strings.Split(raw, "\n") {
		c.AddDomain(line)
	}
}

// Check classifies the email's domain. Exact matches short-circuit at high
// confidence, pattern matches at medium; a suspicious TLD scores low and is
// non-terminal (IsDisposable stays false).
func (c *DisposableChecker) Check(email string) DisposableResult {
	var res DisposableResult

	domain := domainOf(email)
	if domain == "" {
		return res
	}

	c.mu.RLock()
	_, exact := c.domains[domain]
	c.mu.RUnlock()
	if exact {
		res.IsDisposable = true
		res.Score = scoreDisposableExact
		res.Provider = domain
		return res
	}

	for _, re := range disposablePatterns {
		if re.MatchString(domain) {
			res.IsDisposable = true
			res.Score = scoreDisposablePattern
			res.Provider = domain
			return res
		}
	}

	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(domain, tld) {
			res.Score = scoreSuspiciousTLD
			return res
		}
	}

	return res
}

func domainOf(email string) string {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(email)), "@", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
