package checks

import "strings"

const (
	scoreHoneypot = 100 // definite bot

	scoreFormTooFast          = 80
	scoreFormSuspiciouslyFast = 40
	scoreFormTooSlow          = 30

	// anything still counted as suspicious even above the configured minimum
	suspiciouslyFastSeconds = 10

	scoreNoUserAgent     = 60
	scoreBotUserAgent    = 70
	scoreHeadlessBrowser = 80
	scoreMissingHeaders  = 20
	scoreGenericAccept   = 15
	scoreUnknownOS       = 30
	scoreUnknownBrowser  = 25
)

var botKeywords = []string{"bot", "crawler", "spider", "scraper", "curl", "wget", "python", "java"}

var headlessKeywords = []string{"headless", "phantomjs", "nightmare", "puppeteer", "selenium"}

// Headers a real browser always sends.
var requiredHeaders = []string{"accept", "accept-language"}

// CheckHoneypot treats any non-empty decoy field value as proof of automation.
func CheckHoneypot(value string) Result {
	var res Result
	if value != "" {
		res.addBot(scoreHoneypot, ReasonHoneypotFilled)
	}
	return res
}

// CheckTiming scores the elapsed seconds between form render and submission.
// The too-fast and too-slow rules are evaluated independently; both may fire
// when the configured bounds are inconsistent.
func CheckTiming(elapsedSeconds, minSeconds, maxSeconds int64) Result {
	var res Result

	if elapsedSeconds < minSeconds {
		res.addBot(scoreFormTooFast, ReasonFormTooFast)
	} else if elapsedSeconds < suspiciouslyFastSeconds {
		res.add(scoreFormSuspiciouslyFast, ReasonFormSuspiciouslyFast)
	}

	if elapsedSeconds > maxSeconds {
		res.add(scoreFormTooSlow, ReasonFormTooSlow)
	}

	return res
}

// CheckBrowser fingerprints the user-agent and request headers. Certain-bot
// conditions set IsBot; all contributions are additive.
func CheckBrowser(userAgent string, headers map[string]string) Result {
	var res Result
	ua := strings.ToLower(userAgent)

	if userAgent == "" {
		res.addBot(scoreNoUserAgent, ReasonNoUserAgent)
	}

	for _, kw := range botKeywords {
		if strings.Contains(ua, kw) {
			res.addBot(scoreBotUserAgent, ReasonBotUserAgent)
			break
		}
	}

	for _, kw := range headlessKeywords {
		if strings.Contains(ua, kw) {
			res.addBot(scoreHeadlessBrowser, ReasonHeadlessBrowser)
			break
		}
	}

	if len(headers) > 0 {
		for _, h := range requiredHeaders {
			if headers[h] == "" {
				res.add(scoreMissingHeaders, ReasonMissingHeaders)
				break
			}
		}

		if headers["accept"] == "*/*" {
			res.add(scoreGenericAccept, ReasonGenericAcceptHeader)
		}
	}

	hasOS := strings.Contains(ua, "windows") ||
		strings.Contains(ua, "mac") ||
		strings.Contains(ua, "linux") ||
		strings.Contains(ua, "android") ||
		strings.Contains(ua, "iphone") ||
		strings.Contains(ua, "ipad")

	hasChrome := strings.Contains(ua, "chrome")
	hasBrowser := hasChrome ||
		strings.Contains(ua, "firefox") ||
		(strings.Contains(ua, "safari") && !hasChrome) ||
		strings.Contains(ua, "edg")

	if !hasOS {
		res.add(scoreUnknownOS, ReasonUnknownOS)
	}
	if !hasBrowser {
		res.add(scoreUnknownBrowser, ReasonUnknownBrowser)
	}

	return res
}
