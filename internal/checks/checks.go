// Package checks contains the side-effect-free heuristic scorers.
//
// Every scorer is pure given its inputs and configuration: it performs no
// I/O, reads no clocks, and returns a non-negative score contribution plus
// reason tags. The pipeline in internal/service owns sequencing and
// aggregation.
package checks

// Reason tags emitted by the scorers. The pipeline concatenates them into
// ValidationResult.Reasons in evaluation order.
const (
	ReasonConsecutiveNumbers = "many_consecutive_numbers"
	ReasonRandomSequence     = "random_character_sequence"
	ReasonExcessiveDots      = "excessive_dots"
	ReasonVeryShortAddress   = "very_short_address"
	ReasonRepeatingPattern   = "repeating_pattern"
	ReasonSpamKeyword        = "spam_keyword"

	ReasonDisposableEmail    = "disposable_email"
	ReasonDisposableEmailAPI = "disposable_email_api"

	ReasonHoneypotFilled = "honeypot_filled"

	ReasonFormTooFast          = "form_too_fast"
	ReasonFormSuspiciouslyFast = "form_suspiciously_fast"
	ReasonFormTooSlow          = "form_too_slow"

	ReasonNoUserAgent         = "no_user_agent"
	ReasonBotUserAgent        = "bot_user_agent"
	ReasonHeadlessBrowser     = "headless_browser"
	ReasonMissingHeaders      = "missing_headers"
	ReasonGenericAcceptHeader = "generic_accept_header"
	ReasonUnknownOS           = "unknown_os"
	ReasonUnknownBrowser      = "unknown_browser"

	ReasonOutsideAllowedHours = "outside_allowed_hours"
)

// Result is the common score/reason shape shared by scorers and reputation
// clients. IsBot marks certain-bot conditions; score still accumulates from
// non-certain contributions alongside it.
type Result struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
	IsBot   bool     `json:"is_bot,omitempty"`
}

func (r *Result) add(score int, reason string) {
	r.Score += score
	r.Reasons = append(r.Reasons, reason)
}

func (r *Result) addBot(score int, reason string) {
	r.IsBot = true
	r.add(score, reason)
}
