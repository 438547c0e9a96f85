package domain

import "time"

// Action modes applied once the suspicion threshold is crossed.
const (
	ActionBlock    = "block"
	ActionVerify   = "verify"
	ActionModerate = "moderate"
)

// MaxScore is the sentinel assigned to short-circuit rejections
// (blacklist, rate limit). Accumulated scores are unbounded.
const MaxScore = 100

// FormSignals carries the ancillary form fields used by the anti-bot checks.
// All fields are optional; missing signals simply contribute nothing.
type FormSignals struct {
	Honeypot    string
	TimingToken string
	UserAgent   string
	Headers     map[string]string
}

// ValidationRequest is the immutable input of one registration attempt.
type ValidationRequest struct {
	Email     string
	IPAddress string
	Username  string
	Form      FormSignals
}

// ValidationResult is the decision returned to the caller.
type ValidationResult struct {
	Valid                bool           `json:"valid"`
	Blocked              bool           `json:"blocked"`
	Suspicious           bool           `json:"suspicious"`
	Score                int            `json:"score"`
	Reasons              []string       `json:"reasons"`
	RequiresVerification bool           `json:"requires_verification"`
	Details              map[string]any `json:"details,omitempty"`
}

// NewValidationResult returns the default "allow" result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:   true,
		Reasons: []string{},
		Details: make(map[string]any),
	}
}

// Block marks the result as a hard rejection. blocked implies !valid.
func (r *ValidationResult) Block(reason string) {
	r.Blocked = true
	r.Valid = false
	r.Reasons = append(r.Reasons, reason)
}

// Attempt is one recorded registration attempt. Rows are append-only and
// removed only by retention cleanup.
type Attempt struct {
	IPAddress  string
	Email      string
	Suspicious bool
	Timestamp  time.Time
}

// Ban is a temporary address ban. At most one active row exists per address;
// re-banning an actively banned address extends ExpiresAt and bumps BanCount.
type Ban struct {
	IPAddress string
	BannedAt  time.Time
	ExpiresAt time.Time
	BanCount  int
	Reason    string
}

// Active reports whether the ban is still in effect at the given instant.
func (b Ban) Active(now time.Time) bool {
	return b.ExpiresAt.After(now)
}

// AuditEntry is one persisted suspicious decision, kept for admin review.
type AuditEntry struct {
	Id        string
	Email     string
	Score     int
	Reasons   []string
	IPAddress string
	UserAgent string
	Details   map[string]any
	Time      time.Time
}
