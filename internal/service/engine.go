// Package service holds the registration decision engine: an ordered,
// short-circuiting pipeline that turns one registration attempt into a
// structured allow/block/suspicious decision.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/regfence-dev/regfence/internal/checks"
	"github.com/regfence-dev/regfence/internal/config"
	"github.com/regfence-dev/regfence/internal/domain"
	internal_errors "github.com/regfence-dev/regfence/internal/errors"
	"github.com/regfence-dev/regfence/internal/lists"
	"github.com/regfence-dev/regfence/internal/logger"
	"github.com/regfence-dev/regfence/internal/reputation"
)

const autoBanReason = "Automatic ban due to suspicious registration attempts"

// Short-circuit reason tags owned by the pipeline itself; scorer tags live
// in internal/checks.
const (
	ReasonBlacklisted = "blacklisted"
	ReasonIPBanned    = "ip_banned"
	ReasonRateLimited = "rate_limited"
)

// retentionMultiplier scales the rate-limit window into the attempt
// retention horizon.
const retentionMultiplier = 24

// auditRetentionDays bounds how long suspicious decisions are kept for
// admin review.
const auditRetentionDays = 90

type GuardService interface {
	Validate(ctx context.Context, req domain.ValidationRequest) *domain.ValidationResult
}

type GuardStorage interface {
	SaveAttempt(attempt domain.Attempt) error
	AttemptCount(ipAddress string, since time.Time) (int, error)
	ActiveBan(ipAddress string) (domain.Ban, error)
	CheckAndBan(ipAddress, reason string, threshold int, window, duration time.Duration) (bool, error)
	PruneAttempts(before time.Time) (int64, error)
	PruneBans(before time.Time) (int64, error)
	SaveAuditEntry(entry domain.AuditEntry) error
	PruneAuditLog(before time.Time) (int64, error)
}

type ReputationClient interface {
	Check(ctx context.Context, email string) checks.Result
}

type DisposableOracle interface {
	Check(ctx context.Context, email string) reputation.OracleResult
}

type AbuseRegistry interface {
	Check(ctx context.Context, email, ipAddress, username string) reputation.SfsResult
}

type Notifier interface {
	Send(recipientEmail, subject, body string) error
}

// Engine evaluates registration attempts. Local stages (lists, ban,
// rate limit, heuristics) never touch the network; reputation lookups run
// concurrently and only after every local short circuit has passed.
type Engine struct {
	cfg         *config.Guard
	lists       *lists.Checker
	pattern     *checks.PatternScorer
	disposable  *checks.DisposableChecker
	timingToken *checks.TimingToken
	emailRep    ReputationClient
	oracle      DisposableOracle
	registry    AbuseRegistry
	store       GuardStorage
	notifier    Notifier
	sanitizer   *bluemonday.Policy

	now func() time.Time
}

func NewEngine(cfg *config.Guard, listChecker *lists.Checker, pattern *checks.PatternScorer,
	disposable *checks.DisposableChecker, timingToken *checks.TimingToken,
	emailRep ReputationClient, oracle DisposableOracle, registry AbuseRegistry,
	store GuardStorage, notifier Notifier) *Engine {
	return &Engine{
		cfg:         cfg,
		lists:       listChecker,
		pattern:     pattern,
		disposable:  disposable,
		timingToken: timingToken,
		emailRep:    emailRep,
		oracle:      oracle,
		registry:    registry,
		store:       store,
		notifier:    notifier,
		sanitizer:   bluemonday.StrictPolicy(),
		now:         time.Now,
	}
}

// stageFn evaluates one pipeline stage. A non-nil result is terminal and
// returned to the caller as-is; nil means continue with the next stage.
type stageFn func(ctx context.Context, req domain.ValidationRequest, res *domain.ValidationResult) *domain.ValidationResult

// Validate runs the full decision pipeline for one registration attempt.
// Deterministic rejections come back as results, never as errors; internal
// failures degrade to zero-contribution signals.
func (e *Engine) Validate(ctx context.Context, req domain.ValidationRequest) *domain.ValidationResult {
	result := domain.NewValidationResult()

	if !e.cfg.Enabled {
		return result
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	stages := []stageFn{
		e.whitelistStage,
		e.blacklistStage,
		e.banStage,
		e.rateLimitStage,
		e.scoringStage,
	}
	for _, stage := range stages {
		if terminal := stage(ctx, req, result); terminal != nil {
			return terminal
		}
	}

	return e.finalize(req, result)
}

func (e *Engine) whitelistStage(_ context.Context, req domain.ValidationRequest, res *domain.ValidationResult) *domain.ValidationResult {
	if e.lists.IsWhitelisted(req.Email) {
		res.Details["whitelisted"] = true
		return res
	}
	return nil
}

func (e *Engine) blacklistStage(_ context.Context, req domain.ValidationRequest, res *domain.ValidationResult) *domain.ValidationResult {
	if e.lists.IsBlacklisted(req.Email) {
		res.Score = domain.MaxScore
		res.Block(ReasonBlacklisted)
		return res
	}
	return nil
}

func (e *Engine) banStage(_ context.Context, req domain.ValidationRequest, res *domain.ValidationResult) *domain.ValidationResult {
	if !e.cfg.AutoBanEnabled {
		return nil
	}
	ban, err := e.store.ActiveBan(req.IPAddress)
	if err != nil {
		if !internal_errors.IsNotFound(err) {
			logger.Log.Error("ban lookup failed", "ip", req.IPAddress, "error", err)
		}
		return nil
	}
	res.Block(ReasonIPBanned)
	res.Details["ban_time_remaining"] = int64(ban.ExpiresAt.Sub(e.now()).Seconds())
	return res
}

func (e *Engine) rateLimitStage(_ context.Context, req domain.ValidationRequest, res *domain.ValidationResult) *domain.ValidationResult {
	if !e.cfg.RateLimitEnabled {
		return nil
	}
	count, err := e.store.AttemptCount(req.IPAddress, e.now().Add(-e.cfg.RateLimitWindow()))
	if err != nil {
		logger.Log.Error("attempt count failed", "ip", req.IPAddress, "error", err)
		return nil
	}
	if count >= e.cfg.RateLimitMax {
		res.Score = domain.MaxScore
		res.Block(ReasonRateLimited)
		return res
	}
	return nil
}

// scoringStage accumulates every enabled heuristic and reputation signal.
// It never terminates the pipeline; the threshold verdict happens in
// finalize.
func (e *Engine) scoringStage(ctx context.Context, req domain.ValidationRequest, res *domain.ValidationResult) *domain.ValidationResult {
	rep := e.lookupReputation(ctx, req)

	providerAddress := e.isProviderAddress(req.Email)

	if providerAddress && e.cfg.PatternCheckEnabled {
		patternResult := e.pattern.Check(req.Email)
		res.Score += patternResult.Score
		res.Reasons = append(res.Reasons, patternResult.Reasons...)
		res.Details["pattern_check"] = patternResult
	}

	if providerAddress && rep.emailRep != nil {
		res.Score += rep.emailRep.Score
		res.Reasons = append(res.Reasons, rep.emailRep.Reasons...)
		res.Details["emailrep_check"] = rep.emailRep
	}

	if e.cfg.DisposableCheckEnabled {
		disposableResult := e.disposable.Check(req.Email)
		if disposableResult.IsDisposable {
			res.Score += disposableResult.Score
			res.Reasons = append(res.Reasons, checks.ReasonDisposableEmail)
			res.Details["disposable_check"] = disposableResult
		}

		if rep.oracle != nil && rep.oracle.IsDisposable {
			// Half weight to avoid double counting with the local checker
			res.Score += rep.oracle.Score / 2
			res.Reasons = append(res.Reasons, checks.ReasonDisposableEmailAPI)
		}
	}

	if rep.registry != nil && rep.registry.Spam {
		res.Score += rep.registry.Score
		res.Reasons = append(res.Reasons, rep.registry.Reasons...)
		res.Details["stopforumspam_check"] = rep.registry
	}

	if hasFormSignals(req.Form) {
		if e.cfg.HoneypotEnabled {
			honeypotResult := checks.CheckHoneypot(req.Form.Honeypot)
			if honeypotResult.IsBot {
				res.Score += honeypotResult.Score
				res.Reasons = append(res.Reasons, honeypotResult.Reasons...)
				res.Details["honeypot_check"] = honeypotResult
			}
		}

		if e.cfg.TimingCheckEnabled && req.Form.TimingToken != "" {
			renderedAt := e.timingToken.Decode(req.Form.TimingToken)
			if renderedAt > 0 {
				elapsed := e.now().Unix() - renderedAt
				timingResult := checks.CheckTiming(elapsed, e.cfg.MinFormTime, e.cfg.MaxFormTime)
				if timingResult.IsBot || timingResult.Score > 0 {
					res.Score += timingResult.Score
					res.Reasons = append(res.Reasons, timingResult.Reasons...)
					res.Details["timing_check"] = timingResult
				}
			}
		}

		if e.cfg.BrowserCheckEnabled {
			browserResult := checks.CheckBrowser(req.Form.UserAgent, req.Form.Headers)
			if browserResult.IsBot || browserResult.Score > 0 {
				res.Score += browserResult.Score
				res.Reasons = append(res.Reasons, browserResult.Reasons...)
				res.Details["browser_check"] = browserResult
			}
		}
	}

	if e.cfg.TimeRestrictionEnabled {
		timeResult := checks.CheckTimeOfDay(e.now().Hour(), e.cfg.AllowedStartHour, e.cfg.AllowedEndHour)
		if !timeResult.Allowed {
			res.Score += checks.ScoreOutsideAllowedHours
			res.Reasons = append(res.Reasons, timeResult.Reason)
			res.Details["time_restriction"] = timeResult
		}
	}

	return nil
}

// finalize applies the threshold, records the attempt, and schedules
// retention cleanup off the request path.
func (e *Engine) finalize(req domain.ValidationRequest, res *domain.ValidationResult) *domain.ValidationResult {
	suspicious := res.Score >= e.cfg.Threshold
	if suspicious {
		res.Suspicious = true
		res.RequiresVerification = true
		if e.cfg.Action == domain.ActionBlock {
			res.Blocked = true
			res.Valid = false
		}
	}

	e.recordAttempt(req, suspicious)
	if suspicious {
		e.autoBan(req.IPAddress)
		e.logSuspicious(req, res)
		e.audit(req, res)
		e.notify(req, res)
	}

	return res
}

func (e *Engine) recordAttempt(req domain.ValidationRequest, suspicious bool) {
	if !e.cfg.RateLimitEnabled {
		return
	}
	now := e.now()
	if err := e.store.SaveAttempt(domain.Attempt{
		IPAddress:  req.IPAddress,
		Email:      req.Email,
		Suspicious: suspicious,
		Timestamp:  now,
	}); err != nil {
		logger.Log.Error("failed to record attempt", "ip", req.IPAddress, "error", err)
		return
	}

	// retention cleanup runs after the decision, off the request path
	go func() {
		horizon := now.Add(-retentionMultiplier * e.cfg.RateLimitWindow())
		if _, err := e.store.PruneAttempts(horizon); err != nil {
			logger.Log.Error("attempt cleanup failed", "error", err)
		}
		if _, err := e.store.PruneBans(horizon); err != nil {
			logger.Log.Error("ban cleanup failed", "error", err)
		}
	}()
}

func (e *Engine) autoBan(ipAddress string) {
	if !e.cfg.AutoBanEnabled {
		return
	}
	banned, err := e.store.CheckAndBan(ipAddress, autoBanReason,
		e.cfg.AutoBanThreshold, e.cfg.AutoBanWindow(), e.cfg.BanDuration())
	if err != nil {
		logger.Log.Error("auto-ban check failed", "ip", ipAddress, "error", err)
		return
	}
	if banned {
		logger.Log.Warn("address auto-banned", "ip", ipAddress)
	}
}

func (e *Engine) logSuspicious(req domain.ValidationRequest, res *domain.ValidationResult) {
	if !e.cfg.LogSuspicious {
		return
	}
	logger.Log.Warn("suspicious registration attempt",
		"email", req.Email, "ip", req.IPAddress,
		"score", res.Score, "reasons", res.Reasons, "blocked", res.Blocked)
}

func (e *Engine) audit(req domain.ValidationRequest, res *domain.ValidationResult) {
	if !e.cfg.DBLog {
		return
	}
	entry := domain.AuditEntry{
		Id:        uuid.NewString(),
		Email:     req.Email,
		Score:     res.Score,
		Reasons:   res.Reasons,
		IPAddress: req.IPAddress,
		UserAgent: e.sanitizer.Sanitize(req.Form.UserAgent),
		Details:   map[string]any{"action": e.cfg.Action, "blocked": res.Blocked},
		Time:      e.now(),
	}
	if err := e.store.SaveAuditEntry(entry); err != nil {
		logger.Log.Error("failed to save audit entry", "error", err)
		return
	}

	go func() {
		horizon := entry.Time.AddDate(0, 0, -auditRetentionDays)
		if _, err := e.store.PruneAuditLog(horizon); err != nil {
			logger.Log.Error("audit log cleanup failed", "error", err)
		}
	}()
}

func (e *Engine) notify(req domain.ValidationRequest, res *domain.ValidationResult) {
	if e.cfg.Action != domain.ActionModerate || e.cfg.NotificationEmail == "" || e.notifier == nil {
		return
	}
	subject := "Suspicious registration attempt"
	body := fmt.Sprintf(
		"A registration attempt was flagged for review.\n\nEmail: %s\nAddress: %s\nScore: %d\nReasons: %s\n",
		req.Email, req.IPAddress, res.Score, strings.Join(res.Reasons, ", "))
	if err := e.notifier.Send(e.cfg.NotificationEmail, subject, body); err != nil {
		logger.Log.Error("failed to send notification", "error", err)
	}
}

// reputationResults holds the concurrent lookup outcomes. Nil pointers mean
// the lookup was disabled for this request.
type reputationResults struct {
	emailRep *checks.Result
	oracle   *reputation.OracleResult
	registry *reputation.SfsResult
}

func (e *Engine) lookupReputation(ctx context.Context, req domain.ValidationRequest) reputationResults {
	var (
		out reputationResults
		wg  sync.WaitGroup
	)

	if e.cfg.EmailRepEnabled && e.emailRep != nil && e.isProviderAddress(req.Email) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := e.emailRep.Check(ctx, req.Email)
			out.emailRep = &r
		}()
	}

	if e.cfg.DisposableCheckEnabled && e.cfg.DisposableAPIEnabled && e.oracle != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := e.oracle.Check(ctx, req.Email)
			out.oracle = &r
		}()
	}

	if e.cfg.SfsEnabled && e.registry != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := e.registry.Check(ctx, req.Email, req.IPAddress, req.Username)
			out.registry = &r
		}()
	}

	wg.Wait()
	return out
}

// isProviderAddress restricts pattern and email-reputation checks to the
// configured provider's addresses.
func (e *Engine) isProviderAddress(email string) bool {
	providerDomain := e.cfg.ProviderDomain
	if providerDomain == "" {
		providerDomain = "gmail.com"
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(providerDomain))
}

func hasFormSignals(form domain.FormSignals) bool {
	return form.Honeypot != "" || form.TimingToken != "" || form.UserAgent != "" || len(form.Headers) > 0
}
