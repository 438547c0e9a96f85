package service

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/regfence-dev/regfence/internal/config"
	"github.com/regfence-dev/regfence/internal/domain"
	internal_errors "github.com/regfence-dev/regfence/internal/errors"
	jwt_internal "github.com/regfence-dev/regfence/internal/jwt"
	"github.com/regfence-dev/regfence/internal/lists"
	"github.com/regfence-dev/regfence/internal/logger"
)

type AdminService interface {
	Login(password string) (string, error)

	Bans(activeOnly bool) ([]domain.Ban, error)
	Ban(ipAddress, reason string, duration time.Duration) (domain.Ban, error)
	Unban(ipAddress string) error
	BanInfo(ipAddress string) (domain.Ban, error)

	ListEntries(list lists.ListType) ([]string, error)
	AddListEntry(list lists.ListType, entry string) error
	RemoveListEntry(list lists.ListType, entry string) error

	AuditEntries(limit, offset int) ([]domain.AuditEntry, error)
	Report(ctx context.Context, username, email, ipAddress, evidence string) error
}

type AdminStorage interface {
	Bans(activeOnly bool) ([]domain.Ban, error)
	Ban(ipAddress, reason string, duration time.Duration) (domain.Ban, error)
	Unban(ipAddress string) error
	ActiveBan(ipAddress string) (domain.Ban, error)
	AuditEntries(limit, offset int) ([]domain.AuditEntry, error)
}

type Reporter interface {
	Report(ctx context.Context, username, email, ipAddress, evidence string) bool
}

type Admin struct {
	storage  AdminStorage
	lists    *lists.Checker
	reporter Reporter
	jwt      jwt_internal.JwtService
	cfg      *config.Guard

	passwordHash string
}

func NewAdmin(storage AdminStorage, listChecker *lists.Checker, reporter Reporter,
	jwt jwt_internal.JwtService, cfg *config.Guard, passwordHash string) *Admin {
	return &Admin{
		storage:      storage,
		lists:        listChecker,
		reporter:     reporter,
		jwt:          jwt,
		cfg:          cfg,
		passwordHash: passwordHash,
	}
}

// Login checks the operator password against the configured bcrypt hash and
// issues a session token.
func (a *Admin) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Wrong password", StatusCode: http.StatusUnauthorized}
	}
	token, err := a.jwt.NewToken("admin")
	if err != nil {
		return "", err
	}
	logger.Log.Info("admin logged in")
	return token, nil
}

func (a *Admin) Bans(activeOnly bool) ([]domain.Ban, error) {
	return a.storage.Bans(activeOnly)
}

func (a *Admin) Ban(ipAddress, reason string, duration time.Duration) (domain.Ban, error) {
	if duration <= 0 {
		duration = a.cfg.BanDuration()
	}
	if reason == "" {
		reason = "Manual ban"
	}
	return a.storage.Ban(ipAddress, reason, duration)
}

func (a *Admin) Unban(ipAddress string) error {
	return a.storage.Unban(ipAddress)
}

func (a *Admin) BanInfo(ipAddress string) (domain.Ban, error) {
	return a.storage.ActiveBan(ipAddress)
}

func validListType(list lists.ListType) error {
	if list != lists.Whitelist && list != lists.Blacklist {
		return &internal_errors.ErrorWithStatusCode{Message: "Unknown list", StatusCode: http.StatusNotFound}
	}
	return nil
}

func (a *Admin) ListEntries(list lists.ListType) ([]string, error) {
	if err := validListType(list); err != nil {
		return nil, err
	}
	return a.lists.Entries(list), nil
}

func (a *Admin) AddListEntry(list lists.ListType, entry string) error {
	if err := validListType(list); err != nil {
		return err
	}
	if !a.lists.Add(list, entry) {
		return &internal_errors.ErrorWithStatusCode{Message: "Entry already present or empty", StatusCode: http.StatusBadRequest}
	}
	return nil
}

func (a *Admin) RemoveListEntry(list lists.ListType, entry string) error {
	if err := validListType(list); err != nil {
		return err
	}
	if !a.lists.Remove(list, entry) {
		return &internal_errors.ErrorWithStatusCode{Message: "Entry not found", StatusCode: http.StatusNotFound}
	}
	return nil
}

func (a *Admin) AuditEntries(limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return a.storage.AuditEntries(limit, offset)
}

// Report forwards a confirmed spammer to the abuse registry.
func (a *Admin) Report(ctx context.Context, username, email, ipAddress, evidence string) error {
	if a.reporter == nil {
		return &internal_errors.ErrorWithStatusCode{Message: "Reporting is not configured", StatusCode: http.StatusServiceUnavailable}
	}
	if !a.reporter.Report(ctx, username, email, ipAddress, evidence) {
		return &internal_errors.ErrorWithStatusCode{Message: "Report rejected by registry", StatusCode: http.StatusBadGateway}
	}
	logger.Log.Info("reported spammer to registry", "email", email, "ip", ipAddress)
	return nil
}
