package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/regfence-dev/regfence/internal/lists"
	"github.com/regfence-dev/regfence/internal/utils"
)

type credentials struct {
	Password string `validate:"required" json:"password"`
}

// Login handles POST /v1/admin/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := utils.DecodeValidate(r.Body, &creds); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	accessToken, err := h.admin.Login(creds.Password)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	cookie := &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    accessToken,
		MaxAge:   int(h.cfg.JwtTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
	}
	http.SetCookie(w, cookie)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("You logged in"))
}

// Logout handles POST /v1/admin/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie := &http.Cookie{
		Path:     "/",
		Name:     "accessToken",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
	}
	http.SetCookie(w, cookie)

	w.WriteHeader(http.StatusOK)
}

// Bans handles GET /v1/admin/bans
//
// ?active=true restricts the listing to bans still in effect.
func (h *Handler) Bans(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	bans, err := h.admin.Bans(activeOnly)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, bans)
}

type banRequest struct {
	IPAddress     string `validate:"required" json:"ip_address"`
	Reason        string `json:"reason"`
	DurationHours int    `json:"duration_hours"`
}

// CreateBan handles POST /v1/admin/bans
func (h *Handler) CreateBan(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	ban, err := h.admin.Ban(req.IPAddress, req.Reason, time.Duration(req.DurationHours)*time.Hour)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ban)
}

// GetBan handles GET /v1/admin/bans/{ip}
func (h *Handler) GetBan(w http.ResponseWriter, r *http.Request) {
	ban, err := h.admin.BanInfo(chi.URLParam(r, "ip"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, ban)
}

// DeleteBan handles DELETE /v1/admin/bans/{ip}
func (h *Handler) DeleteBan(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Unban(chi.URLParam(r, "ip")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ban lifted"))
}

// ListEntries handles GET /v1/admin/lists/{list}
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.admin.ListEntries(lists.ListType(chi.URLParam(r, "list")))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, entries)
}

type listEntryRequest struct {
	Entry string `validate:"required" json:"entry"`
}

// AddListEntry handles POST /v1/admin/lists/{list}
func (h *Handler) AddListEntry(w http.ResponseWriter, r *http.Request) {
	var req listEntryRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.admin.AddListEntry(lists.ListType(chi.URLParam(r, "list")), req.Entry); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("Entry added"))
}

// RemoveListEntry handles DELETE /v1/admin/lists/{list}/{entry}
func (h *Handler) RemoveListEntry(w http.ResponseWriter, r *http.Request) {
	list := lists.ListType(chi.URLParam(r, "list"))
	if err := h.admin.RemoveListEntry(list, chi.URLParam(r, "entry")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Entry removed"))
}

// Audit handles GET /v1/admin/audit
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.admin.AuditEntries(limit, offset)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, entries)
}

type reportRequest struct {
	Email     string `validate:"required" json:"email"`
	IPAddress string `validate:"required" json:"ip_address"`
	Username  string `json:"username"`
	Evidence  string `json:"evidence"`
}

// Report handles POST /v1/admin/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.admin.Report(r.Context(), req.Username, req.Email, req.IPAddress, req.Evidence); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Report submitted"))
}

// parseIntQuery returns the integer query parameter or def when the
// parameter is absent or malformed.
func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
