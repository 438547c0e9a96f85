package handler

import (
	"net/http"

	"github.com/regfence-dev/regfence/internal/domain"
	"github.com/regfence-dev/regfence/internal/middleware/metrics"
	"github.com/regfence-dev/regfence/internal/utils"
)

// validationBody mirrors the registration form fields the caller forwards.
// "website_url" is the decoy field rendered alongside the real form; humans
// leave it empty.
type validationBody struct {
	Email       string `validate:"required" json:"email"`
	Username    string `json:"username"`
	Honeypot    string `json:"website_url"`
	TimingToken string `json:"timing_token"`
}

// Validate handles POST /v1/validate
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var body validationBody
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	ip, err := utils.GetIP(r)
	if err != nil {
		http.Error(w, "Cannot determine client address", http.StatusBadRequest)
		return
	}

	req := domain.ValidationRequest{
		Email:     body.Email,
		IPAddress: ip,
		Username:  body.Username,
		Form: domain.FormSignals{
			Honeypot:    body.Honeypot,
			TimingToken: body.TimingToken,
			UserAgent:   r.UserAgent(),
			Headers: map[string]string{
				"accept":          r.Header.Get("Accept"),
				"accept-language": r.Header.Get("Accept-Language"),
			},
		},
	}

	result := h.guard.Validate(r.Context(), req)
	metrics.RecordDecision(decisionOutcome(result))

	writeJSON(w, result)
}

func decisionOutcome(res *domain.ValidationResult) string {
	switch {
	case res.Blocked:
		return "blocked"
	case res.Suspicious:
		return "suspicious"
	default:
		return "allowed"
	}
}
