package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/regfence-dev/regfence/internal/checks"
)

type formTokenResponse struct {
	TimingToken   string `json:"timing_token"`
	HoneypotField string `json:"honeypot_field"`
}

// FormToken handles GET /v1/form_token
//
// The caller embeds the returned token in its registration form and posts it
// back with /v1/validate, which lets the timing check measure how long the
// form was on screen.
func (h *Handler) FormToken(w http.ResponseWriter, r *http.Request) {
	token := h.timingToken.Generate(time.Now(), uuid.NewString())

	writeJSON(w, formTokenResponse{
		TimingToken:   token,
		HoneypotField: checks.HoneypotFieldName,
	})
}
