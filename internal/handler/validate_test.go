package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regfence-dev/regfence/internal/config"
	"github.com/regfence-dev/regfence/internal/domain"
)

func TestValidateHandler(t *testing.T) {
	h := &Handler{cfg: &config.Config{}}
	route := "/v1/validate"

	t.Run("allowed attempt", func(t *testing.T) {
		var captured domain.ValidationRequest
		h.guard = &MockGuardService{
			MockValidate: func(ctx context.Context, req domain.ValidationRequest) *domain.ValidationResult {
				captured = req
				return domain.NewValidationResult()
			},
		}

		body := []byte(`{"email": "user@gmail.com", "username": "user", "website_url": "", "timing_token": "tok123"}`)
		req := createRequest(t, http.MethodPost, route, body)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Language", "en-US")
		rr := httptest.NewRecorder()

		h.Validate(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var result domain.ValidationResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.True(t, result.Valid)
		assert.False(t, result.Blocked)

		assert.Equal(t, "user@gmail.com", captured.Email)
		assert.Equal(t, "user", captured.Username)
		assert.Equal(t, "192.0.2.1", captured.IPAddress)
		assert.Equal(t, "tok123", captured.Form.TimingToken)
		assert.Equal(t, "Mozilla/5.0", captured.Form.UserAgent)
		assert.Equal(t, "application/json", captured.Form.Headers["accept"])
		assert.Equal(t, "en-US", captured.Form.Headers["accept-language"])
	})

	t.Run("honeypot field forwarded", func(t *testing.T) {
		var captured domain.ValidationRequest
		h.guard = &MockGuardService{
			MockValidate: func(ctx context.Context, req domain.ValidationRequest) *domain.ValidationResult {
				captured = req
				return domain.NewValidationResult()
			},
		}

		body := []byte(`{"email": "user@gmail.com", "website_url": "https://spam.example"}`)
		rr := httptest.NewRecorder()

		h.Validate(rr, createRequest(t, http.MethodPost, route, body))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "https://spam.example", captured.Form.Honeypot)
	})

	t.Run("blocked decision still returns 200", func(t *testing.T) {
		h.guard = &MockGuardService{
			MockValidate: func(ctx context.Context, req domain.ValidationRequest) *domain.ValidationResult {
				res := domain.NewValidationResult()
				res.Score = 100
				res.Block("blacklisted")
				return res
			},
		}

		body := []byte(`{"email": "spammer@gmail.com"}`)
		rr := httptest.NewRecorder()

		h.Validate(rr, createRequest(t, http.MethodPost, route, body))

		require.Equal(t, http.StatusOK, rr.Code)

		var result domain.ValidationResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.True(t, result.Blocked)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Reasons, "blacklisted")
	})

	t.Run("missing email", func(t *testing.T) {
		h.guard = &MockGuardService{}
		rr := httptest.NewRecorder()

		h.Validate(rr, createRequest(t, http.MethodPost, route, []byte(`{"username": "user"}`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		h.guard = &MockGuardService{}
		rr := httptest.NewRecorder()

		h.Validate(rr, createRequest(t, http.MethodPost, route, []byte(`{not json`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDecisionOutcome(t *testing.T) {
	allowed := domain.NewValidationResult()
	assert.Equal(t, "allowed", decisionOutcome(allowed))

	suspicious := domain.NewValidationResult()
	suspicious.Suspicious = true
	assert.Equal(t, "suspicious", decisionOutcome(suspicious))

	blocked := domain.NewValidationResult()
	blocked.Suspicious = true
	blocked.Block("blacklisted")
	assert.Equal(t, "blocked", decisionOutcome(blocked))
}
