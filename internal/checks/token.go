package checks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HoneypotFieldName is the fixed decoy form field. Named to resemble a
// legitimate field so automated submitters fill it in.
const HoneypotFieldName = "website_url"

// TimingToken issues and decodes the opaque form-render timestamp tokens.
// Decoding is best-effort: anything malformed or tampered yields 0, which
// the timing check treats as "no signal".
type TimingToken struct {
	key []byte
}

func NewTimingToken(key string) *TimingToken {
	return &TimingToken{key: []byte(key)}
}

// Generate returns base64("unix|session|sig") for the given render time.
func (t *TimingToken) Generate(renderedAt time.Time, sessionID string) string {
	payload := fmt.Sprintf("%d|%s", renderedAt.Unix(), sessionID)
	return base64.StdEncoding.EncodeToString([]byte(payload + "|" + t.sign(payload)))
}

// Decode extracts the render timestamp (unix seconds). Returns 0 on any
// decode or signature failure.
func (t *TimingToken) Decode(token string) int64 {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0
	}

	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return 0
	}

	payload := parts[0] + "|" + parts[1]
	if !hmac.Equal([]byte(t.sign(payload)), []byte(parts[2])) {
		return 0
	}

	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || ts < 0 {
		return 0
	}
	return ts
}

func (t *TimingToken) sign(payload string) string {
	mac := hmac.New(sha256.New, t.key)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
