// Package reputation holds the thin adapters to the external reputation
// services. Each client converts a network response into the same
// score/reason shape the heuristic scorers produce, and degrades to a zero
// contribution on any failure: transport errors, timeouts, non-200 statuses
// and malformed payloads are swallowed at this boundary and never reach the
// pipeline.
package reputation

import (
	"net/http"

	"github.com/regfence-dev/regfence/internal/logger"
)

const userAgent = "regfence/1.0"

// HTTPDoer lets tests inject a transport. Production clients use a stdlib
// http.Client with a bounded timeout.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// logFailure reports a degraded lookup when diagnostics are enabled.
func logFailure(enabled bool, client string, err error) {
	if !enabled || err == nil {
		return
	}
	logger.Log.Warn("reputation lookup failed", "client", client, "error", err)
}
