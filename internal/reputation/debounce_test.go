package reputation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisposableOracleCheck(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantScore  int
		wantFlag   bool
		wantSource string
	}{
		{
			name:       "disposable as string",
			body:       `{"disposable":"true"}`,
			wantScore:  85,
			wantFlag:   true,
			wantSource: "debounce_api",
		},
		{
			name:       "disposable as bool",
			body:       `{"disposable":true}`,
			wantScore:  85,
			wantFlag:   true,
			wantSource: "debounce_api",
		},
		{
			name: "clean domain",
			body: `{"disposable":"false"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "tempmail.net", r.URL.Query().Get("email"))
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewDisposableOracle(nil, false)
			client.SetBaseURL(srv.URL)

			res := client.Check(context.Background(), "user@tempmail.net")
			assert.Equal(t, tc.wantFlag, res.IsDisposable)
			assert.Equal(t, tc.wantScore, res.Score)
			assert.Equal(t, tc.wantSource, res.Source)
		})
	}
}

func TestDisposableOracleCheckNoDomain(t *testing.T) {
	client := NewDisposableOracle(nil, false)
	client.SetHTTPClient(failingDoer{})

	assert.Zero(t, client.Check(context.Background(), "not-an-email"))
	assert.Zero(t, client.Check(context.Background(), "trailing@"))
}

func TestDisposableOracleCheckFailureYieldsZero(t *testing.T) {
	client := NewDisposableOracle(nil, false)
	client.SetHTTPClient(failingDoer{})

	res := client.Check(context.Background(), "user@tempmail.net")
	assert.False(t, res.IsDisposable)
	assert.Zero(t, res.Score)
}
