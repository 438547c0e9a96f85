package reputation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopForumSpamCheck(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		username       string
		wantScore      int
		wantConfidence int
		wantReasons    []string
	}{
		{
			name:      "clean",
			body:      `{"success":1,"email":{"appears":0},"ip":{"appears":0}}`,
			wantScore: 0,
		},
		{
			name:           "email listed",
			body:           `{"success":1,"email":{"appears":1,"frequency":3},"ip":{"appears":0}}`,
			wantScore:      60,
			wantConfidence: 50,
			wantReasons:    []string{ReasonSfsEmailListed},
		},
		{
			name:           "email listed with high frequency bonus",
			body:           `{"success":1,"email":{"appears":1,"frequency":15},"ip":{"appears":0}}`,
			wantScore:      60 + 20,
			wantConfidence: 70,
			wantReasons:    []string{ReasonSfsEmailListed},
		},
		{
			name:           "ip listed with bonus",
			body:           `{"success":1,"email":{"appears":0},"ip":{"appears":1,"frequency":25}}`,
			wantScore:      40 + 15,
			wantConfidence: 85,
			wantReasons:    []string{ReasonSfsIPListed},
		},
		{
			name:           "everything listed",
			body:           `{"success":1,"email":{"appears":1,"frequency":40},"ip":{"appears":1,"frequency":30},"username":{"appears":1,"frequency":2}}`,
			username:       "spammer42",
			wantScore:      60 + 20 + 40 + 15 + 30,
			wantConfidence: 95,
			wantReasons:    []string{ReasonSfsEmailListed, ReasonSfsIPListed, ReasonSfsUsernameListed},
		},
		{
			name:      "username hit ignored when no username submitted",
			body:      `{"success":1,"email":{"appears":0},"ip":{"appears":0},"username":{"appears":1,"frequency":9}}`,
			wantScore: 0,
		},
		{
			name:      "unsuccessful response",
			body:      `{"success":0,"email":{"appears":1,"frequency":99}}`,
			wantScore: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "1", r.URL.Query().Get("json"))
				assert.Equal(t, "someone@example.com", r.URL.Query().Get("email"))
				assert.Equal(t, "203.0.113.7", r.URL.Query().Get("ip"))
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewStopForumSpam("", nil, false)
			client.SetBaseURLs(srv.URL, srv.URL)

			res := client.Check(context.Background(), "someone@example.com", "203.0.113.7", tc.username)
			assert.Equal(t, tc.wantScore, res.Score)
			assert.Equal(t, tc.wantConfidence, res.Confidence)
			assert.Equal(t, tc.wantReasons, res.Reasons)
			assert.Equal(t, tc.wantScore > 0, res.Spam)
		})
	}
}

func TestStopForumSpamCheckFailureYieldsZero(t *testing.T) {
	client := NewStopForumSpam("", nil, false)
	client.SetHTTPClient(failingDoer{})

	res := client.Check(context.Background(), "someone@example.com", "203.0.113.7", "")
	assert.False(t, res.Spam)
	assert.Zero(t, res.Score)
}

func TestStopForumSpamReport(t *testing.T) {
	t.Run("submits form fields", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "spammer42", r.PostForm.Get("username"))
			assert.Equal(t, "someone@example.com", r.PostForm.Get("email"))
			assert.Equal(t, "203.0.113.7", r.PostForm.Get("ip_addr"))
			assert.Equal(t, "key123", r.PostForm.Get("api_key"))
			assert.NotEmpty(t, r.PostForm.Get("evidence"))
		}))
		defer srv.Close()

		client := NewStopForumSpam("key123", nil, false)
		client.SetBaseURLs(srv.URL, srv.URL)

		assert.True(t, client.Report(context.Background(), "spammer42", "someone@example.com", "203.0.113.7", ""))
	})

	t.Run("requires api key", func(t *testing.T) {
		client := NewStopForumSpam("", nil, false)
		client.SetHTTPClient(failingDoer{})

		assert.False(t, client.Report(context.Background(), "u", "e@x.com", "203.0.113.7", "spam"))
	})

	t.Run("non-200 means failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client := NewStopForumSpam("key123", nil, false)
		client.SetBaseURLs(srv.URL, srv.URL)

		assert.False(t, client.Report(context.Background(), "u", "e@x.com", "203.0.113.7", "spam"))
	})
}
