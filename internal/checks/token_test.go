package checks

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingTokenRoundTrip(t *testing.T) {
	tok := NewTimingToken("secret")
	renderedAt := time.Unix(1700000000, 0)

	token := tok.Generate(renderedAt, "session-1")
	assert.Equal(t, renderedAt.Unix(), tok.Decode(token))
}

func TestTimingTokenDecodeFailures(t *testing.T) {
	tok := NewTimingToken("secret")

	assert.Zero(t, tok.Decode("not-base64!!!"))
	assert.Zero(t, tok.Decode(base64.StdEncoding.EncodeToString([]byte("garbage"))))
	assert.Zero(t, tok.Decode(base64.StdEncoding.EncodeToString([]byte("123|sess|badsig"))))
	assert.Zero(t, tok.Decode(""))
}

func TestTimingTokenTampered(t *testing.T) {
	tok := NewTimingToken("secret")
	other := NewTimingToken("other-key")

	token := tok.Generate(time.Unix(1700000000, 0), "sess")
	assert.Zero(t, other.Decode(token), "token signed with a different key must not decode")
}
