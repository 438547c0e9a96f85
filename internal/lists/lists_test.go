package lists

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhitelist(t *testing.T) {
	c := New("Trusted@Example.com\n\nexample.org\n", "", true, true)

	t.Run("exact email match, case folded", func(t *testing.T) {
		assert.True(t, c.IsWhitelisted("trusted@example.com"))
		assert.True(t, c.IsWhitelisted("TRUSTED@EXAMPLE.COM"))
	})

	t.Run("domain match", func(t *testing.T) {
		assert.True(t, c.IsWhitelisted("anyone@example.org"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.False(t, c.IsWhitelisted("other@example.com"))
	})

	t.Run("email without at sign fails domain check", func(t *testing.T) {
		assert.False(t, c.IsWhitelisted("example.org"))
		assert.False(t, c.IsWhitelisted("not-an-email"))
	})
}

func TestBlacklist(t *testing.T) {
	c := New("", "spammer@example.com\nbad.example\n", true, true)

	assert.True(t, c.IsBlacklisted("spammer@example.com"))
	assert.True(t, c.IsBlacklisted("fresh@bad.example"))
	assert.False(t, c.IsBlacklisted("ok@example.com"))
}

func TestDisabledListsAlwaysMiss(t *testing.T) {
	c := New("trusted@example.com", "spammer@example.com", false, false)

	assert.False(t, c.IsWhitelisted("trusted@example.com"))
	assert.False(t, c.IsBlacklisted("spammer@example.com"))
}

func TestRuntimeMutation(t *testing.T) {
	c := New("", "", true, true)

	assert.True(t, c.Add(Blacklist, "Bad@Example.com"))
	assert.False(t, c.Add(Blacklist, "bad@example.com"), "duplicate add should report false")
	assert.True(t, c.IsBlacklisted("bad@example.com"))

	assert.Equal(t, []string{"bad@example.com"}, c.Entries(Blacklist))

	assert.True(t, c.Remove(Blacklist, "bad@example.com"))
	assert.False(t, c.Remove(Blacklist, "bad@example.com"))
	assert.False(t, c.IsBlacklisted("bad@example.com"))
}

func TestBlankAndWhitespaceLinesIgnored(t *testing.T) {
	c := New("  \n\n  a@b.c  \n", "", true, true)
	assert.True(t, c.IsWhitelisted("a@b.c"))
	assert.Equal(t, []string{"a@b.c"}, c.Entries(Whitelist))
}
