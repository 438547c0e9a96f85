package pg

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regfence-dev/regfence/internal/domain"
	internal_errors "github.com/regfence-dev/regfence/internal/errors"
)

func TestIntegrationAttemptWindowCounting(t *testing.T) {
	requireIntegration(t)

	ip := "198.51.100.10"
	now := time.Now().UTC()

	for i, suspicious := range []bool{true, false, true} {
		require.NoError(t, storage.SaveAttempt(domain.Attempt{
			IPAddress:  ip,
			Email:      "user@gmail.com",
			Suspicious: suspicious,
			Timestamp:  now.Add(-time.Duration(i) * time.Minute),
		}))
	}
	// outside any reasonable window
	require.NoError(t, storage.SaveAttempt(domain.Attempt{
		IPAddress: ip,
		Email:     "user@gmail.com",
		Timestamp: now.Add(-48 * time.Hour),
	}))

	count, err := storage.AttemptCount(ip, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	removed, err := storage.PruneAttempts(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))
}

func TestIntegrationCheckAndBan(t *testing.T) {
	requireIntegration(t)

	ip := "198.51.100.11"
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		require.NoError(t, storage.SaveAttempt(domain.Attempt{
			IPAddress:  ip,
			Email:      "user@gmail.com",
			Suspicious: true,
			Timestamp:  now.Add(-time.Duration(i) * time.Minute),
		}))
	}

	banned, err := storage.CheckAndBan(ip, "too_many_suspicious_attempts", 3, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, banned)

	ban, err := storage.ActiveBan(ip)
	require.NoError(t, err)
	assert.Equal(t, 1, ban.BanCount)

	// a second trip extends the ban
	banned, err = storage.CheckAndBan(ip, "too_many_suspicious_attempts", 3, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, banned)

	extended, err := storage.ActiveBan(ip)
	require.NoError(t, err)
	assert.Equal(t, 2, extended.BanCount)
	assert.True(t, extended.ExpiresAt.After(ban.ExpiresAt))
	assert.Equal(t, ban.BannedAt.Unix(), extended.BannedAt.Unix())
}

// Concurrent record+check sequences for one address must not under-count:
// each goroutine commits its attempt before checking, and the checks are
// serialized per address, so the last check to take the lock observes every
// row and the ban must exist once all goroutines finish. A second address
// runs the same load concurrently to show it is not serialized behind the
// first address's lock.
func TestIntegrationConcurrentCheckAndBan(t *testing.T) {
	requireIntegration(t)

	const workers = 8

	hotIP := "198.51.100.20"
	quietIP := "198.51.100.21"
	now := time.Now().UTC()

	var (
		wg       sync.WaitGroup
		tripped  int32
		failures = make(chan error, workers*2)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := storage.SaveAttempt(domain.Attempt{
				IPAddress:  hotIP,
				Email:      "user@gmail.com",
				Suspicious: true,
				Timestamp:  now,
			}); err != nil {
				failures <- err
				return
			}
			banned, err := storage.CheckAndBan(hotIP, "too_many_suspicious_attempts", workers, time.Hour, 24*time.Hour)
			if err != nil {
				failures <- err
				return
			}
			if banned {
				atomic.AddInt32(&tripped, 1)
			}
		}()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := storage.SaveAttempt(domain.Attempt{
				IPAddress:  quietIP,
				Email:      "other@gmail.com",
				Suspicious: true,
				Timestamp:  now,
			}); err != nil {
				failures <- err
				return
			}
			banned, err := storage.CheckAndBan(quietIP, "too_many_suspicious_attempts", workers+1, time.Hour, 24*time.Hour)
			if err != nil {
				failures <- err
				return
			}
			if banned {
				failures <- errors.New("address below threshold was banned")
			}
		}()
	}

	wg.Wait()
	close(failures)
	for err := range failures {
		require.NoError(t, err)
	}

	require.GreaterOrEqual(t, atomic.LoadInt32(&tripped), int32(1))

	ban, err := storage.ActiveBan(hotIP)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ban.BanCount, 1)
	assert.LessOrEqual(t, ban.BanCount, workers)
	// every tripping check issues exactly one ban or extension
	assert.Equal(t, int(atomic.LoadInt32(&tripped)), ban.BanCount)

	_, err = storage.ActiveBan(quietIP)
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestIntegrationBanLifecycle(t *testing.T) {
	requireIntegration(t)

	ip := "198.51.100.12"

	_, err := storage.ActiveBan(ip)
	assert.True(t, internal_errors.IsNotFound(err))

	ban, err := storage.Ban(ip, "manual_ban", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, ban.BanCount)

	bans, err := storage.Bans(true)
	require.NoError(t, err)
	found := false
	for _, b := range bans {
		if b.IPAddress == ip {
			found = true
		}
	}
	assert.True(t, found)

	require.NoError(t, storage.Unban(ip))
	_, err = storage.ActiveBan(ip)
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestIntegrationExpiredBanResets(t *testing.T) {
	requireIntegration(t)

	ip := "198.51.100.13"

	first, err := storage.Ban(ip, "manual_ban", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, first.BanCount)

	_, err = storage.ActiveBan(ip)
	assert.True(t, internal_errors.IsNotFound(err))

	// banning again after expiry starts a fresh count
	fresh, err := storage.Ban(ip, "manual_ban", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.BanCount)
}

func TestIntegrationPruneBans(t *testing.T) {
	requireIntegration(t)

	expired := "198.51.100.15"
	live := "198.51.100.16"

	_, err := storage.Ban(expired, "manual_ban", -time.Minute)
	require.NoError(t, err)
	_, err = storage.Ban(live, "manual_ban", time.Hour)
	require.NoError(t, err)

	removed, err := storage.PruneBans(time.Now().UTC())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	_, err = storage.ActiveBan(live)
	assert.NoError(t, err)
}

func TestIntegrationAuditLog(t *testing.T) {
	requireIntegration(t)

	entry := domain.AuditEntry{
		Id:        uuid.NewString(),
		Email:     "suspicious@gmail.com",
		Score:     85,
		Reasons:   []string{"disposable_email", "honeypot_filled"},
		IPAddress: "198.51.100.14",
		UserAgent: "curl/8.0",
		Details:   map[string]any{"action": "block"},
		Time:      time.Now().UTC(),
	}
	require.NoError(t, storage.SaveAuditEntry(entry))

	entries, err := storage.AuditEntries(10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var got *domain.AuditEntry
	for i := range entries {
		if entries[i].Id == entry.Id {
			got = &entries[i]
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, entry.Email, got.Email)
	assert.Equal(t, entry.Score, got.Score)
	assert.Equal(t, entry.Reasons, got.Reasons)
	assert.Equal(t, "block", got.Details["action"])
}
