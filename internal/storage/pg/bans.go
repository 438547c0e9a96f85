package pg

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/regfence-dev/regfence/internal/domain"
	internal_errors "github.com/regfence-dev/regfence/internal/errors"
)

// =========================================================================
// Public Methods (satisfy the service.BanStorage interface)
// =========================================================================

// ActiveBan returns the address's ban if one is currently in effect.
// Returns a 404-flavored error when the address is not banned.
func (s *Storage) ActiveBan(ipAddress string) (domain.Ban, error) {
	return s.activeBan(s.db, ipAddress)
}

// Ban issues a ban for the address. An address with an active ban gets its
// expiry reset to now+duration and its ban count incremented; an expired or
// absent row is replaced with a fresh single-count ban.
func (s *Storage) Ban(ipAddress, reason string, duration time.Duration) (domain.Ban, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var ban domain.Ban
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		ban, err = s.ban(tx, ipAddress, reason, duration)
		return err
	})
	return ban, err
}

// Unban lifts the address's ban. Missing rows are not an error.
func (s *Storage) Unban(ipAddress string) error {
	_, err := s.db.Exec(`DELETE FROM ip_bans WHERE ip_address = $1`, ipAddress)
	if err != nil {
		return fmt.Errorf("failed to unban address: %w", err)
	}
	return nil
}

// Bans lists bans for admin display, most recent first. With activeOnly set,
// expired rows are filtered out.
func (s *Storage) Bans(activeOnly bool) ([]domain.Ban, error) {
	query := `
		SELECT ip_address, banned_at, expires_at, ban_count, reason
		FROM ip_bans`
	args := []interface{}{}
	if activeOnly {
		query += ` WHERE expires_at > $1`
		args = append(args, time.Now().UTC())
	}
	query += ` ORDER BY banned_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bans: %w", err)
	}
	defer rows.Close()

	var bans []domain.Ban
	for rows.Next() {
		var b domain.Ban
		if err := rows.Scan(&b.IPAddress, &b.BannedAt, &b.ExpiresAt, &b.BanCount, &b.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}
		bans = append(bans, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bans: %w", err)
	}
	return bans, nil
}

// PruneBans deletes ban rows that expired before the given instant and
// returns the number of rows removed. Live bans are never touched.
func (s *Storage) PruneBans(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM ip_bans WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune bans: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned bans: %w", err)
	}
	return deleted, nil
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) activeBan(q Querier, ipAddress string) (domain.Ban, error) {
	var b domain.Ban
	err := q.QueryRow(`
		SELECT ip_address, banned_at, expires_at, ban_count, reason
		FROM ip_bans
		WHERE ip_address = $1 AND expires_at > $2`,
		ipAddress, time.Now().UTC(),
	).Scan(&b.IPAddress, &b.BannedAt, &b.ExpiresAt, &b.BanCount, &b.Reason)
	if err == sql.ErrNoRows {
		return b, &internal_errors.ErrorWithStatusCode{
			Message:    "Address is not banned",
			StatusCode: http.StatusNotFound,
		}
	}
	if err != nil {
		return b, fmt.Errorf("failed to query active ban: %w", err)
	}
	return b, nil
}

func (s *Storage) ban(q Querier, ipAddress, reason string, duration time.Duration) (domain.Ban, error) {
	now := time.Now().UTC()

	var b domain.Ban
	err := q.QueryRow(`
		INSERT INTO ip_bans (ip_address, banned_at, expires_at, ban_count, reason)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (ip_address) DO UPDATE SET
			banned_at = CASE WHEN ip_bans.expires_at > $2 THEN ip_bans.banned_at ELSE $2 END,
			expires_at = $3,
			ban_count = CASE WHEN ip_bans.expires_at > $2 THEN ip_bans.ban_count + 1 ELSE 1 END,
			reason = $4
		RETURNING ip_address, banned_at, expires_at, ban_count, reason`,
		ipAddress, now, now.Add(duration), reason,
	).Scan(&b.IPAddress, &b.BannedAt, &b.ExpiresAt, &b.BanCount, &b.Reason)
	if err != nil {
		return b, fmt.Errorf("failed to ban address: %w", err)
	}
	return b, nil
}
