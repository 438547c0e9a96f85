package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/regfence-dev/regfence/internal/domain"
)

// =========================================================================
// Public Methods (satisfy the service.AttemptStorage interface)
// =========================================================================

// SaveAttempt records one registration attempt. Rows are append-only.
func (s *Storage) SaveAttempt(attempt domain.Attempt) error {
	return s.saveAttempt(s.db, attempt)
}

// AttemptCount returns the number of attempts from the address since the
// given instant. Used by the sliding-window rate limiter.
func (s *Storage) AttemptCount(ipAddress string, since time.Time) (int, error) {
	return s.attemptCount(s.db, ipAddress, since, false)
}

// PruneAttempts deletes attempts older than the given instant and returns
// the number of rows removed.
func (s *Storage) PruneAttempts(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM registration_attempts WHERE attempted_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", err)
	}
	return res.RowsAffected()
}

// CheckAndBan atomically counts the address's recent suspicious attempts
// and, if threshold or more occurred inside the window, issues (or extends)
// a ban. Concurrent attempts from the same address are serialized with a
// transaction-scoped advisory lock so two racing requests cannot both miss
// the threshold.
func (s *Storage) CheckAndBan(ipAddress, reason string, threshold int, window, duration time.Duration) (banned bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext($1))`, ipAddress); err != nil {
			return fmt.Errorf("failed to take address lock: %w", err)
		}

		count, err := s.attemptCount(tx, ipAddress, time.Now().UTC().Add(-window), true)
		if err != nil {
			return err
		}
		if count < threshold {
			return nil
		}

		if _, err := s.ban(tx, ipAddress, reason, duration); err != nil {
			return err
		}
		banned = true
		return nil
	})
	return banned, err
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) saveAttempt(q Querier, attempt domain.Attempt) error {
	ts := attempt.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := q.Exec(`
		INSERT INTO registration_attempts (ip_address, email, suspicious, attempted_at)
		VALUES ($1, $2, $3, $4)`,
		attempt.IPAddress, attempt.Email, attempt.Suspicious, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

func (s *Storage) attemptCount(q Querier, ipAddress string, since time.Time, suspiciousOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM registration_attempts WHERE ip_address = $1 AND attempted_at >= $2`
	if suspiciousOnly {
		query += ` AND suspicious`
	}

	var count int
	if err := q.QueryRow(query, ipAddress, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}
