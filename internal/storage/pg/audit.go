package pg

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/regfence-dev/regfence/internal/domain"
)

// SaveAuditEntry persists one suspicious decision for admin review.
func (s *Storage) SaveAuditEntry(entry domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err = s.db.Exec(`
		INSERT INTO audit_log (id, email, score, reasons, ip_address, user_agent, details, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.Id, entry.Email, entry.Score, pq.Array(entry.Reasons),
		entry.IPAddress, entry.UserAgent, details, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}
	return nil
}

// AuditEntries pages through the audit log, most recent first.
func (s *Storage) AuditEntries(limit, offset int) ([]domain.AuditEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, email, score, reasons, ip_address, user_agent, details, logged_at
		FROM audit_log
		ORDER BY logged_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var details []byte
		if err := rows.Scan(&e.Id, &e.Email, &e.Score, pq.Array(&e.Reasons),
			&e.IPAddress, &e.UserAgent, &details, &e.Time); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log: %w", err)
	}
	return entries, nil
}

// PruneAuditLog deletes audit entries older than the given instant.
func (s *Storage) PruneAuditLog(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM audit_log WHERE logged_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit log: %w", err)
	}
	return res.RowsAffected()
}
