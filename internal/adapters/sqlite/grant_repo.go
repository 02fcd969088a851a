// Package sqlite implements the secondary storage ports over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/ports/secondary"
)

// GrantRepository implements secondary.GrantStore over a single grants
// table. Conditional creation and claim-by-delete both lean on SQLite
// serializing writers: the check and the write are one statement, so
// concurrent callers cannot interleave between them.
type GrantRepository struct {
	db *sql.DB
}

var _ secondary.GrantStore = (*GrantRepository)(nil)

// NewGrantRepository creates a repository on the given database.
func NewGrantRepository(db *sql.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// Insert persists the record unless an active grant already exists for
// the same (kind, subject, key). The existence check and the insert
// are a single statement.
func (r *GrantRepository) Insert(ctx context.Context, rec *grant.Record) (bool, error) {
	payload, err := encodePayload(rec.Payload)
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO grants (kind, subject_id, grant_key, granted_at, expires_at, payload)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM grants WHERE kind = ? AND subject_id = ? AND grant_key = ?
		)`,
		rec.Kind, rec.SubjectID, rec.Key, rec.GrantedAt.Unix(), expiryArg(rec.ExpiresAt), payload,
		rec.Kind, rec.SubjectID, rec.Key,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert grant: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

// Append persists the record unconditionally.
func (r *GrantRepository) Append(ctx context.Context, rec *grant.Record) error {
	payload, err := encodePayload(rec.Payload)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO grants (kind, subject_id, grant_key, granted_at, expires_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Kind, rec.SubjectID, rec.Key, rec.GrantedAt.Unix(), expiryArg(rec.ExpiresAt), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append grant: %w", err)
	}
	return nil
}

// ClaimExpired deletes every due grant of the kind and returns the
// deleted rows. DELETE ... RETURNING makes the claim atomic: a row is
// returned to exactly one caller.
func (r *GrantRepository) ClaimExpired(ctx context.Context, kind string, now time.Time) ([]grant.Claimed, error) {
	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM grants
		WHERE kind = ? AND expires_at IS NOT NULL AND expires_at <= ?
		RETURNING subject_id, grant_key, payload`,
		kind, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim expired grants: %w", err)
	}
	return scanClaimed(rows)
}

// DeleteBySubject deletes every grant of the kind held by the subject
// and returns the deleted rows.
func (r *GrantRepository) DeleteBySubject(ctx context.Context, kind, subjectID string) ([]grant.Claimed, error) {
	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM grants
		WHERE kind = ? AND subject_id = ?
		RETURNING subject_id, grant_key, payload`,
		kind, subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete grants: %w", err)
	}
	return scanClaimed(rows)
}

// DeleteOldest deletes the subject's oldest grant of the kind.
func (r *GrantRepository) DeleteOldest(ctx context.Context, kind, subjectID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM grants WHERE id = (
			SELECT id FROM grants
			WHERE kind = ? AND subject_id = ?
			ORDER BY granted_at ASC, id ASC
			LIMIT 1
		)`,
		kind, subjectID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete oldest grant: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

// CountBySubject counts the subject's grants of the kind.
func (r *GrantRepository) CountBySubject(ctx context.Context, kind, subjectID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM grants WHERE kind = ? AND subject_id = ?`,
		kind, subjectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count grants: %w", err)
	}
	return count, nil
}

// OldestGrantedAt returns when the subject's oldest grant of the kind
// was created.
func (r *GrantRepository) OldestGrantedAt(ctx context.Context, kind, subjectID string) (time.Time, bool, error) {
	var grantedAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT granted_at FROM grants
		WHERE kind = ? AND subject_id = ?
		ORDER BY granted_at ASC, id ASC
		LIMIT 1`,
		kind, subjectID,
	).Scan(&grantedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to look up oldest grant: %w", err)
	}
	return time.Unix(grantedAt, 0).UTC(), true, nil
}

// ActiveCounts returns per-kind grant totals.
func (r *GrantRepository) ActiveCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM grants GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count active grants: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan grant count: %w", err)
		}
		counts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grant counts: %w", err)
	}
	return counts, nil
}

func encodePayload(p grant.Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode grant payload: %w", err)
	}
	return string(data), nil
}

func scanClaimed(rows *sql.Rows) ([]grant.Claimed, error) {
	defer rows.Close()

	var claimed []grant.Claimed
	for rows.Next() {
		var c grant.Claimed
		var payload string
		if err := rows.Scan(&c.SubjectID, &c.Key, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan claimed grant: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &c.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode grant payload: %w", err)
		}
		claimed = append(claimed, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read claimed grants: %w", err)
	}
	return claimed, nil
}

// expiryArg converts an optional expiry into a nullable column value.
func expiryArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
