package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/promptcraft/progress-engine/internal/domain/ledger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements ledger.Repository for PostgreSQL. The table is
// append-only: there is no update or delete path.
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

// Append stores one event and fills in its storage-assigned sequence number.
func (r *LedgerRepository) Append(ctx context.Context, event *ledger.ActivityEvent) error {
	return r.AppendTx(ctx, r.conn, event)
}

// AppendTx is Append against an explicit Querier, so the ledger write can
// join the submission transaction.
func (r *LedgerRepository) AppendTx(ctx context.Context, q Querier, event *ledger.ActivityEvent) error {
	err := q.QueryRow(ctx, `
		INSERT INTO activity_events (id, user_id, kind, subject_id, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`,
		event.ID,
		event.UserID,
		string(event.Kind),
		event.SubjectID,
		event.Payload,
		event.RecordedAt,
	).Scan(&event.Seq)
	if err != nil {
		return fmt.Errorf("failed to append activity event: %w", err)
	}

	return nil
}

// ListRecent returns the newest events for a user, newest first. Events with
// the same timestamp order by their sequence number.
func (r *LedgerRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*ledger.ActivityEvent, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT seq, id, user_id, kind, subject_id, payload, recorded_at
		FROM activity_events
		WHERE user_id = $1
		ORDER BY recorded_at DESC, seq DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	defer rows.Close()

	var events []*ledger.ActivityEvent
	for rows.Next() {
		var event ledger.ActivityEvent
		var kind string

		err := rows.Scan(
			&event.Seq,
			&event.ID,
			&event.UserID,
			&kind,
			&event.SubjectID,
			&event.Payload,
			&event.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}

		event.Kind = ledger.EventKind(kind)
		events = append(events, &event)
	}

	return events, rows.Err()
}

// ActivityDates returns the distinct UTC dates with streak-anchoring
// activity within the window. The qualifying kinds come from the domain so
// the filter cannot drift from CountsAsActivity.
func (r *LedgerRepository) ActivityDates(ctx context.Context, userID string, windowDays int) ([]time.Time, error) {
	kinds := make([]string, 0, len(ledger.StreakKinds()))
	for _, k := range ledger.StreakKinds() {
		kinds = append(kinds, string(k))
	}

	rows, err := r.conn.Query(ctx, `
		SELECT DISTINCT (recorded_at AT TIME ZONE 'UTC')::date
		FROM activity_events
		WHERE user_id = $1
			AND kind = ANY($2)
			AND recorded_at >= NOW() - ($3 || ' days')::interval
		ORDER BY 1
	`, userID, kinds, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan activity date: %w", err)
		}
		dates = append(dates, d.UTC())
	}

	return dates, rows.Err()
}

// Ensure interface is implemented
var _ ledger.Repository = (*LedgerRepository)(nil)
