package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	// Registers the pq driver for the audit trail's database/sql connection.
	_ "github.com/lib/pq"

	"github.com/google/uuid"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
)

// PostgresStore appends audit events to the audit_events table.
// The trail uses database/sql rather than the application store's pgx pool:
// audit writes are simple inserts and gain nothing from pgx, and a separate
// connection keeps trail pressure away from the transactional pool.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens a dedicated database/sql connection for the trail.
func OpenPostgres(url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit db: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgres wraps an existing connection.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var detail []byte
	if event.Detail != nil {
		b, err := json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
		detail = b
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			event_id, application_id, action, actor, actor_role,
			from_status, to_status, detail, request_id, occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		event.EventID.String(), event.ApplicationID.String(), string(event.Action),
		event.Actor, event.ActorRole.String(),
		event.FromStatus.String(), event.ToStatus.String(),
		detail, event.RequestID, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, id domain.ApplicationID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, application_id, action, actor, actor_role,
		       from_status, to_status, detail, request_id, occurred_at
		FROM audit_events
		WHERE application_id = $1
		ORDER BY occurred_at, id
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e          Event
			eventID    string
			appID      string
			action     string
			role       string
			fromStatus string
			toStatus   string
			detail     []byte
		)
		if err := rows.Scan(&eventID, &appID, &action, &e.Actor, &role,
			&fromStatus, &toStatus, &detail, &e.RequestID, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.EventID, err = uuid.Parse(eventID)
		if err != nil {
			return nil, fmt.Errorf("stored audit event id: %w", err)
		}
		parsedApp, err := domain.ParseApplicationID(appID)
		if err != nil {
			return nil, fmt.Errorf("stored audit application id: %w", err)
		}
		e.ApplicationID = parsedApp
		e.Action = Action(action)
		e.ActorRole = domain.Role(role)
		e.FromStatus = domain.LoanStatus(fromStatus)
		e.ToStatus = domain.LoanStatus(toStatus)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the underlying connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
