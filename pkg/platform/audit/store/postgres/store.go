package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "curio/pkg/domain"
	audit "curio/pkg/platform/audit"
	txcontext "curio/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table in the same transaction as the
// state mutation they record, and shipped to Kafka by the outbox relay.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure shipped to Kafka.
type outboxPayload struct {
	ID           string `json:"id"`
	Category     string `json:"category"`
	Timestamp    string `json:"timestamp"`
	Asset        uint64 `json:"asset"`
	Actor        string `json:"actor,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`
	Action       string `json:"action"`
	Amount       uint64 `json:"amount,omitempty"`
	Token        string `json:"token,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
}

// Append writes a transition record to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	payload := outboxPayload{
		ID:           eventID.String(),
		Category:     string(category),
		Timestamp:    ts.Format(time.RFC3339Nano),
		Asset:        uint64(event.Asset),
		Actor:        event.Actor.String(),
		Counterparty: event.Counterparty.String(),
		Action:       event.Action,
		Amount:       event.Amount,
		Token:        event.Token,
		RequestID:    event.RequestID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	const q = `
		INSERT INTO audit_outbox (id, category, asset_id, actor, action, amount, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.execer(ctx).ExecContext(ctx, q,
		eventID, string(category), uint64(event.Asset), event.Actor.String(),
		event.Action, event.Amount, body, ts,
	); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByAsset returns the recorded transitions for one asset, oldest first.
func (s *Store) ListByAsset(ctx context.Context, assetID id.AssetID) ([]audit.Event, error) {
	const q = `
		SELECT category, asset_id, actor, action, amount, created_at
		FROM audit_outbox
		WHERE asset_id = $1
		ORDER BY created_at ASC`
	rows, err := s.execer(ctx).QueryContext(ctx, q, uint64(assetID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event audit.Event
			asset uint64
			actor string
		)
		if err := rows.Scan(&event.Category, &asset, &actor, &event.Action, &event.Amount, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Asset = id.AssetID(asset)
		event.Actor = id.AccountID(actor)
		events = append(events, event)
	}
	return events, rows.Err()
}
