package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the registry's full DDL. Statements are idempotent so Migrate
// can run on every boot.
const Schema = `
CREATE TABLE IF NOT EXISTS assets (
    id        BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    holder    TEXT        NOT NULL,
    seed      TEXT        NOT NULL,
    edition   SMALLINT    NOT NULL,
    hue       INT         NOT NULL,
    luminous  BOOLEAN     NOT NULL,
    minted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS assets_holder_idx ON assets (holder);

CREATE TABLE IF NOT EXISTS mint_requests (
    token      UUID PRIMARY KEY,
    payer      TEXT        NOT NULL,
    payment    BIGINT      NOT NULL,
    fulfilled  BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS mint_requests_pending_idx
    ON mint_requests (created_at) WHERE NOT fulfilled;

CREATE TABLE IF NOT EXISTS mint_params (
    singleton    BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    minting_cost BIGINT NOT NULL,
    max_supply   BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS listings (
    asset_id  BIGINT PRIMARY KEY REFERENCES assets (id),
    seller    TEXT        NOT NULL,
    price     BIGINT      NOT NULL,
    listed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS auctions (
    asset_id       BIGINT PRIMARY KEY REFERENCES assets (id),
    seller         TEXT        NOT NULL,
    started_at     TIMESTAMPTZ NOT NULL,
    ends_at        TIMESTAMPTZ NOT NULL,
    highest_bid    BIGINT      NOT NULL DEFAULT 0,
    highest_bidder TEXT        NOT NULL DEFAULT '',
    finalized      BOOLEAN     NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS auction_refunds (
    asset_id BIGINT NOT NULL,
    account  TEXT   NOT NULL,
    amount   BIGINT NOT NULL,
    PRIMARY KEY (asset_id, account)
);

CREATE TABLE IF NOT EXISTS balances (
    account TEXT PRIMARY KEY,
    amount  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS payout_journal (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    account    TEXT        NOT NULL,
    amount     BIGINT      NOT NULL,
    reason     TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_outbox (
    id         UUID PRIMARY KEY,
    category   TEXT        NOT NULL,
    asset_id   BIGINT      NOT NULL,
    actor      TEXT        NOT NULL,
    action     TEXT        NOT NULL,
    amount     BIGINT      NOT NULL,
    payload    JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_outbox_asset_idx ON audit_outbox (asset_id, created_at);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
