package database

import (
	"context"
	"database/sql"
)

// schema creates the tickets table.  Two details carry the concurrency
// guarantees and must not be altered casually:
//
//   - active_coupon is a stored generated column equal to coupon_id while the
//     ticket is active and NULL otherwise.  The unique index on it lets the
//     database itself enforce "at most one active ticket per coupon", so no
//     check-then-insert race is possible at the application layer.
//   - version backs the conditional UPDATE used for every status transition.
const schema = `
CREATE TABLE IF NOT EXISTS tickets (
    id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    coupon_id     VARCHAR(64)  NOT NULL,
    owner_id      VARCHAR(64)  NOT NULL,
    merchant_id   VARCHAR(64)  NOT NULL,
    ticket_hash   VARBINARY(32) NOT NULL,
    nonce         BIGINT UNSIGNED NOT NULL,
    status        ENUM('active','consumed','expired','cancelled') NOT NULL DEFAULT 'active',
    issued_at     DATETIME(3) NOT NULL,
    expires_at    DATETIME(3) NOT NULL,
    consumed_at   DATETIME(3) NULL,
    latitude      DOUBLE NULL,
    longitude     DOUBLE NULL,
    address       VARCHAR(255) NULL,
    version       INT UNSIGNED NOT NULL DEFAULT 0,
    active_coupon VARCHAR(64) GENERATED ALWAYS AS
                  (IF(status = 'active', coupon_id, NULL)) STORED,
    PRIMARY KEY (id),
    UNIQUE KEY uniq_active_coupon (active_coupon),
    KEY idx_owner_status (owner_id, status, issued_at),
    KEY idx_merchant_status (merchant_id, status, issued_at),
    KEY idx_status_expires (status, expires_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// Migrate applies the schema.  It is idempotent and safe to run at every
// startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
