package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'CUSTOMER',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME(3)     NOT NULL,
		revoked_at DATETIME(3)     NULL,
		created_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS shows (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id      BIGINT UNSIGNED NOT NULL,
		movie_title   VARCHAR(255)    NOT NULL,
		theater       VARCHAR(128)    NOT NULL,
		location      VARCHAR(255)    NOT NULL DEFAULT '',
		format        VARCHAR(8)      NOT NULL DEFAULT '2D',
		price_cents   BIGINT          NOT NULL,
		total_seats   INT             NOT NULL,
		seats_per_row INT             NOT NULL,
		starts_at     DATETIME(3)     NOT NULL,
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		seat_version  BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at    DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at    DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_shows_slot (theater, starts_at),
		KEY idx_shows_movie (movie_id),
		KEY idx_shows_starts (starts_at, is_active)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS show_seats (
		show_id     BIGINT UNSIGNED NOT NULL,
		row_label   VARCHAR(2)      NOT NULL,
		seat_number INT             NOT NULL,
		status      VARCHAR(8)      NOT NULL,
		booking_id  CHAR(36)        NOT NULL,
		updated_at  DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		PRIMARY KEY (show_id, row_label, seat_number),
		KEY idx_show_seats_booking (booking_id),
		CONSTRAINT fk_show_seats_show FOREIGN KEY (show_id) REFERENCES shows (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id          CHAR(36)        NOT NULL PRIMARY KEY,
		code        VARCHAR(32)     NOT NULL,
		user_id     BIGINT UNSIGNED NOT NULL,
		show_id     BIGINT UNSIGNED NOT NULL,
		movie_id    BIGINT UNSIGNED NOT NULL,
		movie_title VARCHAR(255)    NOT NULL,
		starts_at   DATETIME(3)     NOT NULL,
		seats       JSON            NOT NULL,
		email       VARCHAR(255)    NOT NULL,
		phone       VARCHAR(16)     NOT NULL,
		base_cents  BIGINT          NOT NULL,
		fee_cents   BIGINT          NOT NULL,
		tax_cents   BIGINT          NOT NULL,
		total_cents BIGINT          NOT NULL,
		status      VARCHAR(16)     NOT NULL,
		order_ref   VARCHAR(64)     NOT NULL DEFAULT '',
		payment_ref VARCHAR(64)     NULL,
		created_at  DATETIME(3)     NOT NULL,
		updated_at  DATETIME(3)     NOT NULL,
		UNIQUE KEY uq_bookings_code (code),
		KEY idx_bookings_user (user_id, created_at),
		KEY idx_bookings_status (status, created_at),
		KEY idx_bookings_show (show_id),
		CONSTRAINT fk_bookings_show FOREIGN KEY (show_id) REFERENCES shows (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the service needs.  Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
