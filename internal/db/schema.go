package db

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS operators (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(160) NOT NULL,
		email VARCHAR(190) NOT NULL,
		phone VARCHAR(40) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(160) NOT NULL,
		email VARCHAR(190) NOT NULL,
		phone VARCHAR(40) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(160) NOT NULL,
		email VARCHAR(190) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		role VARCHAR(16) NOT NULL,
		operator_id BIGINT NULL,
		customer_id BIGINT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		CONSTRAINT fk_users_operator FOREIGN KEY (operator_id) REFERENCES operators(id),
		CONSTRAINT fk_users_customer FOREIGN KEY (customer_id) REFERENCES customers(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		operator_id BIGINT NOT NULL,
		name VARCHAR(120) NOT NULL,
		description TEXT NULL,
		UNIQUE KEY uq_categories_name (operator_id, name),
		CONSTRAINT fk_categories_operator FOREIGN KEY (operator_id) REFERENCES operators(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tours (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		operator_id BIGINT NOT NULL,
		category_id BIGINT NULL,
		title VARCHAR(200) NOT NULL,
		description TEXT NULL,
		price BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		status VARCHAR(16) NOT NULL,
		published TINYINT(1) NOT NULL DEFAULT 0,
		cover_image_url VARCHAR(500) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_tours_operator (operator_id, status),
		CONSTRAINT fk_tours_operator FOREIGN KEY (operator_id) REFERENCES operators(id),
		CONSTRAINT fk_tours_category FOREIGN KEY (category_id) REFERENCES categories(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS spots (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		tour_id BIGINT NOT NULL,
		operator_id BIGINT NOT NULL,
		name VARCHAR(160) NOT NULL DEFAULT '',
		departure_date DATETIME NOT NULL,
		return_date DATETIME NULL,
		max_seats INT NOT NULL,
		booked_seats INT NOT NULL DEFAULT 0,
		price_override BIGINT NULL,
		status VARCHAR(16) NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_spots_tour (tour_id, departure_date),
		KEY idx_spots_status (status, departure_date),
		CONSTRAINT chk_spots_seats CHECK (booked_seats >= 0 AND booked_seats <= max_seats),
		CONSTRAINT fk_spots_tour FOREIGN KEY (tour_id) REFERENCES tours(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		booking_number VARCHAR(20) NOT NULL,
		spot_id BIGINT NOT NULL,
		tour_id BIGINT NOT NULL,
		operator_id BIGINT NOT NULL,
		customer_id BIGINT NOT NULL,
		seats INT NOT NULL,
		total_amount BIGINT NOT NULL,
		paid_amount BIGINT NOT NULL DEFAULT 0,
		refunded_amount BIGINT NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL,
		status VARCHAR(16) NOT NULL,
		special_requests TEXT NULL,
		cancel_reason VARCHAR(255) NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_bookings_number (booking_number),
		KEY idx_bookings_operator (operator_id, status),
		KEY idx_bookings_customer (customer_id),
		KEY idx_bookings_spot (spot_id, status),
		CONSTRAINT chk_bookings_paid CHECK (paid_amount >= 0 AND paid_amount <= total_amount),
		CONSTRAINT fk_bookings_spot FOREIGN KEY (spot_id) REFERENCES spots(id),
		CONSTRAINT fk_bookings_customer FOREIGN KEY (customer_id) REFERENCES customers(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		booking_id BIGINT NOT NULL,
		operator_id BIGINT NOT NULL,
		customer_id BIGINT NOT NULL,
		amount BIGINT NOT NULL,
		refunded_amount BIGINT NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL,
		method VARCHAR(20) NOT NULL,
		gateway_txn_id VARCHAR(120) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL,
		failure_reason VARCHAR(255) NOT NULL DEFAULT '',
		refund_reason VARCHAR(255) NOT NULL DEFAULT '',
		completed_at DATETIME NULL,
		refunded_at DATETIME NULL,
		version BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_payments_booking (booking_id, status),
		KEY idx_payments_operator (operator_id, status),
		CONSTRAINT fk_payments_booking FOREIGN KEY (booking_id) REFERENCES bookings(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS travelers (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		booking_id BIGINT NOT NULL,
		full_name VARCHAR(160) NOT NULL,
		passport_number VARCHAR(40) NOT NULL DEFAULT '',
		nationality VARCHAR(80) NOT NULL DEFAULT '',
		date_of_birth DATE NULL,
		email VARCHAR(190) NOT NULL DEFAULT '',
		phone VARCHAR(40) NOT NULL DEFAULT '',
		medical_notes TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_travelers_booking (booking_id),
		CONSTRAINT fk_travelers_booking FOREIGN KEY (booking_id) REFERENCES bookings(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates missing tables. Existing tables are left untouched.
func Migrate(ctx context.Context, conn DBTX) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping is used by the db-check endpoint.
func Ping(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return fmt.Errorf("database not connected")
	}
	return conn.PingContext(ctx)
}
