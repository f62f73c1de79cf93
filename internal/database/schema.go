package database

import (
	"context"
	"database/sql"
)

// schemaDDL contains one idempotent CREATE TABLE statement per table.
// Order matters: referencing tables come after the tables they reference.
//
// The shifts table carries an open_flag sentinel column: it is 1 while the
// shift is open and set to NULL when the shift closes.  Together with the
// UNIQUE (operator_id, open_flag) key this lets the database itself refuse
// a second open shift for the same operator, instead of relying on a
// check-then-insert sequence that two concurrent requests could both pass.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS services (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		price DECIMAL(10,2) NOT NULL,
		description TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		phone VARCHAR(20) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL,
		role ENUM('operator','master','client') NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS master_services (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		master_id BIGINT UNSIGNED NOT NULL,
		service_id BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_master_service (master_id, service_id),
		CONSTRAINT fk_ms_master FOREIGN KEY (master_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_ms_service FOREIGN KEY (service_id) REFERENCES services (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS shifts (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		operator_id BIGINT UNSIGNED NOT NULL,
		opened_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		closed_at TIMESTAMP NULL DEFAULT NULL,
		status ENUM('open','closed') NOT NULL DEFAULT 'open',
		open_flag TINYINT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_operator_open (operator_id, open_flag),
		CONSTRAINT fk_shift_operator FOREIGN KEY (operator_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		shift_id BIGINT UNSIGNED NOT NULL,
		operator_id BIGINT UNSIGNED NOT NULL,
		amount DECIMAL(10,2) NOT NULL,
		transaction_type ENUM('payment','cancellation') NOT NULL,
		description TEXT,
		related_transaction_id BIGINT UNSIGNED NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_txn_shift FOREIGN KEY (shift_id) REFERENCES shifts (id) ON DELETE CASCADE,
		CONSTRAINT fk_txn_operator FOREIGN KEY (operator_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_txn_related FOREIGN KEY (related_transaction_id) REFERENCES transactions (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS shift_logs (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		shift_id BIGINT UNSIGNED NOT NULL,
		operator_id BIGINT UNSIGNED NOT NULL,
		action ENUM('opened','closed') NOT NULL,
		` + "`timestamp`" + ` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		details TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_log_shift FOREIGN KEY (shift_id) REFERENCES shifts (id) ON DELETE CASCADE,
		CONSTRAINT fk_log_operator FOREIGN KEY (operator_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS records (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		client VARCHAR(255) NOT NULL,
		car VARCHAR(255) NOT NULL,
		service VARCHAR(255) NOT NULL,
		price INT NOT NULL,
		date DATE NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		payment_amount INT NULL,
		comments TEXT,
		cancellation_reason TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// seedRecord mirrors the demonstration rows inserted on first boot.
type seedRecord struct {
	client, car, service string
	price                int
	date                 string
	status               string
	paymentAmount        *int
	comments             string
	cancellationReason   *string
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

var recordSeed = []seedRecord{
	{"Ivan Petrov", "Toyota Camry 2015", "Oil change", 3500, "2025-10-05", "completed", intPtr(3500), "Service completed successfully", nil},
	{"Alexey Smirnov", "Honda Civic 2018", "Brake pads replacement", 6200, "2025-10-06", "pending", nil, "", nil},
	{"Maria Ivanova", "Ford Focus 2017", "Engine diagnostics", 2000, "2025-10-07", "completed", intPtr(2000), "All systems checked", nil},
	{"Dmitry Orlov", "Nissan X-Trail 2020", "Air conditioner refill", 2800, "2025-10-08", "cancelled", nil, "", strPtr("Client cancelled the service")},
	{"Olga Sokolova", "Kia Rio 2019", "Tire replacement", 4500, "2025-10-09", "in_progress", nil, "Work in progress", nil},
}

// InitSchema creates all application tables if they do not yet exist and
// seeds the records table with demonstration data on first boot.  The DDL
// is idempotent so restarting the process against an initialized database
// is a no-op.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return seedRecords(ctx, db)
}

// seedRecords inserts the demonstration rows only when records is empty.
func seedRecords(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	const ins = `INSERT INTO records
		(client, car, service, price, date, status, payment_amount, comments, cancellation_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, r := range recordSeed {
		if _, err := db.ExecContext(ctx, ins,
			r.client, r.car, r.service, r.price, r.date, r.status,
			r.paymentAmount, r.comments, r.cancellationReason,
		); err != nil {
			return err
		}
	}
	return nil
}
