package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS inventory (
		id VARCHAR(191) NOT NULL PRIMARY KEY,
		sku VARCHAR(191) NOT NULL,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(32) NOT NULL,
		subcategory VARCHAR(32) NULL,
		unit VARCHAR(32) NOT NULL,
		weight_grams INT NULL,
		price BIGINT NOT NULL,
		image TEXT NOT NULL,
		tags JSON NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS customers (
		phone VARCHAR(10) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		password_salt VARCHAR(64) NOT NULL,
		access_hash VARCHAR(64) NULL,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		created_at DATETIME(3) NOT NULL,
		status VARCHAR(32) NOT NULL,
		type VARCHAR(32) NOT NULL,
		plan VARCHAR(255) NULL,
		delivery_slot VARCHAR(255) NULL,
		service_area VARCHAR(255) NULL,
		customer_name VARCHAR(255) NULL,
		phone VARCHAR(10) NULL,
		address TEXT NULL,
		payment_method VARCHAR(16) NULL,
		total BIGINT NULL,
		location_lat DOUBLE NULL,
		location_lng DOUBLE NULL,
		order_access_hash VARCHAR(64) NULL,
		INDEX idx_orders_phone (phone),
		INDEX idx_orders_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		order_id VARCHAR(64) NOT NULL,
		item_id VARCHAR(191) NOT NULL,
		name VARCHAR(255) NOT NULL,
		qty INT NOT NULL,
		price BIGINT NOT NULL,
		total BIGINT NOT NULL,
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// column is a column added after the first release of its table.
type column struct {
	Table      string
	Name       string
	Definition string
}

// evolvedColumns are re-checked on every start so databases created by
// older builds pick them up.
var evolvedColumns = []column{
	{"orders", "location_lat", "DOUBLE NULL"},
	{"orders", "location_lng", "DOUBLE NULL"},
	{"orders", "customer_name", "VARCHAR(255) NULL"},
	{"orders", "order_access_hash", "VARCHAR(64) NULL"},
	{"customers", "name", "VARCHAR(255) NOT NULL DEFAULT ''"},
	{"customers", "access_hash", "VARCHAR(64) NULL"},
	{"inventory", "tags", "JSON NULL"},
	{"inventory", "sku", "VARCHAR(191) NOT NULL DEFAULT ''"},
	{"inventory", "subcategory", "VARCHAR(32) NULL"},
	{"inventory", "weight_grams", "INT NULL"},
}

const columnExistsQuery = `
	SELECT COUNT(*)
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`

// Migrate creates the four tables when absent and adds any evolved column
// that is missing. Running it repeatedly changes nothing.
func Migrate(ctx context.Context, db *sql.DB) error {
	// 1. --- Base Tables ---
	for _, stmt := range createTables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "create table")
		}
	}

	// 2. --- Evolved Columns ---
	for _, col := range evolvedColumns {
		var count int
		if err := db.QueryRowContext(ctx, columnExistsQuery, col.Table, col.Name).Scan(&count); err != nil {
			return errors.Wrapf(err, "inspect %s.%s", col.Table, col.Name)
		}
		if count > 0 {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", col.Table, col.Name, col.Definition)
		if _, err := db.ExecContext(ctx, alter); err != nil {
			return errors.Wrapf(err, "add column %s.%s", col.Table, col.Name)
		}
	}

	return nil
}
