package migrations

import (
	"database/sql"
	"fmt"
	"github.com/rs/zerolog"
	"os"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// retryDelay is the pause between attempts at one table.
var retryDelay = 1 * time.Second

type table struct {
	name  string
	query string
}

// tables are created in order; order_items and the catalog child tables reference their parents.
var tables = []table{
	{name: "products", query: `
		CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			type VARCHAR(100) NOT NULL,
			price DECIMAL(10,2) NOT NULL DEFAULT 0,
			description TEXT NOT NULL,
			image VARCHAR(255) NULL,
			featured TINYINT(1) NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX products_status_featured_idx (status, featured)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{name: "product_variants", query: `
		CREATE TABLE IF NOT EXISTS product_variants (
			id INT AUTO_INCREMENT PRIMARY KEY,
			product_id INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			stock_quantity INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX product_variants_product_idx (product_id),
			FOREIGN KEY (product_id) REFERENCES products(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{name: "product_images", query: `
		CREATE TABLE IF NOT EXISTS product_images (
			id INT AUTO_INCREMENT PRIMARY KEY,
			product_id INT NOT NULL,
			image_path VARCHAR(255) NOT NULL,
			sort_order INT NOT NULL DEFAULT 0,
			is_primary TINYINT(1) NOT NULL DEFAULT 0,
			INDEX product_images_product_idx (product_id),
			FOREIGN KEY (product_id) REFERENCES products(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{name: "customers", query: `
		CREATE TABLE IF NOT EXISTS customers (
			id INT AUTO_INCREMENT PRIMARY KEY,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(50) NOT NULL DEFAULT '',
			address TEXT NULL,
			password_hash VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE INDEX customers_email_idx (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{name: "orders", query: `
		CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_number VARCHAR(32) NOT NULL,
			customer_id INT NULL,
			customer_first_name VARCHAR(100) NOT NULL,
			customer_last_name VARCHAR(100) NOT NULL DEFAULT '',
			customer_email VARCHAR(255) NOT NULL DEFAULT '',
			customer_phone VARCHAR(50) NOT NULL DEFAULT '',
			delivery_address TEXT NULL,
			delivery_date DATE NOT NULL,
			delivery_time VARCHAR(50) NOT NULL,
			delivery_method VARCHAR(20) NOT NULL,
			subtotal DECIMAL(10,2) NOT NULL,
			delivery_fee DECIMAL(10,2) NOT NULL DEFAULT 0,
			total_amount DECIMAL(10,2) NOT NULL,
			payment_status VARCHAR(50) NOT NULL DEFAULT 'pending',
			order_status VARCHAR(50) NOT NULL DEFAULT 'pending',
			special_instructions TEXT NULL,
			idempotency_key VARCHAR(255) NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE INDEX orders_order_number_idx (order_number),
			UNIQUE INDEX orders_idempotency_key_idx (idempotency_key),
			INDEX orders_customer_idx (customer_id),
			INDEX orders_customer_email_idx (customer_email),
			INDEX orders_created_at_idx (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{name: "order_items", query: `
		CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			product_id INT NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			product_type VARCHAR(100) NOT NULL DEFAULT '',
			variant_name VARCHAR(255) NOT NULL DEFAULT '',
			quantity INT NOT NULL,
			unit_price DECIMAL(10,2) NOT NULL,
			total_price DECIMAL(10,2) NOT NULL,
			is_custom TINYINT(1) NOT NULL DEFAULT 0,
			custom_details JSON NULL,
			INDEX order_items_order_idx (order_id),
			FOREIGN KEY (order_id) REFERENCES orders(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
}

// AutoMigrate creates every storefront table that does not exist yet. Each table gets
// retries extra attempts before the whole migration fails.
func AutoMigrate(retries int, db *sql.DB) error {
	for _, t := range tables {
		if err := createTable(retries, db, t); err != nil {
			return err
		}
	}
	return nil
}

func createTable(retries int, db *sql.DB, t table) error {
	_, err := db.Exec(t.query)
	if err == nil {
		return nil
	}

	// Retry creating the table
	for i := 0; i < retries; i++ {
		logger.Warn().Err(err).Msgf("Retry %d: creating table %s", i+1, t.name)
		time.Sleep(retryDelay)
		_, err = db.Exec(t.query)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("migrate %s: %w", t.name, err)
}
