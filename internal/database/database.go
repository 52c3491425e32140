package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// OpenDB creates and configures the primary connection pool for dsn.
// The DSN must carry parseTime=true so DATETIME columns scan into time.Time.
func OpenDB(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	// 1. Open a new connection pool.
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// 2. Configure the connection pool settings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 3. Ping the database to verify the connection.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool established")
	return db, nil
}

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		phone         VARCHAR(20)  NOT NULL DEFAULT '',
		address       JSON         NULL,
		role          VARCHAR(20)  NOT NULL DEFAULT 'customer',
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME     NOT NULL,
		updated_at    DATETIME     NOT NULL,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id                  BIGINT AUTO_INCREMENT PRIMARY KEY,
		name                VARCHAR(200)  NOT NULL,
		slug                VARCHAR(220)  NOT NULL,
		description         TEXT          NOT NULL,
		price               DECIMAL(12,2) NOT NULL,
		discount_price      DECIMAL(12,2) NULL,
		stock               INT           NOT NULL DEFAULT 0,
		low_stock_threshold INT           NOT NULL DEFAULT 10,
		category            VARCHAR(50)   NOT NULL,
		subcategory         VARCHAR(100)  NOT NULL,
		brand               VARCHAR(100)  NOT NULL,
		unit                VARCHAR(10)   NOT NULL,
		tags                JSON          NULL,
		is_active           BOOLEAN       NOT NULL DEFAULT TRUE,
		featured            BOOLEAN       NOT NULL DEFAULT FALSE,
		images              JSON          NULL,
		rating_average      DOUBLE        NOT NULL DEFAULT 0,
		rating_count        INT           NOT NULL DEFAULT 0,
		created_at          DATETIME      NOT NULL,
		updated_at          DATETIME      NOT NULL,
		KEY idx_products_active_created (is_active, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_number      VARCHAR(32)   NOT NULL,
		user_id           BIGINT        NOT NULL,
		total             DECIMAL(12,2) NOT NULL,
		shipping_address  JSON          NOT NULL,
		payment_method    VARCHAR(10)   NOT NULL,
		payment_status    VARCHAR(10)   NOT NULL,
		payment_intent_id VARCHAR(255)  NULL,
		order_notes       TEXT          NULL,
		status            VARCHAR(20)   NOT NULL,
		tracking_number   VARCHAR(100)  NOT NULL DEFAULT '',
		version           INT           NOT NULL DEFAULT 1,
		created_at        DATETIME      NOT NULL,
		updated_at        DATETIME      NOT NULL,
		UNIQUE KEY uq_orders_number (order_number),
		KEY idx_orders_user (user_id, created_at),
		KEY idx_orders_status (status),
		UNIQUE KEY uq_orders_intent (payment_intent_id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id   BIGINT        NOT NULL,
		position   INT           NOT NULL,
		product_id BIGINT        NOT NULL,
		name       VARCHAR(200)  NOT NULL,
		price      DECIMAL(12,2) NOT NULL,
		quantity   INT           NOT NULL,
		KEY idx_order_items_order (order_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS sequences (
		name  VARCHAR(64) PRIMARY KEY,
		value BIGINT      NOT NULL
	)`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
