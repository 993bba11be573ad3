package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"padaria/internal/config"

	"github.com/go-sql-driver/mysql"
)

const transitionsSchema = `
CREATE TABLE IF NOT EXISTS OrderStatusTransitions (
	id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	orderRemoteId VARCHAR(64) NOT NULL,
	orderId BIGINT NOT NULL,
	bakeryId VARCHAR(64) NOT NULL,
	fromStatus VARCHAR(20) NOT NULL,
	toStatus VARCHAR(20) NOT NULL,
	changedAt DATETIME(3) NOT NULL,
	INDEX idx_order_remote (orderRemoteId)
)`

// NewConnection opens the audit database and waits for it to answer a ping.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := Open(DSN(cfg))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Migrate creates the audit table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, transitionsSchema); err != nil {
		return fmt.Errorf("creating OrderStatusTransitions: %w", err)
	}
	return nil
}

func DSN(cfg config.DatabaseConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	c.DBName = cfg.Name
	c.ParseTime = true
	return c.FormatDSN()
}
