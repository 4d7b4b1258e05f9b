package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var PostgresDB *sql.DB

// ConnectPostgres opens the pool for inquiry and contact storage and makes
// sure its tables exist.
func ConnectPostgres(postgresURI string, logger *zap.Logger) error {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	logger.Info("connected to PostgreSQL")

	if err := InitPostgresTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	logger.Info("PostgreSQL tables initialized")

	PostgresDB = db
	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS booking_inquiries (
			id UUID PRIMARY KEY,
			reference VARCHAR(20) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(32) NOT NULL,
			package_id VARCHAR(64),
			package_title VARCHAR(255),
			travel_date DATE,
			adults INTEGER NOT NULL DEFAULT 1,
			children INTEGER NOT NULL DEFAULT 0,
			message TEXT,
			status VARCHAR(16) NOT NULL DEFAULT 'new',
			ip_address VARCHAR(255)
		)`,

		`CREATE TABLE IF NOT EXISTS contact_messages (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(32),
			subject VARCHAR(255),
			message TEXT NOT NULL,
			ip_address VARCHAR(255)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_booking_inquiries_created_at ON booking_inquiries(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_inquiries_status ON booking_inquiries(status)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_inquiries_email ON booking_inquiries(email)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_messages_created_at ON contact_messages(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_messages_email ON contact_messages(email)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
