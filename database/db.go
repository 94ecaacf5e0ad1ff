package database

import (
	"database/sql"
	"fmt"

	"booking-svc/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func InitDB(cfg config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	createTableQuery := `
	CREATE TABLE IF NOT EXISTS rooms (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) UNIQUE NOT NULL,
		type VARCHAR(50) NOT NULL,
		price BIGINT NOT NULL,
		price_usd BIGINT NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		features TEXT[] NOT NULL DEFAULT '{}',
		image VARCHAR(255) NOT NULL DEFAULT '',
		rating VARCHAR(10) NOT NULL DEFAULT '4.7',
		max_guests INTEGER NOT NULL DEFAULT 2,
		total_rooms INTEGER NOT NULL DEFAULT 5,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id SERIAL PRIMARY KEY,
		booking_code VARCHAR(50) UNIQUE NOT NULL,
		room_id INTEGER NOT NULL REFERENCES rooms(id),
		guest_name VARCHAR(255) NOT NULL,
		guest_email VARCHAR(255) NOT NULL,
		guest_phone VARCHAR(50) NOT NULL,
		check_in TIMESTAMPTZ NOT NULL,
		check_out TIMESTAMPTZ NOT NULL,
		nights INTEGER NOT NULL,
		guests INTEGER NOT NULL DEFAULT 1,
		total_price BIGINT NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		notes TEXT NOT NULL DEFAULT '',
		wa_notif_sent BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS payments (
		id SERIAL PRIMARY KEY,
		booking_id INTEGER UNIQUE NOT NULL REFERENCES bookings(id),
		midtrans_order_id VARCHAR(100) UNIQUE NOT NULL,
		amount BIGINT NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		payment_type VARCHAR(100),
		snap_token VARCHAR(255),
		midtrans_response JSONB,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(createTableQuery); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("Database connection established")
	return db, nil
}
