package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ds124wfegd/hotel-booking/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	// Read migration files and execute them
	// This is a simplified version - you might want to use a proper migration tool
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS hotels (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			status INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS room_types (
			id SERIAL PRIMARY KEY,
			hotel_id INTEGER REFERENCES hotels(id),
			type VARCHAR(100) NOT NULL,
			availability BOOLEAN NOT NULL DEFAULT true,
			max_guests INTEGER NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS rooms (
			id SERIAL PRIMARY KEY,
			type_id INTEGER REFERENCES room_types(id),
			name VARCHAR(100) NOT NULL,
			status INTEGER NOT NULL DEFAULT 1,
			estimated_available_time TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS room_prices (
			id SERIAL PRIMARY KEY,
			type_id INTEGER UNIQUE REFERENCES room_types(id),
			basic_price BIGINT NOT NULL,
			special_price BIGINT,
			event VARCHAR(255),
			start_date DATE,
			end_date DATE,
			discount DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'customer',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			room_id INTEGER REFERENCES rooms(id),
			check_in_date DATE NOT NULL,
			check_out_date DATE NOT NULL,
			people INTEGER NOT NULL,
			total_price BIGINT NOT NULL,
			status VARCHAR(20) DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id SERIAL PRIMARY KEY,
			booking_id INTEGER REFERENCES bookings(id),
			amount BIGINT NOT NULL,
			payment_method VARCHAR(50) NOT NULL,
			status VARCHAR(20) DEFAULT 'pending',
			vnp_txn_ref VARCHAR(100) UNIQUE NOT NULL,
			vnp_order_info VARCHAR(255),
			vnp_response_code VARCHAR(10),
			vnp_transaction_no VARCHAR(100),
			vnp_bank_code VARCHAR(50),
			vnp_pay_date VARCHAR(20),
			payment_url TEXT,
			ip_address VARCHAR(50),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS room_logs (
			id SERIAL PRIMARY KEY,
			room_id INTEGER REFERENCES rooms(id),
			event_type VARCHAR(50) NOT NULL,
			extra_context TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_rooms_type_id ON rooms(type_id)`,
		`CREATE INDEX IF NOT EXISTS idx_room_types_hotel_id ON room_types(hotel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_room_id ON bookings(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_room_dates ON bookings(room_id, check_in_date, check_out_date)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_booking_id ON payments(booking_id)`,
		// Не больше одного живого платежа на бронь: страхует проверку
		// сервисного слоя от гонки двух одновременных выпусков.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_booking_active
			ON payments(booking_id)
			WHERE status IN ('pending', 'processing', 'completed')`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status_updated ON payments(status, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_room_logs_room_id ON room_logs(room_id, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
