package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Siizas/tcg/internal/config"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and bootstraps the schema.
func Init(cfg config.Postgres) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name,
	)

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureUsersTable()
	ensureListingsTable()
	ensureCollectionsTable()
	ensureTransactionsTable()
}

// ensureUsersTable creates the users table if missing
func ensureUsersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            seller_rating NUMERIC(3,2) NOT NULL DEFAULT 0,
            total_sales INTEGER NOT NULL DEFAULT 0,
            is_verified_seller BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            last_login TIMESTAMP WITH TIME ZONE NULL
        )`)
	if err != nil {
		log.Printf("failed to create users table: %v", err)
	}
}

// ensureListingsTable creates the listings table and the partial unique
// index that forbids two active listings for the same cert by one seller.
func ensureListingsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS listings (
            id UUID PRIMARY KEY,
            seller_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            card_name TEXT NOT NULL,
            card_game TEXT NOT NULL,
            card_set TEXT NULL,
            card_number TEXT NULL,
            psa_grade NUMERIC(3,1) NOT NULL,
            cert_number TEXT NOT NULL,
            price NUMERIC(12,2) NOT NULL,
            condition_notes TEXT NULL,
            image_url TEXT NULL,
            status TEXT NOT NULL DEFAULT 'active'
                CHECK (status IN ('active', 'pending', 'sold')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            sold_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_active_cert
            ON listings(seller_id, cert_number) WHERE status = 'active';
        CREATE INDEX IF NOT EXISTS idx_listings_status_created
            ON listings(status, created_at DESC);
    `)
	if err != nil {
		log.Printf("failed to create listings table: %v", err)
	}
}

// ensureCollectionsTable creates the collections table with one row per
// (user, cert) pair.
func ensureCollectionsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS collections (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            card_name TEXT NOT NULL,
            card_game TEXT NOT NULL,
            card_set TEXT NULL,
            card_number TEXT NULL,
            psa_grade NUMERIC(3,1) NOT NULL,
            cert_number TEXT NOT NULL,
            image_url TEXT NULL,
            notes TEXT NULL,
            psa_year TEXT NULL,
            psa_brand TEXT NULL,
            psa_category TEXT NULL,
            psa_variety TEXT NULL,
            total_population INTEGER NOT NULL DEFAULT 0,
            pop_higher_grade INTEGER NOT NULL DEFAULT 0,
            added_date TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (user_id, cert_number)
        );
        CREATE INDEX IF NOT EXISTS idx_collections_user_added
            ON collections(user_id, added_date DESC);
    `)
	if err != nil {
		log.Printf("failed to create collections table: %v", err)
	}
}

// ensureTransactionsTable creates the transactions table
func ensureTransactionsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS transactions (
            id UUID PRIMARY KEY,
            listing_id UUID NOT NULL REFERENCES listings(id),
            buyer_id UUID NOT NULL REFERENCES users(id),
            seller_id UUID NOT NULL REFERENCES users(id),
            card_price NUMERIC(12,2) NOT NULL,
            platform_fee NUMERIC(12,2) NOT NULL,
            stripe_fee NUMERIC(12,2) NOT NULL,
            total_amount NUMERIC(12,2) NOT NULL,
            seller_payout NUMERIC(12,2) NOT NULL,
            payment_status TEXT NOT NULL DEFAULT 'pending'
                CHECK (payment_status IN ('pending', 'paid', 'failed', 'refunded')),
            shipping_status TEXT NOT NULL DEFAULT 'not_shipped',
            stripe_session_id TEXT NULL,
            stripe_charge_id TEXT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_transactions_buyer ON transactions(buyer_id, created_at DESC);
        CREATE INDEX IF NOT EXISTS idx_transactions_seller ON transactions(seller_id, created_at DESC);
        CREATE INDEX IF NOT EXISTS idx_transactions_charge ON transactions(stripe_charge_id);
    `)
	if err != nil {
		log.Printf("failed to create transactions table: %v", err)
	}
}
