package listings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Siizas/tcg/internal/db"
)

// ErrDuplicateActive signals the seller already has an active listing for
// the same cert number.
var ErrDuplicateActive = errors.New("active listing already exists for this card")

// Store is the persistence boundary for listing creation. At most one
// active listing per (seller, cert) is enforced here.
type Store interface {
	Create(ctx context.Context, l Listing) (Listing, error)
}

// PGStore implements Store on Postgres. The pre-check gives the friendly
// duplicate answer; the partial unique index backs it up when two inserts
// race past the pre-check.
type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) Create(ctx context.Context, l Listing) (Listing, error) {
	var existing string
	err := s.Pool.QueryRow(ctx, `
        SELECT id FROM listings
        WHERE cert_number = $1 AND seller_id = $2 AND status = 'active'
    `, l.CertNumber, l.SellerID).Scan(&existing)
	if err == nil {
		return Listing{}, ErrDuplicateActive
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, err
	}

	err = s.Pool.QueryRow(ctx, `
        INSERT INTO listings (
            id, seller_id, card_name, card_game, card_set, card_number,
            psa_grade, cert_number, price, condition_notes, image_url,
            status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'active', $12, $12)
        RETURNING id, seller_id, card_name, card_game, card_set, card_number,
                  psa_grade, cert_number, price, condition_notes, image_url,
                  status, created_at, updated_at
    `, l.ID, l.SellerID, l.CardName, l.CardGame, l.CardSet, l.CardNumber,
		l.PSAGrade, l.CertNumber, l.Price, l.ConditionNotes, l.ImageURL, l.CreatedAt,
	).Scan(&l.ID, &l.SellerID, &l.CardName, &l.CardGame, &l.CardSet, &l.CardNumber,
		&l.PSAGrade, &l.CertNumber, &l.Price, &l.ConditionNotes, &l.ImageURL,
		&l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if db.UniqueViolation(err, "idx_listings_active_cert") {
			return Listing{}, ErrDuplicateActive
		}
		return Listing{}, err
	}
	return l, nil
}
