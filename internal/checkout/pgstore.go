package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Siizas/tcg/internal/platform"
)

// PGStore implements Store on top of Postgres. Cross-entity writes run in
// a single database transaction.
type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

func (s *PGStore) ActiveListing(ctx context.Context, listingID string) (ActiveListing, error) {
	var l ActiveListing
	err := s.Pool.QueryRow(ctx, `
        SELECT id, seller_id, card_name, card_game, psa_grade, cert_number, price, image_url
        FROM listings
        WHERE id = $1 AND status = 'active'
    `, listingID).Scan(&l.ID, &l.SellerID, &l.CardName, &l.CardGame, &l.PSAGrade, &l.CertNumber, &l.Price, &l.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ActiveListing{}, ErrListingNotFound
		}
		return ActiveListing{}, err
	}
	return l, nil
}

func (s *PGStore) CreatePurchase(ctx context.Context, l ActiveListing, buyerID string, fees platform.Breakdown) (Transaction, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx)

	// Flip the listing first; zero rows means someone else holds it.
	res, err := tx.Exec(ctx, `
        UPDATE listings SET status = 'pending', updated_at = NOW()
        WHERE id = $1 AND status = 'active'
    `, l.ID)
	if err != nil {
		return Transaction{}, err
	}
	if res.RowsAffected() == 0 {
		return Transaction{}, ErrListingNotFound
	}

	t := newTransaction(uuid.New().String(), l, buyerID, fees)
	_, err = tx.Exec(ctx, `
        INSERT INTO transactions (
            id, listing_id, buyer_id, seller_id,
            card_price, platform_fee, stripe_fee, total_amount, seller_payout,
            payment_status, shipping_status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
    `, t.ID, t.ListingID, t.BuyerID, t.SellerID,
		t.CardPrice, t.PlatformFee, t.StripeFee, t.TotalAmount, t.SellerPayout,
		string(t.PaymentStatus), t.ShippingStatus, t.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *PGStore) AttachSession(ctx context.Context, transactionID, sessionID string) error {
	_, err := s.Pool.Exec(ctx, `
        UPDATE transactions SET stripe_session_id = $2, updated_at = NOW()
        WHERE id = $1
    `, transactionID, sessionID)
	return err
}

func (s *PGStore) MarkPaid(ctx context.Context, transactionID, listingID, chargeID string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
        UPDATE transactions
        SET payment_status = 'paid', stripe_charge_id = $2, updated_at = NOW()
        WHERE id = $1 AND payment_status = ANY($3)
    `, transactionID, chargeID, SourceStates(StatusPaid))
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		// Already handled; redelivered event.
		return nil
	}

	_, err = tx.Exec(ctx, `
        UPDATE listings
        SET status = 'sold', sold_at = NOW(), updated_at = NOW()
        WHERE id = $1
    `, listingID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PGStore) MarkExpired(ctx context.Context, transactionID, listingID string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
        UPDATE transactions
        SET payment_status = 'failed', updated_at = NOW()
        WHERE id = $1 AND payment_status = ANY($2)
    `, transactionID, SourceStates(StatusFailed))
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return nil
	}

	_, err = tx.Exec(ctx, `
        UPDATE listings
        SET status = 'active', updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
    `, listingID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PGStore) MarkRefundedByCharge(ctx context.Context, chargeID string) (bool, error) {
	res, err := s.Pool.Exec(ctx, `
        UPDATE transactions
        SET payment_status = 'refunded', updated_at = NOW()
        WHERE stripe_charge_id = $1 AND payment_status = ANY($2)
    `, chargeID, SourceStates(StatusRefunded))
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (s *PGStore) ReleaseFailed(ctx context.Context, transactionID, listingID string) error {
	return s.MarkExpired(ctx, transactionID, listingID)
}

func (s *PGStore) ListUserTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := s.Pool.Query(ctx, `
        SELECT id, listing_id, buyer_id, seller_id,
               card_price, platform_fee, stripe_fee, total_amount, seller_payout,
               payment_status, shipping_status, stripe_session_id, stripe_charge_id,
               created_at, updated_at
        FROM transactions
        WHERE buyer_id = $1 OR seller_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		var (
			t      Transaction
			status string
		)
		if err := rows.Scan(&t.ID, &t.ListingID, &t.BuyerID, &t.SellerID,
			&t.CardPrice, &t.PlatformFee, &t.StripeFee, &t.TotalAmount, &t.SellerPayout,
			&status, &t.ShippingStatus, &t.StripeSessionID, &t.StripeChargeID,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.PaymentStatus = PaymentStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}
