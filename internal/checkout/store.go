package checkout

import (
	"context"
	"errors"

	"github.com/Siizas/tcg/internal/platform"
)

var ErrListingNotFound = errors.New("listing not found or no longer available")

// Store is the persistence boundary of the purchase lifecycle. Every
// mutation that touches both a transaction and its listing must be atomic
// inside the implementation, and the status updates must be guarded
// compare-and-set moves per the transition table, so redelivered webhook
// events no-op instead of double-transitioning.
type Store interface {
	// ActiveListing fetches a listing only while its status is active.
	ActiveListing(ctx context.Context, listingID string) (ActiveListing, error)

	// CreatePurchase inserts a pending transaction and flips the listing
	// active -> pending in one unit of work. A listing that stopped being
	// active (e.g. a concurrent purchase) yields ErrListingNotFound.
	CreatePurchase(ctx context.Context, l ActiveListing, buyerID string, fees platform.Breakdown) (Transaction, error)

	// AttachSession records the provider checkout-session id.
	AttachSession(ctx context.Context, transactionID, sessionID string) error

	// MarkPaid moves a pending transaction to paid with the provider
	// charge id and the listing to sold. No-op if the transaction already
	// left pending.
	MarkPaid(ctx context.Context, transactionID, listingID, chargeID string) error

	// MarkExpired moves a pending transaction to failed and releases the
	// listing back to active. No-op if the transaction already left
	// pending.
	MarkExpired(ctx context.Context, transactionID, listingID string) error

	// MarkRefundedByCharge moves the transaction holding the charge id to
	// refunded. Reports whether a matching transaction was found.
	MarkRefundedByCharge(ctx context.Context, chargeID string) (bool, error)

	// ReleaseFailed abandons a freshly created purchase whose checkout
	// session could not be opened: transaction -> failed, listing back to
	// active.
	ReleaseFailed(ctx context.Context, transactionID, listingID string) error

	// ListUserTransactions returns the user's purchases and sales,
	// newest-first.
	ListUserTransactions(ctx context.Context, userID string) ([]Transaction, error)
}
