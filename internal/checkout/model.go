package checkout

import (
	"time"

	"github.com/Siizas/tcg/internal/platform"
)

// ActiveListing is the slice of a listing the purchase flow needs.
type ActiveListing struct {
	ID         string
	SellerID   string
	CardName   string
	CardGame   string
	PSAGrade   float64
	CertNumber string
	Price      float64
	ImageURL   *string
}

// Transaction records one purchase attempt against a listing. Only the
// status fields and the provider identifiers change after creation.
type Transaction struct {
	ID              string             `json:"id"`
	ListingID       string             `json:"listing_id"`
	BuyerID         string             `json:"buyer_id"`
	SellerID        string             `json:"seller_id"`
	CardPrice       float64            `json:"card_price"`
	PlatformFee     float64            `json:"platform_fee"`
	StripeFee       float64            `json:"stripe_fee"`
	TotalAmount     float64            `json:"total_amount"`
	SellerPayout    float64            `json:"seller_payout"`
	PaymentStatus   PaymentStatus      `json:"payment_status"`
	ShippingStatus  string             `json:"shipping_status"`
	StripeSessionID *string            `json:"stripe_session_id,omitempty"`
	StripeChargeID  *string            `json:"stripe_charge_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newTransaction(id string, l ActiveListing, buyerID string, fees platform.Breakdown) Transaction {
	now := time.Now()
	return Transaction{
		ID:             id,
		ListingID:      l.ID,
		BuyerID:        buyerID,
		SellerID:       l.SellerID,
		CardPrice:      fees.CardPrice,
		PlatformFee:    fees.PlatformFee,
		StripeFee:      fees.StripeFee,
		TotalAmount:    fees.TotalAmount,
		SellerPayout:   fees.SellerPayout,
		PaymentStatus:  StatusPending,
		ShippingStatus: "not_shipped",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
