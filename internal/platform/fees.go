package platform

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Siizas/tcg/internal/config"
)

var (
	ErrInvalidAmount = errors.New("invalid card price")
	ErrPriceTooLow   = errors.New("price below minimum")
	ErrPriceTooHigh  = errors.New("price above maximum")
)

// Breakdown is the fee split for a single purchase. All amounts are in
// whole currency units rounded to two decimals.
type Breakdown struct {
	CardPrice    float64 `json:"cardPrice"`
	PlatformFee  float64 `json:"platformFee"`
	StripeFee    float64 `json:"stripeFee"`
	TotalAmount  float64 `json:"totalAmount"`
	SellerPayout float64 `json:"sellerPayout"`
}

// Fees wraps the commission settings so handlers receive them explicitly
// instead of reading globals.
type Fees struct {
	cfg config.Fees
}

func NewFees(cfg config.Fees) Fees {
	return Fees{cfg: cfg}
}

// ParseAmount parses a request-supplied price. Anything that is not a
// finite, non-negative number is rejected.
func ParseAmount(raw string) (float64, error) {
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0, ErrInvalidAmount
	}
	return p, nil
}

// Breakdown computes the fee split for an already-validated price.
func (f Fees) Breakdown(price float64) Breakdown {
	platformFee := price * f.cfg.PlatformRate
	stripeFee := price*f.cfg.ProcessorRate + f.cfg.ProcessorFixedFee
	return Breakdown{
		CardPrice:    Round2(price),
		PlatformFee:  Round2(platformFee),
		StripeFee:    Round2(stripeFee),
		TotalAmount:  Round2(price),
		SellerPayout: Round2(price - platformFee - stripeFee),
	}
}

// ParseBreakdown parses a raw price and computes its fee split.
func (f Fees) ParseBreakdown(raw string) (Breakdown, error) {
	p, err := ParseAmount(raw)
	if err != nil {
		return Breakdown{}, err
	}
	return f.Breakdown(p), nil
}

// ValidatePrice checks a listing price against the configured bounds.
func (f Fees) ValidatePrice(price float64) error {
	if price < f.cfg.MinListingPrice {
		return fmt.Errorf("%w: price must be at least %.2f", ErrPriceTooLow, f.cfg.MinListingPrice)
	}
	if price > f.cfg.MaxListingPrice {
		return fmt.Errorf("%w: price cannot exceed %.2f", ErrPriceTooHigh, f.cfg.MaxListingPrice)
	}
	return nil
}

// MinorUnits converts a currency amount to integer cents for the payment
// provider.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
