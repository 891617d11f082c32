package listings

import "time"

// Listing is a seller's offer of one graded card.
type Listing struct {
	ID             string     `json:"id"`
	SellerID       string     `json:"seller_id"`
	CardName       string     `json:"card_name"`
	CardGame       string     `json:"card_game"`
	CardSet        *string    `json:"card_set"`
	CardNumber     *string    `json:"card_number"`
	PSAGrade       float64    `json:"psa_grade"`
	CertNumber     string     `json:"cert_number"`
	Price          float64    `json:"price"`
	ConditionNotes *string    `json:"condition_notes"`
	ImageURL       *string    `json:"image_url"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SoldAt         *time.Time `json:"sold_at,omitempty"`
}

// MarketListing joins in the seller's public reputation for browse views.
type MarketListing struct {
	Listing
	SellerUsername   string  `json:"seller_username"`
	SellerRating     float64 `json:"seller_rating"`
	TotalSales       int     `json:"total_sales"`
	IsVerifiedSeller bool    `json:"is_verified_seller"`
}
