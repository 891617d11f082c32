package checkout

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Siizas/tcg/internal/platform"
)

// Handler drives purchase creation: it holds a pending transaction against
// the listing, opens a provider checkout session, and hands the redirect
// back to the buyer. Payment completion arrives later via webhook.
type Handler struct {
	Store    Store
	Sessions Sessions
	Fees     platform.Fees
	SiteURL  string
}

type createRequest struct {
	ListingID string `json:"listingId"`
}

// ===== Create - buyer starts a purchase =====
func (h *Handler) Create(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	req := new(createRequest)
	if err := c.Bind(req); err != nil || req.ListingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Listing ID is required"})
	}

	ctx := c.Request().Context()

	listing, err := h.Store.ActiveListing(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Listing not found or no longer available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error creating checkout"})
	}

	if listing.SellerID == buyerID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Cannot purchase your own listing"})
	}

	fees := h.Fees.Breakdown(listing.Price)

	txn, err := h.Store.CreatePurchase(ctx, listing, buyerID, fees)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			// Lost the race against another buyer.
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Listing not found or no longer available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error creating checkout"})
	}

	sess, err := h.Sessions.Create(ctx, SessionParams{
		AmountCents: platform.MinorUnits(fees.TotalAmount),
		Currency:    "eur",
		Name:        fmt.Sprintf("%s - PSA %g", listing.CardName, listing.PSAGrade),
		Description: fmt.Sprintf("%s | Cert: %s", listing.CardGame, listing.CertNumber),
		ImageURL:    listing.ImageURL,
		SuccessURL:  h.SiteURL + "/purchase-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   h.SiteURL + "/marketplace?canceled=true",
		Metadata: map[string]string{
			"transactionId": txn.ID,
			"listingId":     listing.ID,
			"buyerId":       buyerID,
			"sellerId":      listing.SellerID,
		},
	})
	if err != nil {
		// Give the listing back rather than leaving it held by a
		// transaction that never reached the provider.
		if relErr := h.Store.ReleaseFailed(ctx, txn.ID, listing.ID); relErr != nil {
			log.Printf("failed to release listing %s after session error: %v", listing.ID, relErr)
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Payment provider error creating checkout"})
	}

	if err := h.Store.AttachSession(ctx, txn.ID, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error creating checkout"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"sessionId":     sess.ID,
		"checkoutUrl":   sess.URL,
		"transactionId": txn.ID,
	})
}

// ===== ListTransactions - caller's purchases and sales =====
func (h *Handler) ListTransactions(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	txns, err := h.Store.ListUserTransactions(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error fetching transactions"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transactions": txns,
		"count":        len(txns),
	})
}
