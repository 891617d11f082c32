package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Siizas/tcg/internal/auth"
	"github.com/Siizas/tcg/internal/db"
	"github.com/Siizas/tcg/internal/platform"
)

type Handler struct {
	Store  Store
	Fees   platform.Fees
	Secret string
}

type CreateRequest struct {
	CardName       string      `json:"cardName" validate:"required"`
	CardGame       string      `json:"cardGame" validate:"required"`
	CardSet        string      `json:"cardSet"`
	CardNumber     string      `json:"cardNumber"`
	PSAGrade       float64     `json:"psaGrade"`
	CertNumber     string      `json:"certNumber" validate:"required"`
	Price          json.Number `json:"price" validate:"required"`
	ConditionNotes string      `json:"conditionNotes"`
	ImageURL       string      `json:"imageUrl"`
}

// ===== Create - list a card for sale =====
func (h *Handler) Create(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	req := new(CreateRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Missing required fields: cardName, cardGame, psaGrade, certNumber, price",
		})
	}

	if req.PSAGrade < 1 || req.PSAGrade > 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "PSA grade must be between 1 and 10"})
	}

	price, err := platform.ParseAmount(req.Price.String())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid card price"})
	}
	if err := h.Fees.ValidatePrice(price); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	now := time.Now()
	l := Listing{
		ID:             uuid.New().String(),
		SellerID:       sellerID,
		CardName:       req.CardName,
		CardGame:       req.CardGame,
		CardSet:        optional(req.CardSet),
		CardNumber:     optional(req.CardNumber),
		PSAGrade:       req.PSAGrade,
		CertNumber:     req.CertNumber,
		Price:          price,
		ConditionNotes: optional(req.ConditionNotes),
		ImageURL:       optional(req.ImageURL),
		Status:         "active",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := h.Store.Create(c.Request().Context(), l)
	if err != nil {
		if errors.Is(err, ErrDuplicateActive) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "You already have an active listing for this card"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error creating listing"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Listing created successfully!",
		"listing": created,
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ===== List - marketplace browse or the seller's own listings =====
func (h *Handler) List(c echo.Context) error {
	conn := db.Conn
	ctx := context.Background()

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.QueryParam("my") == "true" {
		sellerID, err := h.bearerUser(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
		}
		conds = append(conds, "l.seller_id = "+arg(sellerID))
	} else {
		conds = append(conds, "l.status = 'active'")
	}

	if game := c.QueryParam("game"); game != "" {
		conds = append(conds, "l.card_game = "+arg(game))
	}
	if grade := c.QueryParam("grade"); grade != "" {
		if g, err := strconv.ParseFloat(grade, 64); err == nil {
			conds = append(conds, "l.psa_grade = "+arg(g))
		}
	}
	if minPrice := c.QueryParam("minPrice"); minPrice != "" {
		if p, err := platform.ParseAmount(minPrice); err == nil {
			conds = append(conds, "l.price >= "+arg(p))
		}
	}
	if maxPrice := c.QueryParam("maxPrice"); maxPrice != "" {
		if p, err := platform.ParseAmount(maxPrice); err == nil {
			conds = append(conds, "l.price <= "+arg(p))
		}
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	query := `
        SELECT l.id, l.seller_id, l.card_name, l.card_game, l.card_set, l.card_number,
               l.psa_grade, l.cert_number, l.price, l.condition_notes, l.image_url,
               l.status, l.created_at, l.updated_at, l.sold_at,
               u.username, u.seller_rating, u.total_sales, u.is_verified_seller
        FROM listings l
        JOIN users u ON l.seller_id = u.id
        WHERE ` + strings.Join(conds, " AND ") + `
        ORDER BY l.created_at DESC
        LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error fetching listings"})
	}
	defer rows.Close()

	results := make([]MarketListing, 0)
	for rows.Next() {
		var m MarketListing
		if err := rows.Scan(&m.ID, &m.SellerID, &m.CardName, &m.CardGame, &m.CardSet, &m.CardNumber,
			&m.PSAGrade, &m.CertNumber, &m.Price, &m.ConditionNotes, &m.ImageURL,
			&m.Status, &m.CreatedAt, &m.UpdatedAt, &m.SoldAt,
			&m.SellerUsername, &m.SellerRating, &m.TotalSales, &m.IsVerifiedSeller); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		results = append(results, m)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"listings": results,
		"count":    len(results),
	})
}

func (h *Handler) bearerUser(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	claims, err := auth.ParseToken(header[len("Bearer "):], h.Secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
