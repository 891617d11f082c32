package collection

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/Siizas/tcg/internal/db"
)

// Entry is one card in a user's gallery, independent of any listing.
type Entry struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	CardName        string    `json:"card_name"`
	CardGame        string    `json:"card_game"`
	CardSet         *string   `json:"card_set"`
	CardNumber      *string   `json:"card_number"`
	PSAGrade        float64   `json:"psa_grade"`
	CertNumber      string    `json:"cert_number"`
	ImageURL        *string   `json:"image_url"`
	Notes           *string   `json:"notes"`
	PSAYear         *string   `json:"psa_year"`
	PSABrand        *string   `json:"psa_brand"`
	PSACategory     *string   `json:"psa_category"`
	PSAVariety      *string   `json:"psa_variety"`
	TotalPopulation int       `json:"total_population"`
	PopHigherGrade  int       `json:"pop_higher_grade"`
	AddedDate       time.Time `json:"added_date"`
}

type AddRequest struct {
	CardName   string  `json:"cardName" validate:"required"`
	CardGame   string  `json:"cardGame" validate:"required"`
	CardSet    string  `json:"cardSet"`
	CardNumber string  `json:"cardNumber"`
	PSAGrade   float64 `json:"psaGrade" validate:"required"`
	CertNumber string  `json:"certNumber" validate:"required"`
	ImageURL   string  `json:"imageUrl"`
	Notes      string  `json:"notes"`
	PSAData    *struct {
		Year            string `json:"year"`
		Brand           string `json:"brand"`
		Category        string `json:"category"`
		Variety         string `json:"variety"`
		TotalPopulation int    `json:"totalPopulation"`
		PopHigherGrade  int    `json:"popHigherGrade"`
	} `json:"psaData"`
}

// ===== Add - put a card into the caller's gallery =====
func Add(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	req := new(AddRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Missing required fields: cardName, cardGame, psaGrade, certNumber",
		})
	}

	conn := db.Conn
	ctx := context.Background()

	var existing string
	err := conn.QueryRow(ctx, `
        SELECT id FROM collections WHERE user_id = $1 AND cert_number = $2
    `, userID, req.CertNumber).Scan(&existing)
	if err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Card already in your collection"})
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to add card to collection"})
	}

	var (
		psaYear, psaBrand, psaCategory, psaVariety string
		totalPop, popHigher                        int
	)
	if req.PSAData != nil {
		psaYear = req.PSAData.Year
		psaBrand = req.PSAData.Brand
		psaCategory = req.PSAData.Category
		psaVariety = req.PSAData.Variety
		totalPop = req.PSAData.TotalPopulation
		popHigher = req.PSAData.PopHigherGrade
	}

	entryID := uuid.New().String()
	_, err = conn.Exec(ctx, `
        INSERT INTO collections (
            id, user_id, card_name, card_game, card_set, card_number,
            psa_grade, cert_number, image_url, notes,
            psa_year, psa_brand, psa_category, psa_variety,
            total_population, pop_higher_grade, added_date
        ) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''),
                  $7, $8, NULLIF($9, ''), NULLIF($10, ''),
                  NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''),
                  $15, $16, $17)
    `, entryID, userID, req.CardName, req.CardGame, req.CardSet, req.CardNumber,
		req.PSAGrade, req.CertNumber, req.ImageURL, req.Notes,
		psaYear, psaBrand, psaCategory, psaVariety,
		totalPop, popHigher, time.Now())
	if err != nil {
		if db.UniqueViolation(err, "collections_user_id_cert_number_key") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Card already in your collection"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to add card to collection"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":      true,
		"collectionId": entryID,
		"message":      "Card added to collection",
	})
}

// ===== List - the caller's gallery with aggregate stats =====
func List(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	rows, err := db.Conn.Query(context.Background(), `
        SELECT id, user_id, card_name, card_game, card_set, card_number,
               psa_grade, cert_number, image_url, notes,
               psa_year, psa_brand, psa_category, psa_variety,
               total_population, pop_higher_grade, added_date
        FROM collections
        WHERE user_id = $1
        ORDER BY added_date DESC
    `, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch collection"})
	}
	defer rows.Close()

	cards := make([]Entry, 0)
	grades := make([]float64, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.CardName, &e.CardGame, &e.CardSet, &e.CardNumber,
			&e.PSAGrade, &e.CertNumber, &e.ImageURL, &e.Notes,
			&e.PSAYear, &e.PSABrand, &e.PSACategory, &e.PSAVariety,
			&e.TotalPopulation, &e.PopHigherGrade, &e.AddedDate); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		cards = append(cards, e)
		grades = append(grades, e.PSAGrade)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"cards":   cards,
		"stats":   ComputeStats(grades),
	})
}

// ===== Remove - delete a gallery entry owned by the caller =====
// A missing entry and someone else's entry answer identically so ownership
// cannot be probed.
func Remove(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	entryID := c.Param("id")
	if entryID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Collection ID is required"})
	}

	res, err := db.Conn.Exec(context.Background(), `
        DELETE FROM collections WHERE id = $1 AND user_id = $2
    `, entryID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to remove card from collection"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Card not found in your collection"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Card removed from collection",
	})
}
