package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/Siizas/tcg/internal/db"
)

// GET /api/users/:id/profile
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var (
		id               string
		username         string
		sellerRating     float64
		totalSales       int
		isVerifiedSeller bool
		createdAt        time.Time
		activeListings   int
	)

	query := `
		SELECT u.id, u.username, u.seller_rating, u.total_sales, u.is_verified_seller, u.created_at,
		       COUNT(l.id) FILTER (WHERE l.status = 'active')
		FROM users u
		LEFT JOIN listings l ON l.seller_id = u.id
		WHERE u.id = $1
		GROUP BY u.id
	`

	err := db.Conn.QueryRow(c.Request().Context(), query, userID).Scan(
		&id,
		&username,
		&sellerRating,
		&totalSales,
		&isVerifiedSeller,
		&createdAt,
		&activeListings,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error fetching profile"})
	}

	profile := echo.Map{
		"id":               id,
		"username":         username,
		"sellerRating":     sellerRating,
		"totalSales":       totalSales,
		"isVerifiedSeller": isVerifiedSeller,
		"memberSince":      createdAt.Format(time.RFC3339),
		"activeListings":   activeListings,
	}

	return c.JSON(http.StatusOK, profile)
}
