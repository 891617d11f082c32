package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type verifyRequest struct {
	Token string `json:"token"`
}

// VerifyToken lets the browser check a stored session token. Invalid or
// expired tokens get a 401 so the frontend clears its session and sends
// the user back to login.
func (h *Handler) VerifyToken(c echo.Context) error {
	req := new(verifyRequest)
	if err := c.Bind(req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Token required"})
	}

	claims, err := ParseToken(req.Token, h.Secret)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"valid": false,
			"error": "Invalid or expired token",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"valid":  true,
		"userId": claims.UserID,
		"email":  claims.Email,
	})
}
