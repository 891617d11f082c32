package psacert

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	Client *Client
}

type verifyRequest struct {
	CertNumber string `json:"certNumber"`
}

// Verify looks up a cert number with the grading authority and returns the
// normalized card record.
func (h *Handler) Verify(c echo.Context) error {
	req := new(verifyRequest)
	if err := c.Bind(req); err != nil || req.CertNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Certification number is required"})
	}

	card, err := h.Client.Lookup(c.Request().Context(), req.CertNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":   "Certificate not found",
				"details": "No card found with this certification number",
			})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "PSA API error", "details": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "card": card})
}
