package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/Siizas/tcg/internal/db"
)

type Handler struct {
	Secret string
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ===== Register =====
func (h *Handler) Register(c echo.Context) error {
	req := new(RegisterRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "All fields are required"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "All fields are required", "details": err.Error()})
	}

	conn := db.Conn
	ctx := context.Background()

	var existing string
	err := conn.QueryRow(ctx, `
        SELECT id FROM users WHERE email = $1 OR username = $2
    `, req.Email, req.Username).Scan(&existing)
	if err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email or username already exists"})
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error during registration"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error during registration"})
	}

	userID := uuid.New().String()
	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, username, password, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, userID, req.Email, req.Username, string(hashed), time.Now())
	if err != nil {
		if db.UniqueViolation(err, "users_email_key", "users_username_key") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Email or username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error during registration"})
	}

	token, err := NewToken(userID, req.Email, h.Secret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Account created successfully!",
		"token":    token,
		"userId":   userID,
		"username": req.Username,
	})
}

// ===== Login =====
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}

	conn := db.Conn
	ctx := context.Background()

	var (
		userID   string
		username string
		password string
	)
	err := conn.QueryRow(ctx, `
        SELECT id, username, password FROM users WHERE email = $1
    `, req.Email).Scan(&userID, &username, &password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}

	token, err := NewToken(userID, req.Email, h.Secret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	_, _ = conn.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, userID)

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Login successful!",
		"token":    token,
		"userId":   userID,
		"username": username,
	})
}

// ===== Me =====
func (h *Handler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	var (
		email            string
		username         string
		sellerRating     float64
		totalSales       int
		isVerifiedSeller bool
		createdAt        time.Time
	)
	err := db.Conn.QueryRow(context.Background(), `
        SELECT email, username, seller_rating, total_sales, is_verified_seller, created_at
        FROM users WHERE id = $1
    `, userID).Scan(&email, &username, &sellerRating, &totalSales, &isVerifiedSeller, &createdAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"userId":           userID,
		"email":            email,
		"username":         username,
		"sellerRating":     sellerRating,
		"totalSales":       totalSales,
		"isVerifiedSeller": isVerifiedSeller,
		"createdAt":        createdAt,
	})
}
