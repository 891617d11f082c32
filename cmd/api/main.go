package main

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Siizas/tcg/internal/auth"
	"github.com/Siizas/tcg/internal/checkout"
	"github.com/Siizas/tcg/internal/collection"
	"github.com/Siizas/tcg/internal/config"
	"github.com/Siizas/tcg/internal/db"
	"github.com/Siizas/tcg/internal/listings"
	appmw "github.com/Siizas/tcg/internal/middleware"
	"github.com/Siizas/tcg/internal/platform"
	"github.com/Siizas/tcg/internal/psacert"
	"github.com/Siizas/tcg/internal/user"
)

func main() {
	cfg := config.Load()

	db.Init(cfg.Postgres)

	fees := platform.NewFees(cfg.Fees)

	authHandler := &auth.Handler{Secret: cfg.JWT.Secret}
	listingsHandler := &listings.Handler{Store: listings.NewPGStore(db.Conn), Fees: fees, Secret: cfg.JWT.Secret}
	certHandler := &psacert.Handler{Client: psacert.NewClient(cfg.PSA.BaseURL, cfg.PSA.Token)}
	checkoutHandler := &checkout.Handler{
		Store:    checkout.NewPGStore(db.Conn),
		Sessions: checkout.NewStripeSessions(cfg.Stripe.SecretKey),
		Fees:     fees,
		SiteURL:  cfg.SiteURL,
	}
	stripeWebhook := &checkout.Webhook{
		Store:  checkout.NewPGStore(db.Conn),
		Secret: cfg.Stripe.WebhookSecret,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = appmw.NewValidator()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	// Health
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// Public auth routes
	e.POST("/api/register", authHandler.Register)
	e.POST("/api/login", authHandler.Login)
	e.POST("/api/verify-token", authHandler.VerifyToken)

	// Public discovery
	e.GET("/api/listings", listingsHandler.List)
	e.GET("/api/users/:id/profile", user.GetPublicProfile)

	// Certificate verification
	e.POST("/api/verify-cert", certHandler.Verify)

	// Stripe callback, authenticated by signature instead of JWT
	e.POST("/api/stripe/webhook", stripeWebhook.Handle)

	// Authenticated group
	g := e.Group("/api")
	g.Use(appmw.JWT(cfg.JWT.Secret))

	g.GET("/me", authHandler.Me)

	g.POST("/listings", listingsHandler.Create)

	g.GET("/collection", collection.List)
	g.POST("/collection", collection.Add)
	g.DELETE("/collection/:id", collection.Remove)

	g.POST("/checkout", checkoutHandler.Create)
	g.GET("/transactions", checkoutHandler.ListTransactions)

	log.Printf("API server listening on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
