package checkout

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Webhook reconciles transaction and listing state with provider-reported
// payment truth. Delivery is at-least-once, so every branch must tolerate
// redelivery; the guarded store updates make duplicates no-ops.
type Webhook struct {
	Store  Store
	Secret string
}

// ===== Handle - provider event callback =====
func (w *Webhook) Handle(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Webhook Error: unreadable payload"})
	}

	// Nothing is written before the signature checks out.
	event, err := webhook.ConstructEvent(payload, c.Request().Header.Get("Stripe-Signature"), w.Secret)
	if err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Webhook Error: " + err.Error()})
	}

	ctx := c.Request().Context()

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Webhook Error: bad session payload"})
		}
		txnID, listingID := session.Metadata["transactionId"], session.Metadata["listingId"]
		if txnID == "" || listingID == "" {
			log.Printf("completed session %s carries no transaction metadata, ignored", session.ID)
			break
		}
		chargeID := ""
		if session.PaymentIntent != nil {
			chargeID = session.PaymentIntent.ID
		}
		if err := w.Store.MarkPaid(ctx, txnID, listingID, chargeID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook handler failed"})
		}

	case "checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Webhook Error: bad session payload"})
		}
		txnID, listingID := session.Metadata["transactionId"], session.Metadata["listingId"]
		if txnID == "" || listingID == "" {
			log.Printf("expired session %s carries no transaction metadata, ignored", session.ID)
			break
		}
		if err := w.Store.MarkExpired(ctx, txnID, listingID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook handler failed"})
		}

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Webhook Error: bad charge payload"})
		}
		found, err := w.Store.MarkRefundedByCharge(ctx, charge.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook handler failed"})
		}
		if !found {
			log.Printf("refund for unknown charge %s ignored", charge.ID)
		}

	default:
		log.Printf("unhandled event type: %s", event.Type)
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
