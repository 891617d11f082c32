package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/Siizas/tcg/internal/config"
	"github.com/Siizas/tcg/internal/platform"
)

const webhookSecret = "whsec_test"

// ========================================================
// Fake store mirroring the guarded compare-and-set semantics
// ========================================================

type fakeListing struct {
	ActiveListing
	Status string
	SoldAt *time.Time
}

type fakeStore struct {
	listings    map[string]*fakeListing
	txns        map[string]*Transaction
	writes      int
	failRelease bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings: make(map[string]*fakeListing),
		txns:     make(map[string]*Transaction),
	}
}

func (s *fakeStore) addListing(id, sellerID string, price float64) {
	s.listings[id] = &fakeListing{
		ActiveListing: ActiveListing{
			ID: id, SellerID: sellerID, CardName: "Charizard Holo",
			CardGame: "Pokemon", PSAGrade: 10, CertNumber: "12345678", Price: price,
		},
		Status: "active",
	}
}

func (s *fakeStore) ActiveListing(_ context.Context, listingID string) (ActiveListing, error) {
	l, ok := s.listings[listingID]
	if !ok || l.Status != "active" {
		return ActiveListing{}, ErrListingNotFound
	}
	return l.ActiveListing, nil
}

func (s *fakeStore) CreatePurchase(_ context.Context, l ActiveListing, buyerID string, fees platform.Breakdown) (Transaction, error) {
	stored, ok := s.listings[l.ID]
	if !ok || stored.Status != "active" {
		return Transaction{}, ErrListingNotFound
	}
	stored.Status = "pending"
	t := newTransaction(fmt.Sprintf("txn-%d", len(s.txns)+1), l, buyerID, fees)
	s.txns[t.ID] = &t
	s.writes++
	return t, nil
}

func (s *fakeStore) AttachSession(_ context.Context, transactionID, sessionID string) error {
	t, ok := s.txns[transactionID]
	if !ok {
		return errors.New("no such transaction")
	}
	t.StripeSessionID = &sessionID
	s.writes++
	return nil
}

func (s *fakeStore) MarkPaid(_ context.Context, transactionID, listingID, chargeID string) error {
	if transactionID == "" || listingID == "" {
		return errors.New("invalid input syntax for type uuid")
	}
	t, ok := s.txns[transactionID]
	if !ok || !CanTransition(t.PaymentStatus, StatusPaid) {
		return nil
	}
	t.PaymentStatus = StatusPaid
	t.StripeChargeID = &chargeID
	if l, ok := s.listings[listingID]; ok {
		now := time.Now()
		l.Status = "sold"
		l.SoldAt = &now
	}
	s.writes++
	return nil
}

func (s *fakeStore) MarkExpired(_ context.Context, transactionID, listingID string) error {
	if transactionID == "" || listingID == "" {
		return errors.New("invalid input syntax for type uuid")
	}
	t, ok := s.txns[transactionID]
	if !ok || !CanTransition(t.PaymentStatus, StatusFailed) {
		return nil
	}
	t.PaymentStatus = StatusFailed
	if l, ok := s.listings[listingID]; ok && l.Status == "pending" {
		l.Status = "active"
	}
	s.writes++
	return nil
}

func (s *fakeStore) MarkRefundedByCharge(_ context.Context, chargeID string) (bool, error) {
	for _, t := range s.txns {
		if t.StripeChargeID != nil && *t.StripeChargeID == chargeID &&
			CanTransition(t.PaymentStatus, StatusRefunded) {
			t.PaymentStatus = StatusRefunded
			s.writes++
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ReleaseFailed(ctx context.Context, transactionID, listingID string) error {
	if s.failRelease {
		return errors.New("release failed")
	}
	return s.MarkExpired(ctx, transactionID, listingID)
}

func (s *fakeStore) ListUserTransactions(_ context.Context, userID string) ([]Transaction, error) {
	out := make([]Transaction, 0)
	for _, t := range s.txns {
		if t.BuyerID == userID || t.SellerID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// ========================================================
// Fake session client
// ========================================================

type fakeSessions struct {
	lastParams SessionParams
	fail       bool
}

func (f *fakeSessions) Create(_ context.Context, p SessionParams) (Session, error) {
	f.lastParams = p
	if f.fail {
		return Session{}, errors.New("stripe unavailable")
	}
	return Session{ID: "cs_test_123", URL: "https://checkout.stripe.test/cs_test_123"}, nil
}

// ========================================================
// Helpers
// ========================================================

func testFees() platform.Fees {
	return platform.NewFees(config.Fees{
		PlatformRate:      0.10,
		ProcessorRate:     0.029,
		ProcessorFixedFee: 0.30,
		MinListingPrice:   10.00,
		MaxListingPrice:   100000.00,
	})
}

func newHandler(store Store, sessions Sessions) *Handler {
	return &Handler{
		Store:    store,
		Sessions: sessions,
		Fees:     testFees(),
		SiteURL:  "http://localhost:8888",
	}
}

func doCheckout(t *testing.T, h *Handler, buyerID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if buyerID != "" {
		c.Set("user_id", buyerID)
	}
	require.NoError(t, h.Create(c))
	return rec
}

// signedHeader builds a Stripe-Signature header the verifier accepts.
func signedHeader(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType string, object map[string]any) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":          "evt_test_1",
		"api_version": stripe.APIVersion,
		"type":        eventType,
		"data":        map[string]any{"object": object},
	})
	return payload
}

func deliver(t *testing.T, w *Webhook, payload []byte, header string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", header)
	rec := httptest.NewRecorder()
	require.NoError(t, w.Handle(e.NewContext(req, rec)))
	return rec
}

func sessionObject(txnID, listingID string) map[string]any {
	return map[string]any{
		"id":             "cs_test_123",
		"payment_intent": "pi_test_1",
		"metadata": map[string]string{
			"transactionId": txnID,
			"listingId":     listingID,
		},
	}
}

// ========================================================
// Purchase creation
// ========================================================

func TestCreatePurchase(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	sessions := &fakeSessions{}
	h := newHandler(store, sessions)

	rec := doCheckout(t, h, "buyer-1", `{"listingId":"listing-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cs_test_123", body["sessionId"])
	assert.Equal(t, "https://checkout.stripe.test/cs_test_123", body["checkoutUrl"])

	txn := store.txns[body["transactionId"].(string)]
	require.NotNil(t, txn)
	assert.Equal(t, StatusPending, txn.PaymentStatus)
	assert.Equal(t, "not_shipped", txn.ShippingStatus)
	assert.Equal(t, 50.00, txn.CardPrice)
	assert.Equal(t, 5.00, txn.PlatformFee)
	assert.Equal(t, 1.75, txn.StripeFee)
	assert.Equal(t, 43.25, txn.SellerPayout)
	require.NotNil(t, txn.StripeSessionID)
	assert.Equal(t, "cs_test_123", *txn.StripeSessionID)

	assert.Equal(t, "pending", store.listings["listing-1"].Status)
	assert.Equal(t, int64(5000), sessions.lastParams.AmountCents)
	assert.Equal(t, txn.ID, sessions.lastParams.Metadata["transactionId"])
}

func TestCreatePurchaseRequiresAuth(t *testing.T) {
	h := newHandler(newFakeStore(), &fakeSessions{})
	rec := doCheckout(t, h, "", `{"listingId":"listing-1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePurchaseListingNotFound(t *testing.T) {
	h := newHandler(newFakeStore(), &fakeSessions{})
	rec := doCheckout(t, h, "buyer-1", `{"listingId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePurchasePendingListingIsGone(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	store.listings["listing-1"].Status = "pending"
	h := newHandler(store, &fakeSessions{})

	rec := doCheckout(t, h, "buyer-2", `{"listingId":"listing-1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, store.txns)
}

func TestCreatePurchaseSelfPurchaseForbidden(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	h := newHandler(store, &fakeSessions{})

	rec := doCheckout(t, h, "seller-1", `{"listingId":"listing-1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot purchase your own listing")
	assert.Empty(t, store.txns)
	assert.Equal(t, "active", store.listings["listing-1"].Status)
}

func TestCreatePurchaseSessionFailureReleasesHold(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	h := newHandler(store, &fakeSessions{fail: true})

	rec := doCheckout(t, h, "buyer-1", `{"listingId":"listing-1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	assert.Equal(t, "active", store.listings["listing-1"].Status)
	require.Len(t, store.txns, 1)
	for _, txn := range store.txns {
		assert.Equal(t, StatusFailed, txn.PaymentStatus)
	}
}

func TestCreatePurchaseSessionAndReleaseFailure(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	store.failRelease = true
	h := newHandler(store, &fakeSessions{fail: true})

	rec := doCheckout(t, h, "buyer-1", `{"listingId":"listing-1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "pending", store.listings["listing-1"].Status)
}

// ========================================================
// Webhook reconciliation
// ========================================================

// buy runs a full purchase so webhook tests start from a pending pair.
func buy(t *testing.T, store *fakeStore) string {
	t.Helper()
	h := newHandler(store, &fakeSessions{})
	rec := doCheckout(t, h, "buyer-1", `{"listingId":"listing-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["transactionId"].(string)
}

func TestWebhookCompleted(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	txnID := buy(t, store)
	w := &Webhook{Store: store, Secret: webhookSecret}

	payload := eventPayload("checkout.session.completed", sessionObject(txnID, "listing-1"))
	rec := deliver(t, w, payload, signedHeader(payload, webhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)

	txn := store.txns[txnID]
	assert.Equal(t, StatusPaid, txn.PaymentStatus)
	require.NotNil(t, txn.StripeChargeID)
	assert.Equal(t, "pi_test_1", *txn.StripeChargeID)
	assert.Equal(t, "sold", store.listings["listing-1"].Status)
	assert.NotNil(t, store.listings["listing-1"].SoldAt)
}

func TestWebhookCompletedIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	txnID := buy(t, store)
	w := &Webhook{Store: store, Secret: webhookSecret}

	payload := eventPayload("checkout.session.completed", sessionObject(txnID, "listing-1"))
	deliver(t, w, payload, signedHeader(payload, webhookSecret))
	writesAfterFirst := store.writes

	rec := deliver(t, w, payload, signedHeader(payload, webhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, writesAfterFirst, store.writes, "duplicate delivery must not write")
	assert.Equal(t, StatusPaid, store.txns[txnID].PaymentStatus)
	assert.Equal(t, "sold", store.listings["listing-1"].Status)
}

func TestWebhookExpiredReleasesListing(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	txnID := buy(t, store)
	w := &Webhook{Store: store, Secret: webhookSecret}

	payload := eventPayload("checkout.session.expired", sessionObject(txnID, "listing-1"))
	rec := deliver(t, w, payload, signedHeader(payload, webhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, StatusFailed, store.txns[txnID].PaymentStatus)
	assert.Equal(t, "active", store.listings["listing-1"].Status)
}

func TestWebhookExpiredAfterCompletedIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	txnID := buy(t, store)
	w := &Webhook{Store: store, Secret: webhookSecret}

	completed := eventPayload("checkout.session.completed", sessionObject(txnID, "listing-1"))
	deliver(t, w, completed, signedHeader(completed, webhookSecret))

	expired := eventPayload("checkout.session.expired", sessionObject(txnID, "listing-1"))
	rec := deliver(t, w, expired, signedHeader(expired, webhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, StatusPaid, store.txns[txnID].PaymentStatus)
	assert.Equal(t, "sold", store.listings["listing-1"].Status)
}

func TestWebhookRefund(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	txnID := buy(t, store)
	w := &Webhook{Store: store, Secret: webhookSecret}

	completed := eventPayload("checkout.session.completed", sessionObject(txnID, "listing-1"))
	deliver(t, w, completed, signedHeader(completed, webhookSecret))

	refund := eventPayload("charge.refunded", map[string]any{"id": "pi_test_1"})
	rec := deliver(t, w, refund, signedHeader(refund, webhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusRefunded, store.txns[txnID].PaymentStatus)
}

func TestWebhookRefundUnknownChargeIsNotFatal(t *testing.T) {
	store := newFakeStore()
	w := &Webhook{Store: store, Secret: webhookSecret}

	refund := eventPayload("charge.refunded", map[string]any{"id": "pi_unknown"})
	rec := deliver(t, w, refund, signedHeader(refund, webhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, store.writes)
}

func TestWebhookUnknownEventAcknowledged(t *testing.T) {
	store := newFakeStore()
	w := &Webhook{Store: store, Secret: webhookSecret}

	payload := eventPayload("invoice.paid", map[string]any{"id": "in_1"})
	rec := deliver(t, w, payload, signedHeader(payload, webhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, store.writes)
}

func TestWebhookSessionWithoutMetadataIgnored(t *testing.T) {
	store := newFakeStore()
	w := &Webhook{Store: store, Secret: webhookSecret}

	for _, eventType := range []string{"checkout.session.completed", "checkout.session.expired"} {
		payload := eventPayload(eventType, map[string]any{
			"id":             "cs_test_999",
			"payment_intent": "pi_9",
		})
		rec := deliver(t, w, payload, signedHeader(payload, webhookSecret))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Zero(t, store.writes)
}

func TestWebhookInvalidSignatureWritesNothing(t *testing.T) {
	store := newFakeStore()
	store.addListing("listing-1", "seller-1", 50.00)
	txnID := buy(t, store)
	writesBefore := store.writes
	w := &Webhook{Store: store, Secret: webhookSecret}

	payload := eventPayload("checkout.session.completed", sessionObject(txnID, "listing-1"))
	rec := deliver(t, w, payload, signedHeader(payload, "whsec_wrong"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Webhook Error")

	assert.Equal(t, writesBefore, store.writes)
	assert.Equal(t, StatusPending, store.txns[txnID].PaymentStatus)
	assert.Equal(t, "pending", store.listings["listing-1"].Status)
}
