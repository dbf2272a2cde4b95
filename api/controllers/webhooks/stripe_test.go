package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/aerogourmet-backend/internal/payments"
)

const signingSecret = "whsec_ag_test"

type staticSecret string

func (s staticSecret) SigningSecret() string { return string(s) }

type recordingHandler struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *stripe.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event.ID)
	return h.err
}

func (h *recordingHandler) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

type markerStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMarkerStore() *markerStore {
	return &markerStore{data: map[string]string{}}
}

func (s *markerStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	return true, nil
}

func (s *markerStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = fmt.Sprint(value)
	return nil
}

func (s *markerStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *markerStore) WebhookEventKey(provider, eventID string) string {
	return "ag:webhook:" + provider + ":" + eventID
}

func (s *markerStore) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

func newWebhook(t *testing.T, handler PaymentEventHandler, store *markerStore) http.Handler {
	t.Helper()
	guard, err := payments.NewEventGuard(store, time.Hour, "stripe")
	require.NoError(t, err)
	return StripeWebhook(handler, staticSecret(signingSecret), guard, nil)
}

func deliver(h http.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhookHandlesOnce(t *testing.T) {
	handler := &recordingHandler{}
	store := newMarkerStore()
	h := newWebhook(t, handler, store)
	payload, sig := signedIntentEvent(t, "evt_ag_1001")

	rec := deliver(h, payload, sig)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":{"received":true}}`, rec.Body.String())
	assert.Equal(t, "done", store.value("ag:webhook:stripe:evt_ag_1001"))

	rec = deliver(h, payload, sig)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, handler.calls(), "redelivery must not reapply the payment")
}

func TestStripeWebhookRejectsBadSignatures(t *testing.T) {
	payload, _ := signedIntentEvent(t, "evt_ag_1002")
	tests := []struct {
		name string
		sig  string
	}{
		{name: "missing", sig: ""},
		{name: "forged", sig: "t=1,v1=deadbeef"},
		{name: "wrong secret", sig: signatureFor(payload, "whsec_other", time.Now().Unix())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &recordingHandler{}
			rec := deliver(newWebhook(t, handler, newMarkerStore()), payload, tt.sig)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, handler.calls())
		})
	}
}

func TestStripeWebhookReleasesFailedDelivery(t *testing.T) {
	handler := &recordingHandler{err: errors.New("orders table locked")}
	store := newMarkerStore()
	h := newWebhook(t, handler, store)
	payload, sig := signedIntentEvent(t, "evt_ag_1003")

	rec := deliver(h, payload, sig)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, store.value("ag:webhook:stripe:evt_ag_1003"))

	handler.err = nil
	rec = deliver(h, payload, sig)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"evt_ag_1003", "evt_ag_1003"}, handler.events)
}

func TestStripeWebhookUnconfigured(t *testing.T) {
	payload, sig := signedIntentEvent(t, "evt_ag_1004")
	rec := deliver(StripeWebhook(nil, staticSecret(signingSecret), nil, nil), payload, sig)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func signedIntentEvent(t *testing.T, eventID string) ([]byte, string) {
	t.Helper()
	intent, err := json.Marshal(&stripe.PaymentIntent{
		ID:       "pi_ag_" + eventID,
		Status:   stripe.PaymentIntentStatusSucceeded,
		Amount:   22600,
		Currency: stripe.CurrencyEUR,
		Metadata: map[string]string{"order_id": "42"},
	})
	require.NoError(t, err)
	payload, err := json.Marshal(&stripe.Event{
		ID:         eventID,
		Type:       stripe.EventTypePaymentIntentSucceeded,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: intent},
	})
	require.NoError(t, err)
	return payload, signatureFor(payload, signingSecret, time.Now().Unix())
}

func signatureFor(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
