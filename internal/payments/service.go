// Package payments creates Stripe PaymentIntents for orders and applies the
// outcome reported by Stripe webhooks.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/internal/invoices"
	"github.com/angelmondragon/aerogourmet-backend/internal/orders"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	pkgstripe "github.com/angelmondragon/aerogourmet-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderReader interface {
	GetOrder(ctx context.Context, actor orders.Actor, orderID uint) (*models.Order, error)
}

type activityRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry activity.Entry) error
}

// IntentResult is returned to the client to confirm the payment.
type IntentResult struct {
	PaymentID       uint   `json:"paymentId"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currency"`
}

type ServiceParams struct {
	Repository Repository
	TxRunner   txRunner
	Orders     orderReader
	Intents    pkgstripe.PaymentIntentClient
	Activity   activityRecorder
	Invoice    config.InvoiceConfig
	Currency   string
	Logger     *logger.Logger
	Now        func() time.Time
}

type Service struct {
	repo     Repository
	tx       txRunner
	orders   orderReader
	intents  pkgstripe.PaymentIntentClient
	activity activityRecorder
	invoice  config.InvoiceConfig
	currency string
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment repository required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order reader required")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "eur"
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     params.Repository,
		tx:       params.TxRunner,
		orders:   params.Orders,
		intents:  params.Intents,
		activity: params.Activity,
		invoice:  params.Invoice,
		currency: currency,
		logg:     logg,
		now:      now,
	}, nil
}

// CreateIntent charges the order's gross invoice amount. Repeated calls for an
// unchanged amount reuse the same PaymentIntent.
func (s *Service) CreateIntent(ctx context.Context, actor orders.Actor, orderID uint) (*IntentResult, error) {
	if s.intents == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments are not configured")
	}
	order, err := s.orders.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is cancelled")
	}
	if order.PaymentStatus.IsSettled() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already paid")
	}

	inv := invoices.Compute(order, s.invoice.VATRate(string(order.Location)), s.now())
	if inv.GrossCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	intent, err := s.intents.Create(ctx, pkgstripe.OrderPaymentIntentParams(order.ID, order.OrderNumber, inv.GrossCents, s.currency))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	var record *models.PaymentRecord
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByIntentID(ctx, intent.ID)
		switch {
		case err == nil:
			if err := repo.Update(ctx, existing.ID, map[string]any{
				"amount_cents": inv.GrossCents,
				"status":       enums.PaymentStatusPending,
			}); err != nil {
				return err
			}
			existing.AmountCents = inv.GrossCents
			existing.Status = enums.PaymentStatusPending
			record = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = &models.PaymentRecord{
				OrderID:               order.ID,
				StripePaymentIntentID: intent.ID,
				AmountCents:           inv.GrossCents,
				Currency:              s.currency,
				Status:                enums.PaymentStatusPending,
			}
			if err := repo.Create(ctx, record); err != nil {
				return err
			}
		default:
			return err
		}
		return repo.SetOrderPaymentStatus(ctx, order.ID, enums.PaymentStatusPending)
	})
	if err != nil {
		return nil, db.MapError(err, "payment")
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID)
	s.logg.Info(s.logg.WithField(logCtx, "payment_intent_id", intent.ID), "payments.intent_created")

	return &IntentResult{
		PaymentID:       record.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountCents:     inv.GrossCents,
		Currency:        s.currency,
	}, nil
}

// HandleEvent applies payment_intent.succeeded and
// payment_intent.payment_failed. Other event types are ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var status enums.PaymentStatus
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		status = enums.PaymentStatusPaid
	case stripe.EventTypePaymentIntentPaymentFailed:
		status = enums.PaymentStatusFailed
	default:
		return nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return s.applyOutcome(ctx, &intent, status)
}

func (s *Service) applyOutcome(ctx context.Context, intent *stripe.PaymentIntent, status enums.PaymentStatus) error {
	logCtx := s.logg.WithField(ctx, "payment_intent_id", intent.ID)

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByIntentID(ctx, intent.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(logCtx, "payments.unknown_intent")
			return nil
		}
		if err != nil {
			return db.MapError(err, "payment")
		}
		if !record.Status.CanMoveTo(status) {
			s.logg.Info(s.logg.WithField(logCtx, "current_status", record.Status), "payments.outcome_ignored")
			return nil
		}

		updates := map[string]any{"status": status}
		var failure *string
		if status == enums.PaymentStatusFailed && intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			msg := intent.LastPaymentError.Msg
			failure = &msg
			updates["failure_message"] = msg
		}
		if err := repo.Update(ctx, record.ID, updates); err != nil {
			return db.MapError(err, "payment")
		}
		if err := repo.SetOrderPaymentStatus(ctx, record.OrderID, status); err != nil {
			return db.MapError(err, "order")
		}

		if s.activity != nil {
			action := activity.ActionPaymentSucceeded
			if status == enums.PaymentStatusFailed {
				action = activity.ActionPaymentFailed
			}
			entityID := record.ID
			if err := s.activity.RecordTx(ctx, tx, activity.Entry{
				Action:     action,
				EntityType: activity.EntityPayment,
				EntityID:   &entityID,
				Details: map[string]any{
					"orderId":         record.OrderID,
					"paymentIntentId": intent.ID,
					"amountCents":     record.AmountCents,
					"failureMessage":  failure,
				},
			}); err != nil {
				return err
			}
		}

		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
			"order_id": record.OrderID,
			"status":   status,
		}), "payments.outcome_applied")
		return nil
	})
}

// ForOrder lists payment attempts for an order visible to the actor.
func (s *Service) ForOrder(ctx context.Context, actor orders.Actor, orderID uint) ([]models.PaymentRecord, error) {
	if _, err := s.orders.GetOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return records, nil
}
