package stripe

import (
	"context"
	"strconv"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// PaymentIntentClient is the subset of the PaymentIntent API the payment
// service depends on.
type PaymentIntentClient interface {
	Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type paymentIntentWrapper struct{}

// NewPaymentIntentClient returns a PaymentIntentClient backed by the
// configured Stripe key.
func NewPaymentIntentClient(api *Client) PaymentIntentClient {
	if api == nil {
		return nil
	}
	return &paymentIntentWrapper{}
}

func (w *paymentIntentWrapper) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

// OrderPaymentIntentParams builds the params for paying an order.
func OrderPaymentIntentParams(orderID uint, orderNumber string, amountCents int64, currency string) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Catering order " + orderNumber),
	}
	params.AddMetadata("order_id", strconv.FormatUint(uint64(orderID), 10))
	params.AddMetadata("order_number", orderNumber)
	params.SetIdempotencyKey("order-" + strconv.FormatUint(uint64(orderID), 10) + "-" + strconv.FormatInt(amountCents, 10))
	return params
}
