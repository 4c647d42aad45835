package payments

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"mintslip-workers/internal/common/backend"
	"mintslip-workers/internal/common/config"
	"mintslip-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type fakeSessions struct {
	created *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	return f.session, f.err
}

func (f *fakeSessions) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return f.session, f.err
}

type fakeStatus struct {
	status *backend.CheckoutStatus
}

func (f *fakeStatus) CheckoutStatus(ctx context.Context, token, sessionID string) (*backend.CheckoutStatus, error) {
	return f.status, nil
}

func stripeTestConfig() config.StripeConfig {
	return config.StripeConfig{
		SuccessURL: "https://mintslip.test/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://mintslip.test/cancel",
	}
}

func TestStripeGateway_CreateCheckout(t *testing.T) {
	fake := &fakeSessions{session: &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}}
	g := NewStripeGatewayWithAPI(stripeTestConfig(), fake, nil)

	session, err := g.CreateCheckout(context.Background(), CheckoutRequest{
		Amount:         19.98,
		Currency:       "USD",
		Description:    "W-2 (template-b)",
		IdempotencyKey: "idem-1",
		UserID:         "u-1",
		DocumentType:   "w2",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", session.Reference)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.RedirectURL)
	assert.Equal(t, "usd", session.Currency)

	require.NotNil(t, fake.created)
	assert.Equal(t, "idem-1", *fake.created.IdempotencyKey)
	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *fake.created.Mode)
	require.Len(t, fake.created.LineItems, 1)
	assert.Equal(t, int64(1998), *fake.created.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "w2", fake.created.Metadata["documentType"])
}

func TestStripeGateway_CreateCheckoutError(t *testing.T) {
	g := NewStripeGatewayWithAPI(stripeTestConfig(), &fakeSessions{err: stderrors.New("invalid api key")}, nil)

	_, err := g.CreateCheckout(context.Background(), CheckoutRequest{Amount: 1, Currency: "usd"})
	assert.Error(t, err)
}

func TestStripeGateway_Verify(t *testing.T) {
	tests := []struct {
		name    string
		session *stripe.CheckoutSession
		want    models.PaymentStatus
	}{
		{"paid", &stripe.CheckoutSession{Status: stripe.CheckoutSessionStatusComplete, PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid, AmountTotal: 999}, models.PaymentStatusPaid},
		{"open", &stripe.CheckoutSession{Status: stripe.CheckoutSessionStatusOpen, PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid}, models.PaymentStatusPending},
		{"expired", &stripe.CheckoutSession{Status: stripe.CheckoutSessionStatusExpired}, models.PaymentStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewStripeGatewayWithAPI(stripeTestConfig(), &fakeSessions{session: tt.session}, nil)
			v, err := g.Verify(context.Background(), "cs_1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Status)
		})
	}
}

func TestStripeGateway_VerifyViaBackend(t *testing.T) {
	cfg := stripeTestConfig()
	cfg.VerifyViaBackend = true
	g := NewStripeGatewayWithAPI(cfg, &fakeSessions{}, &fakeStatus{status: &backend.CheckoutStatus{Status: "complete", PaymentStatus: "paid"}})

	v, err := g.Verify(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, v.Status)
}

func TestParseWebhook(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_1", "object": "checkout.session", "payment_status": "paid", "metadata": {"documentType": "paystub"}}}
	}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	completed, err := ParseWebhook(payload, signed.Header, "whsec_test")
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, "cs_test_1", completed.SessionID)
	assert.Equal(t, "paid", completed.PaymentStatus)
	assert.Equal(t, "paystub", completed.Metadata["documentType"])

	_, err = ParseWebhook(payload, signed.Header, "whsec_other")
	assert.Error(t, err)
}

func TestParseWebhook_IgnoresOtherEvents(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"invoice.paid","data":{"object":{}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: "s", Timestamp: time.Now()})

	completed, err := ParseWebhook(payload, signed.Header, "s")
	require.NoError(t, err)
	assert.Nil(t, completed)
}
