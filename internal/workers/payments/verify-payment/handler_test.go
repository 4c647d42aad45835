// internal/workers/payments/verify-payment/handler_test.go
package verifypayment

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/payments"
	"mintslip-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) VerifyPayment(ctx context.Context, provider models.PaymentProvider, reference string) (*payments.Verification, error) {
	args := m.Called(ctx, provider, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Verification), args.Error(1)
}

func createTestHandler(t *testing.T, svc PaymentVerifier) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, svc, logger.NewTestLogger(t), nil)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		provider  models.PaymentProvider
		reference string
		duplicate bool
	}{
		{
			name:      "stripe session",
			input:     &Input{PaymentProvider: "stripe", PaymentReference: "cs_test_1"},
			provider:  models.ProviderStripe,
			reference: "cs_test_1",
		},
		{
			name:      "paypal order with padding",
			input:     &Input{PaymentProvider: " PAYPAL ", PaymentReference: " 5O190127TN364715T "},
			provider:  models.ProviderPayPal,
			reference: "5O190127TN364715T",
		},
		{
			name:      "replayed confirmation",
			input:     &Input{PaymentReference: "cs_test_1"},
			provider:  models.ProviderStripe,
			reference: "cs_test_1",
			duplicate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPayments)
			svc.On("VerifyPayment", mock.Anything, tt.provider, tt.reference).Return(&payments.Verification{
				Provider:   tt.provider,
				Reference:  tt.reference,
				Status:     models.PaymentStatusPaid,
				AmountPaid: 9.99,
				Duplicate:  tt.duplicate,
			}, nil)

			handler := createTestHandler(t, svc)
			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.True(t, output.PaymentVerified)
			assert.Equal(t, "paid", output.PaymentStatus)
			assert.Equal(t, 9.99, output.AmountPaid)
			assert.Equal(t, tt.duplicate, output.PaymentDuplicate)
			svc.AssertExpectations(t)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode errors.ErrorCode
	}{
		{name: "cancelled", err: errors.NewPaymentCancelledError("stripe", "cs_1"), wantCode: errors.ErrCodePaymentCancelled},
		{name: "pending", err: errors.NewPaymentPendingError("stripe", "cs_1"), wantCode: errors.ErrCodePaymentPending},
		{name: "provider down", err: errors.NewPaymentFailedError("stripe", stderrors.New("503")), wantCode: errors.ErrCodePaymentFailed},
		{name: "missing reference", err: errors.NewFormValidationFailedError("payment reference is required"), wantCode: errors.ErrCodeFormValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPayments)
			svc.On("VerifyPayment", mock.Anything, models.ProviderStripe, "cs_1").Return(nil, tt.err)

			handler := createTestHandler(t, svc)
			output, err := handler.Execute(context.Background(), &Input{PaymentProvider: "stripe", PaymentReference: "cs_1"})

			require.Error(t, err)
			assert.Nil(t, output)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}
