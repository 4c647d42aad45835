package payments

import (
	"context"
	stderrors "errors"
	"time"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/models"
)

// CheckoutResult is a checkout session plus whether it was replayed.
type CheckoutResult struct {
	Session   models.CheckoutSession `json:"session"`
	Duplicate bool                   `json:"duplicate"`
}

type Service struct {
	gateways map[models.PaymentProvider]Gateway
	idem     *IdempotencyStore
	payments PaymentRecorder
	logger   logger.Logger
}

func NewService(idem *IdempotencyStore, payments PaymentRecorder, log logger.Logger, gateways ...Gateway) *Service {
	s := &Service{
		gateways: make(map[models.PaymentProvider]Gateway, len(gateways)),
		idem:     idem,
		payments: payments,
		logger:   log.WithFields(map[string]interface{}{"component": "payments"}),
	}
	for _, g := range gateways {
		if g != nil {
			s.gateways[g.Provider()] = g
		}
	}
	return s
}

func (s *Service) gateway(provider models.PaymentProvider) (Gateway, error) {
	g, ok := s.gateways[provider]
	if !ok {
		return nil, errors.NewPaymentProviderUnsupportedError(string(provider))
	}
	return g, nil
}

// CreateCheckout opens a checkout with provider. The idempotency key is
// required; a repeated key returns the first session without calling the
// provider again.
func (s *Service) CreateCheckout(ctx context.Context, provider models.PaymentProvider, req CheckoutRequest) (*CheckoutResult, error) {
	g, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}
	if req.IdempotencyKey == "" {
		return nil, errors.NewFormValidationFailedError("idempotencyKey is required")
	}
	if req.Amount <= 0 {
		return nil, errors.NewFormValidationFailedError("amount must be positive")
	}

	key := CheckoutKey(req.IdempotencyKey)
	var recorded models.CheckoutSession
	fresh, err := s.idem.Reserve(ctx, key, &recorded)
	if err != nil {
		if stderrors.Is(err, ErrInFlight) {
			return nil, errors.NewPaymentPendingError(string(provider), req.IdempotencyKey)
		}
		return nil, errors.NewCacheUnavailableError(err)
	}
	if !fresh {
		s.logger.Info("duplicate checkout request", map[string]interface{}{
			"idempotencyKey": req.IdempotencyKey,
			"reference":      recorded.Reference,
		})
		// the first attempt may have failed between recording and inserting
		if err := s.recordPayment(ctx, provider, req, &recorded); err != nil {
			return nil, err
		}
		return &CheckoutResult{Session: recorded, Duplicate: true}, nil
	}

	session, err := g.CreateCheckout(ctx, req)
	if err != nil {
		if relErr := s.idem.Release(ctx, key); relErr != nil {
			s.logger.Warn("failed to release idempotency key", map[string]interface{}{"key": key, "error": relErr.Error()})
		}
		metrics.PaymentsTotal.WithLabelValues(string(provider), string(models.PaymentStatusFailed)).Inc()
		return nil, errors.NewPaymentFailedError(string(provider), err)
	}

	if err := s.idem.Complete(ctx, key, session); err != nil {
		s.logger.Error("failed to record checkout result", map[string]interface{}{"key": key, "error": err.Error()})
	}

	if err := s.recordPayment(ctx, provider, req, session); err != nil {
		return nil, err
	}

	metrics.PaymentsTotal.WithLabelValues(string(provider), string(models.PaymentStatusCreated)).Inc()
	return &CheckoutResult{Session: *session}, nil
}

func (s *Service) recordPayment(ctx context.Context, provider models.PaymentProvider, req CheckoutRequest, session *models.CheckoutSession) error {
	now := time.Now().UTC()
	err := s.payments.Insert(ctx, &models.Payment{
		Reference:      session.Reference,
		Provider:       provider,
		IdempotencyKey: req.IdempotencyKey,
		UserID:         req.UserID,
		Amount:         session.Amount,
		Currency:       session.Currency,
		Status:         models.PaymentStatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// VerifyPayment confirms reference with the provider and fulfils it at most
// once. A repeated verification of a paid reference returns the recorded
// result flagged as duplicate.
func (s *Service) VerifyPayment(ctx context.Context, provider models.PaymentProvider, reference string) (*Verification, error) {
	g, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}
	if reference == "" {
		return nil, errors.NewFormValidationFailedError("payment reference is required")
	}

	key := FulfilKey(reference)
	var recorded Verification
	found, err := s.idem.Load(ctx, key, &recorded)
	if err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}
	if found {
		recorded.Duplicate = true
		return &recorded, nil
	}

	v, err := g.Verify(ctx, reference)
	if err != nil {
		if _, ok := errors.AsStandardError(err); ok {
			return nil, err
		}
		metrics.PaymentsTotal.WithLabelValues(string(provider), string(models.PaymentStatusFailed)).Inc()
		return nil, errors.NewPaymentFailedError(string(provider), err)
	}
	metrics.PaymentsTotal.WithLabelValues(string(provider), string(v.Status)).Inc()

	if v.Status != models.PaymentStatusPaid {
		if err := s.payments.UpdateStatus(ctx, reference, v.Status); err != nil {
			s.logger.Warn("failed to update payment status", map[string]interface{}{"reference": reference, "error": err.Error()})
		}
		switch v.Status {
		case models.PaymentStatusPending:
			return nil, errors.NewPaymentPendingError(string(provider), reference)
		case models.PaymentStatusCancelled:
			return nil, errors.NewPaymentCancelledError(string(provider), reference)
		default:
			return nil, errors.NewPaymentFailedError(string(provider), nil)
		}
	}

	first, err := s.idem.CompleteOnce(ctx, key, v)
	if err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}
	if !first {
		if ok, err := s.idem.Load(ctx, key, &recorded); err == nil && ok {
			recorded.Duplicate = true
			return &recorded, nil
		}
		v.Duplicate = true
		return v, nil
	}

	if err := s.payments.UpdateStatus(ctx, reference, models.PaymentStatusPaid); err != nil {
		s.logger.Error("failed to mark payment paid", map[string]interface{}{"reference": reference, "error": err.Error()})
	}
	return v, nil
}
