package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/common/payments"
	"mintslip-workers/internal/models"
	"mintslip-workers/internal/repository"
)

// MessagePaymentConfirmed is correlated by the payment reference: the Stripe
// checkout session id or the PayPal order id.
const MessagePaymentConfirmed = "payment-confirmed"

const maxWebhookBytes = 64 * 1024

func (s *Server) checkoutStatus(c *gin.Context) {
	ref := c.Param("id")
	p, err := s.deps.Payments.GetByReference(c.Request.Context(), ref)
	if err != nil {
		if stderrors.Is(err, repository.ErrPaymentNotFound) {
			s.fail(c, errors.NewResourceNotFoundError("payments", ref))
			return
		}
		s.fail(c, errors.NewDatabaseQueryFailedError("payment_by_reference", err))
		return
	}
	if p.UserID != "" && p.UserID != currentUserID(c) {
		s.fail(c, errors.NewResourceNotFoundError("payments", ref))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference": p.Reference,
		"provider":  p.Provider,
		"status":    p.Status,
		"paid":      p.Status == models.PaymentStatusPaid,
		"amount":    p.Amount,
		"currency":  p.Currency,
	})
}

// stripeWebhook verifies checkout.session.completed events, marks the
// payment paid and wakes the waiting process instance.
func (s *Server) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	completed, err := payments.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), s.cfg.Payments.Stripe.WebhookSecret)
	if err != nil {
		s.log.Warn("Rejected Stripe webhook", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}
	if completed == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	status := models.PaymentStatusPending
	if completed.PaymentStatus == "paid" || completed.PaymentStatus == "no_payment_required" {
		status = models.PaymentStatusPaid
	}
	if err := s.deps.Payments.UpdateStatus(ctx, completed.SessionID, status); err != nil && !stderrors.Is(err, repository.ErrPaymentNotFound) {
		s.log.Error("Failed to record webhook payment status", map[string]interface{}{
			"reference": completed.SessionID,
			"error":     err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure"})
		return
	}
	metrics.PaymentsTotal.WithLabelValues(string(models.ProviderStripe), string(status)).Inc()

	vars := map[string]interface{}{
		"paymentReference": completed.SessionID,
		"paymentStatus":    string(status),
	}
	if err := s.deps.Engine.PublishMessage(ctx, MessagePaymentConfirmed, completed.SessionID, vars); err != nil {
		s.log.Error("Failed to publish payment confirmation", map[string]interface{}{
			"reference": completed.SessionID,
			"error":     err.Error(),
		})
		// Stripe retries non-2xx deliveries
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

type paypalApproveRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// paypalApprove is called by the client once the buyer approves a PayPal
// order. Capture happens in verify-payment, so this only wakes the process.
func (s *Server) paypalApprove(c *gin.Context) {
	var req paypalApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewFormValidationFailedError("orderId is required"))
		return
	}

	ctx := c.Request.Context()
	p, err := s.deps.Payments.GetByReference(ctx, req.OrderID)
	if err != nil {
		if stderrors.Is(err, repository.ErrPaymentNotFound) {
			s.fail(c, errors.NewResourceNotFoundError("payments", req.OrderID))
			return
		}
		s.fail(c, errors.NewDatabaseQueryFailedError("payment_by_reference", err))
		return
	}
	if p.Provider != models.ProviderPayPal || (p.UserID != "" && p.UserID != currentUserID(c)) {
		s.fail(c, errors.NewResourceNotFoundError("payments", req.OrderID))
		return
	}

	vars := map[string]interface{}{
		"paymentReference": p.Reference,
		"paymentProvider":  string(models.ProviderPayPal),
	}
	if err := s.deps.Engine.PublishMessage(ctx, MessagePaymentConfirmed, p.Reference, vars); err != nil {
		s.fail(c, errors.NewExternalServiceError("zeebe", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"orderId": p.Reference, "status": "processing"})
}
