// internal/workers/notifications/send-notification/handler.go
package sendnotification

import (
	"context"
	"time"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/render"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	now    func() time.Time
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
		now:    time.Now,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	notificationType := input.NotificationType
	if notificationType == "" {
		notificationType = TypeDocumentReady
	}
	tmpl, ok := templates[notificationType]
	if !ok {
		return nil, errors.NewFormValidationFailedError("unknown notification type: " + notificationType)
	}

	data := templateData(h.config.ProductName, input)
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	if h.config.EmailEnabled && h.email != nil && input.UserEmail != "" {
		text := renderTemplate(tmpl.Body, data)
		if input.DocumentHTML != "" {
			plain, err := render.PlainText(input.DocumentHTML)
			if err != nil {
				h.logger.Warn("document text extraction failed", map[string]interface{}{"error": err.Error()})
			} else if plain != "" {
				text += "\n" + plain
			}
		}

		messageID, err := h.email.SendEmail(ctx, input.UserEmail, renderTemplate(tmpl.Subject, data), text, input.DocumentHTML)
		if err != nil {
			metrics.NotificationsSent.WithLabelValues("email", "failed").Inc()
			return nil, errors.NewNotificationSendFailedError(notificationType, err)
		}
		metrics.NotificationsSent.WithLabelValues("email", StatusSent).Inc()
		h.logger.Info("email sent", map[string]interface{}{
			"notificationType": notificationType,
			"messageId":        messageID,
		})
		output.Status = StatusSent
	}

	if h.config.SMSEnabled && h.sms != nil && input.UserPhone != "" {
		messageID, err := h.sms.SendSMS(ctx, input.UserPhone, renderTemplate(tmpl.SMS, data))
		if err != nil {
			metrics.NotificationsSent.WithLabelValues("sms", "failed").Inc()
			// the email already went out, so a retry would send it twice
			if output.Status == StatusSent {
				h.logger.Error("SMS send failed", map[string]interface{}{"error": err.Error()})
				return output, nil
			}
			return nil, errors.NewNotificationSendFailedError(notificationType, err)
		}
		metrics.NotificationsSent.WithLabelValues("sms", StatusSent).Inc()
		h.logger.Info("SMS sent", map[string]interface{}{
			"notificationType": notificationType,
			"messageId":        messageID,
		})
		output.Status = StatusSent
	}

	return output, nil
}
