// internal/workers/documents/generate-pdf/handler.go
package generatepdf

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/models"
	"mintslip-workers/internal/render"
	"mintslip-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "generate-pdf"
)

var documentNamespace = uuid.MustParse("6f1c3a52-6c1e-4d59-9a40-2f5d7d9b8e11")

type PDFRenderer interface {
	RenderPDF(docType, templateID string, form documents.FormData, opts render.Options) ([]byte, error)
	RenderBatch(ctx context.Context, items []render.BatchItem, concurrency int) ([]byte, error)
}

type DocumentStore interface {
	Get(ctx context.Context, id, userID string) (*models.GeneratedDocument, error)
	Insert(ctx context.Context, doc *models.GeneratedDocument) error
	IndexMetadata(ctx context.Context, doc *models.GeneratedDocument) error
	Index() string
}

type SessionRemover interface {
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	config   *Config
	renderer PDFRenderer
	store    DocumentStore
	sessions SessionRemover
	now      func() time.Time
	runner   *camunda.JobRunner
	logger   logger.Logger
}

func NewHandler(config *Config, renderer PDFRenderer, store DocumentStore, sessions SessionRemover, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		renderer: renderer,
		store:    store,
		sessions: sessions,
		now:      time.Now,
		runner:   camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

// DocumentID derives the stored document id from the form session and the
// payment, so a retried job finds the row its first attempt wrote.
func DocumentID(formSessionID, paymentReference string) string {
	return uuid.NewSHA1(documentNamespace, []byte(formSessionID+"|"+paymentReference)).String()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, errors.NewFormValidationFailedError("userId is required")
	}
	if input.FormSessionID == "" {
		return nil, errors.NewFormValidationFailedError("formSessionId is required")
	}

	id := DocumentID(input.FormSessionID, input.PaymentReference)
	doc, err := h.store.Get(ctx, id, input.UserID)
	switch {
	case err == nil:
		h.logger.Info("document already generated", map[string]interface{}{"documentId": id})
	case stderrors.Is(err, repository.ErrDocumentNotFound):
		doc, err = h.generate(ctx, id, input)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewDatabaseQueryFailedError("document_by_id", err)
	}

	if err := h.store.IndexMetadata(ctx, doc); err != nil {
		return nil, errors.NewSearchIndexFailedError(h.store.Index(), err)
	}

	if err := h.sessions.Delete(ctx, input.FormSessionID); err != nil {
		h.logger.Warn("failed to discard form session", map[string]interface{}{
			"formSessionId": input.FormSessionID,
			"error":         err.Error(),
		})
	}

	return &Output{
		DocumentID:  doc.ID,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		DownloadURL: fmt.Sprintf("%s/api/documents/%s/download", h.config.DownloadBaseURL, doc.ID),
	}, nil
}

func (h *Handler) generate(ctx context.Context, id string, input *Input) (*models.GeneratedDocument, error) {
	now := h.now().UTC()
	doc := &models.GeneratedDocument{
		ID:           id,
		UserID:       input.UserID,
		DocumentType: input.DocumentType,
		TemplateID:   input.TemplateID,
		PaymentRef:   input.PaymentReference,
		CreatedAt:    now,
	}

	var content []byte
	var err error
	if len(input.Batch) > 0 {
		content, err = h.renderer.RenderBatch(ctx, input.Batch, h.config.BatchConcurrency)
		doc.DocumentType = "batch"
		doc.ContentType = models.ContentTypeZIP
		doc.FileName = fmt.Sprintf("mintslip-documents-%s.zip", now.Format("20060102"))
	} else {
		content, err = h.renderer.RenderPDF(input.DocumentType, input.TemplateID, documents.FormData(input.FormData), render.Options{})
		doc.ContentType = models.ContentTypePDF
		doc.FileName = fmt.Sprintf("%s-%s.pdf", input.DocumentType, now.Format("20060102"))
	}
	if err != nil {
		return nil, err
	}
	doc.Content = content
	doc.SizeBytes = int64(len(content))

	if err := h.store.Insert(ctx, doc); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	h.logger.Info("document generated", map[string]interface{}{
		"documentId":  doc.ID,
		"contentType": doc.ContentType,
		"sizeBytes":   doc.SizeBytes,
	})
	return doc, nil
}
