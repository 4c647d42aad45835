// internal/workers/documents/query-documents/handler.go
package querydocuments

import (
	"context"
	stderrors "errors"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/observability"
	"mintslip-workers/internal/models"
	"mintslip-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "query-documents"
)

type DocumentFinder interface {
	Search(ctx context.Context, q repository.DocumentQuery) (*repository.DocumentPage, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.GeneratedDocument, error)
	Index() string
}

type Handler struct {
	config *Config
	repo   DocumentFinder
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, repo DocumentFinder, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		repo:   repo,
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

// Execute answers recent_by_user from Postgres, which sees a document before
// the index refreshes. Every other query type goes to Elasticsearch.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	size := input.Size
	if size <= 0 || (h.config.MaxResults > 0 && size > h.config.MaxResults) {
		size = h.config.MaxResults
	}
	q := repository.DocumentQuery{
		QueryType:    models.QueryType(input.QueryType),
		UserID:       input.UserID,
		DocumentType: input.DocumentType,
		Text:         input.Text,
		From:         input.From,
		Size:         size,
	}
	if q.QueryType == "" {
		q.QueryType = models.QueryTypeUserHistory
	}

	if q.QueryType == models.QueryTypeRecentByUser {
		if q.UserID == "" {
			return nil, errors.NewFormValidationFailedError("userId is required")
		}
		docs, err := h.repo.ListRecent(ctx, q.UserID, size)
		if err != nil {
			return nil, errors.NewDatabaseQueryFailedError(string(q.QueryType), err)
		}
		return &Output{Documents: docs, Total: int64(len(docs))}, nil
	}

	page, err := h.repo.Search(ctx, q)
	if err != nil {
		if stderrors.Is(err, repository.ErrUnknownQueryType) || stderrors.Is(err, repository.ErrMissingParam) {
			return nil, errors.NewFormValidationFailedError(err.Error())
		}
		return nil, errors.NewSearchQueryFailedError(h.repo.Index(), err)
	}

	h.logger.Debug("documents queried", map[string]interface{}{
		"queryType": q.QueryType,
		"total":     page.Total,
		"took":      page.Took,
	})
	return &Output{Documents: page.Documents, Total: page.Total, Took: page.Took}, nil
}
