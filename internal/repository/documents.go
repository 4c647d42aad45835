package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mintslip-workers/internal/common/database"
	"mintslip-workers/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentsMapping is the Elasticsearch mapping of the document history index.
const DocumentsMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "userId":       {"type": "keyword"},
      "documentType": {"type": "keyword"},
      "templateId":   {"type": "keyword"},
      "fileName":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "contentType":  {"type": "keyword"},
      "sizeBytes":    {"type": "long"},
      "paymentRef":   {"type": "keyword"},
      "createdAt":    {"type": "date"}
    }
  }
}`

// DocumentRepository stores generated artifacts in Postgres and their
// metadata in Elasticsearch.
type DocumentRepository struct {
	db    *sql.DB
	es    *database.ElasticsearchClient
	index string
}

func NewDocumentRepository(db *sql.DB, es *database.ElasticsearchClient, index string) *DocumentRepository {
	if index == "" {
		index = "mintslip-documents"
	}
	return &DocumentRepository{db: db, es: es, index: index}
}

func (r *DocumentRepository) Index() string {
	return r.index
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *models.GeneratedDocument) error {
	var paymentRef interface{}
	if doc.PaymentRef != "" {
		paymentRef = doc.PaymentRef
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generated_documents (id, user_id, document_type, template_id, file_name, content_type, size_bytes, payment_ref, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.UserID, doc.DocumentType, doc.TemplateID, doc.FileName,
		doc.ContentType, doc.SizeBytes, paymentRef, doc.Content, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	return nil
}

// IndexMetadata makes doc searchable. The content bytes are never indexed.
func (r *DocumentRepository) IndexMetadata(ctx context.Context, doc *models.GeneratedDocument) error {
	if r.es == nil {
		return errors.New("elasticsearch is not configured")
	}
	return r.es.IndexDocument(ctx, r.index, doc.ID, doc)
}

// Get loads a document with its content. A userID other than the owner's
// reports not found.
func (r *DocumentRepository) Get(ctx context.Context, id, userID string) (*models.GeneratedDocument, error) {
	var doc models.GeneratedDocument
	var paymentRef sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, document_type, template_id, file_name, content_type, size_bytes, payment_ref, content, created_at
		FROM generated_documents
		WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&doc.ID, &doc.UserID, &doc.DocumentType, &doc.TemplateID, &doc.FileName,
		&doc.ContentType, &doc.SizeBytes, &paymentRef, &doc.Content, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("query document %s: %w", id, err)
	}
	doc.PaymentRef = paymentRef.String
	return &doc, nil
}

// ListRecent returns the newest documents of a user without their content.
func (r *DocumentRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.GeneratedDocument, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, document_type, template_id, file_name, content_type, size_bytes, payment_ref, created_at
		FROM generated_documents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []models.GeneratedDocument{}
	for rows.Next() {
		var doc models.GeneratedDocument
		var paymentRef sql.NullString
		if err := rows.Scan(
			&doc.ID, &doc.UserID, &doc.DocumentType, &doc.TemplateID, &doc.FileName,
			&doc.ContentType, &doc.SizeBytes, &paymentRef, &doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.PaymentRef = paymentRef.String
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
