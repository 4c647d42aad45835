package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mintslip-workers/internal/models"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingParam     = errors.New("missing required parameter")
)

// DocumentQuery selects documents from the history index.
type DocumentQuery struct {
	QueryType    models.QueryType `json:"queryType"`
	UserID       string           `json:"userId"`
	DocumentType string           `json:"documentType,omitempty"`
	Text         string           `json:"text,omitempty"`
	From         int              `json:"from,omitempty"`
	Size         int              `json:"size,omitempty"`
}

type DocumentPage struct {
	Total     int64                      `json:"total"`
	Took      int64                      `json:"took"`
	Documents []models.GeneratedDocument `json:"documents"`
}

type queryBuilder func(q DocumentQuery) (map[string]interface{}, error)

var builders = map[models.QueryType]queryBuilder{
	models.QueryTypeUserHistory:  buildUserHistoryQuery,
	models.QueryTypeRecentByUser: buildUserHistoryQuery,
	models.QueryTypeByDocType:    buildByDocTypeQuery,
	models.QueryTypeFullText:     buildFullTextQuery,
}

// BuildQuery turns q into an Elasticsearch query body. Every query is scoped
// to q.UserID.
func BuildQuery(q DocumentQuery) (map[string]interface{}, error) {
	build, ok := builders[q.QueryType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, q.QueryType)
	}
	if q.UserID == "" {
		return nil, fmt.Errorf("%w: userId", ErrMissingParam)
	}
	body, err := build(q)
	if err != nil {
		return nil, err
	}

	size := q.Size
	if size <= 0 {
		size = 20
	}
	from := q.From
	if from < 0 {
		from = 0
	}
	body["from"] = from
	body["size"] = size
	if _, sorted := body["sort"]; !sorted {
		body["sort"] = []interface{}{
			map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}},
		}
	}
	return body, nil
}

func userFilter(userID string) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{"userId": userID}}
}

func buildUserHistoryQuery(q DocumentQuery) (map[string]interface{}, error) {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{userFilter(q.UserID)},
			},
		},
	}, nil
}

func buildByDocTypeQuery(q DocumentQuery) (map[string]interface{}, error) {
	if q.DocumentType == "" {
		return nil, fmt.Errorf("%w: documentType", ErrMissingParam)
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					userFilter(q.UserID),
					map[string]interface{}{"term": map[string]interface{}{"documentType": q.DocumentType}},
				},
			},
		},
	}, nil
}

func buildFullTextQuery(q DocumentQuery) (map[string]interface{}, error) {
	if q.Text == "" {
		return nil, fmt.Errorf("%w: text", ErrMissingParam)
	}
	filters := []interface{}{userFilter(q.UserID)}
	if q.DocumentType != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"documentType": q.DocumentType}})
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  q.Text,
							"fields": []string{"fileName^2", "documentType", "templateId"},
							"type":   "best_fields",
						},
					},
				},
				"filter": filters,
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}}},
	}, nil
}

// Search runs q against the history index.
func (r *DocumentRepository) Search(ctx context.Context, q DocumentQuery) (*DocumentPage, error) {
	body, err := BuildQuery(q)
	if err != nil {
		return nil, err
	}
	if r.es == nil {
		return nil, errors.New("elasticsearch is not configured")
	}

	res, err := r.es.Search(ctx, r.index, body)
	if err != nil {
		return nil, err
	}

	page := &DocumentPage{
		Total:     res.TotalHits,
		Took:      res.Took,
		Documents: make([]models.GeneratedDocument, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		var doc models.GeneratedDocument
		if err := json.Unmarshal(hit, &doc); err != nil {
			return nil, fmt.Errorf("decode search hit: %w", err)
		}
		page.Documents = append(page.Documents, doc)
	}
	return page, nil
}
