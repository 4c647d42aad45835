package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mintslip-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// SearchResult is the decoded part of a search response the service uses.
type SearchResult struct {
	TotalHits int64
	MaxScore  float64
	Took      int64
	Hits      []json.RawMessage
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if len(esCfg.Addresses) == 0 && cfg.URL != "" {
		esCfg.Addresses = []string{cfg.URL}
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// EnsureIndex creates index with mapping unless it already exists.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index, mapping string) error {
	res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists check failed: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = c.Client.Indices.Create(
		index,
		c.Client.Indices.Create.WithBody(strings.NewReader(mapping)),
		c.Client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index create failed: %w", err)
	}
	defer res.Body.Close()

	// a concurrent creator may have won the race
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("index create error: %s", res.String())
	}
	return nil
}

// IndexDocument stores doc under id, replacing an earlier version.
func (c *ElasticsearchClient) IndexDocument(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := c.Client.Index(
		index,
		bytes.NewReader(body),
		c.Client.Index.WithDocumentID(id),
		c.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}

// Search runs a query DSL body against index.
func (c *ElasticsearchClient) Search(ctx context.Context, index string, query map[string]interface{}) (*SearchResult, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := c.Client.Search(
		c.Client.Search.WithContext(ctx),
		c.Client.Search.WithIndex(index),
		c.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &SearchResult{
		TotalHits: sr.Hits.Total.Value,
		Took:      sr.Took,
		Hits:      make([]json.RawMessage, 0, len(sr.Hits.Hits)),
	}
	if sr.Hits.MaxScore != nil {
		result.MaxScore = *sr.Hits.MaxScore
	}
	for _, hit := range sr.Hits.Hits {
		result.Hits = append(result.Hits, hit.Source)
	}
	return result, nil
}
