// Package elastic keeps a searchable copy of the product catalog in
// Elasticsearch. Documents are written from product events, so search results
// are eventually consistent with the primary store.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

const (
	defaultIndex   = "products"
	requestTimeout = 3 * time.Second
)

type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// NewClient builds an Elasticsearch client. It does not contact the cluster.
func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

// productDoc is the indexed shape of a product.
type productDoc struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	UserID      string    `json:"userId"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Catalog indexes product events and answers search queries.
type Catalog struct {
	transport esapi.Transport
	index     string
}

// NewCatalog returns a Catalog writing to index (defaultIndex when empty).
// transport is usually an *elasticsearch.Client.
func NewCatalog(transport esapi.Transport, index string) *Catalog {
	if index == "" {
		index = defaultIndex
	}
	return &Catalog{transport: transport, index: index}
}

// Write applies one product event to the index. Deleting a document that is
// already gone is not an error.
func (c *Catalog) Write(ctx context.Context, event domain.ProductEvent) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch event.Type {
	case domain.ProductCreated, domain.ProductUpdated:
		body, err := json.Marshal(productDoc{
			ID:          event.ProductID,
			Name:        event.Name,
			Description: event.Description,
			Price:       event.Price,
			UserID:      event.UserID,
			UpdatedAt:   event.OccurredAt,
		})
		if err != nil {
			return fmt.Errorf("elastic: marshal product: %w", err)
		}
		res, err := esapi.IndexRequest{
			Index:      c.index,
			DocumentID: event.ProductID,
			Body:       bytes.NewReader(body),
		}.Do(ctx, c.transport)
		return checkResponse("index", res, err)

	case domain.ProductDeleted:
		res, err := esapi.DeleteRequest{
			Index:      c.index,
			DocumentID: event.ProductID,
		}.Do(ctx, c.transport)
		if err == nil && res.StatusCode == http.StatusNotFound {
			_ = res.Body.Close()
			return nil
		}
		return checkResponse("delete", res, err)
	}
	return fmt.Errorf("elastic: unknown event type %q", event.Type)
}

// Search runs a fuzzy multi_match over name and description.
func (c *Catalog) Search(ctx context.Context, query string, from, size int) (*ports.ProductSearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: marshal query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.transport)
	if err != nil {
		return nil, fmt.Errorf("elastic search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elastic search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source productDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("elastic search decode: %w", err)
	}

	out := &ports.ProductSearchResult{
		Total:    parsed.Hits.Total.Value,
		Products: make([]*domain.Product, 0, len(parsed.Hits.Hits)),
	}
	for _, hit := range parsed.Hits.Hits {
		d := hit.Source
		out.Products = append(out.Products, &domain.Product{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Price:       d.Price,
			UserID:      d.UserID,
			UpdatedAt:   d.UpdatedAt,
		})
	}
	return out, nil
}

// Ping checks that the cluster answers.
func (c *Catalog) Ping(ctx context.Context) error {
	res, err := esapi.PingRequest{}.Do(ctx, c.transport)
	return checkResponse("ping", res, err)
}

func checkResponse(op string, res *esapi.Response, err error) error {
	if err != nil {
		return fmt.Errorf("elastic %s: %w", op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("elastic %s: %s: %s", op, res.Status(), bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}
