// Package search maintains a full-text index of the items on today's menus,
// letting users find which venue serves a dish right now.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"dining-aggregator/internal/common/database"
	dinerrors "dining-aggregator/internal/common/errors"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/common/metrics"
	"dining-aggregator/internal/menu"
)

// Document is one indexed menu item with enough venue context to answer
// "where can I get X right now".
type Document struct {
	ItemName     string   `json:"item_name"`
	Description  string   `json:"description,omitempty"`
	Venue        string   `json:"venue"`
	Source       string   `json:"source"`
	MealType     string   `json:"meal_type"`
	Station      string   `json:"station"`
	Allergens    []string `json:"allergens"`
	DietaryPrefs []string `json:"dietary_prefs"`
}

// Index writes menu documents into Elasticsearch and serves item queries.
type Index struct {
	es   *database.ElasticsearchClient
	name string
	log  logger.Logger
}

func NewIndex(es *database.ElasticsearchClient, name string, log logger.Logger) *Index {
	return &Index{
		es:   es,
		name: name,
		log:  log.WithFields(map[string]interface{}{"component": "search_index", "index": name}),
	}
}

// Rebuild replaces the index contents with the given cycle's items. The whole
// corpus is a few thousand documents, so delete-and-reindex per cycle is
// simpler than reconciling.
func (i *Index) Rebuild(ctx context.Context, records []menu.Record) error {
	docs := flatten(records)
	if len(docs) == 0 {
		return nil
	}

	if err := i.clear(ctx); err != nil {
		return err
	}

	var body bytes.Buffer
	for _, doc := range docs {
		meta := fmt.Sprintf(`{"index":{"_index":%q}}`, i.name)
		body.WriteString(meta)
		body.WriteByte('\n')

		line, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("%s: %w", dinerrors.ErrCodeIndexWriteFailed, err)
		}
		body.Write(line)
		body.WriteByte('\n')
	}

	res, err := i.es.Client.Bulk(
		bytes.NewReader(body.Bytes()),
		i.es.Client.Bulk.WithContext(ctx),
		i.es.Client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", dinerrors.ErrCodeIndexWriteFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%s: bulk indexing returned %s", dinerrors.ErrCodeIndexWriteFailed, res.Status())
	}

	metrics.ItemsIndexed.Add(float64(len(docs)))
	i.log.Info("search index rebuilt", map[string]interface{}{"documents": len(docs)})
	return nil
}

// clear drops all documents. A missing index is fine: the first bulk write
// creates it.
func (i *Index) clear(ctx context.Context) error {
	req := esapi.DeleteByQueryRequest{
		Index: []string{i.name},
		Body:  strings.NewReader(`{"query":{"match_all":{}}}`),
	}

	res, err := req.Do(ctx, i.es.Client)
	if err != nil {
		return fmt.Errorf("%s: %w", dinerrors.ErrCodeIndexWriteFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("%s: clear returned %s", dinerrors.ErrCodeIndexWriteFailed, res.Status())
	}
	return nil
}

// Search runs a fuzzy match over item names and descriptions.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 25
	}

	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"item_name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	res, err := i.es.Client.Search(
		i.es.Client.Search.WithContext(ctx),
		i.es.Client.Search.WithIndex(i.name),
		i.es.Client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("search query returned %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("search decode: %w", err)
	}

	docs := make([]Document, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// flatten turns a cycle's records into one document per (venue, meal,
// station, item). Venues in an error state carry no meals and drop out
// naturally.
func flatten(records []menu.Record) []Document {
	var docs []Document
	for _, rec := range records {
		for _, meal := range rec.Meals {
			for _, station := range meal.Stations {
				for _, item := range station.Items {
					doc := Document{
						ItemName:     item.Name,
						Venue:        rec.Name,
						Source:       rec.Source,
						MealType:     meal.MealType,
						Station:      station.Station,
						Allergens:    item.Allergens,
						DietaryPrefs: item.DietaryPrefs,
					}
					if item.Description != nil {
						doc.Description = *item.Description
					}
					docs = append(docs, doc)
				}
			}
		}
	}
	return docs
}
