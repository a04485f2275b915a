// Package search maintains the secondary Elasticsearch index used by admin search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Document is the indexed projection of an application. Contact details stay
// in the record store only.
type Document struct {
	ApplicationID   string    `json:"applicationId"`
	StartupName     string    `json:"startupName"`
	ProgramApplied  string    `json:"programApplied"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	SubmissionDate  time.Time `json:"submissionDate"`
	UpdatedDateTime time.Time `json:"updatedDateTime"`
}

func documentFor(app *models.Application) Document {
	return Document{
		ApplicationID:   app.ApplicationID,
		StartupName:     app.StartupName,
		ProgramApplied:  app.ProgramApplied,
		Description:     app.Description,
		Status:          string(app.Status),
		SubmissionDate:  app.SubmissionDate,
		UpdatedDateTime: app.UpdatedDateTime,
	}
}

type Index struct {
	client *elasticsearch.Client
	index  string
}

func NewIndex(client *elasticsearch.Client, index string) *Index {
	return &Index{client: client, index: index}
}

// IndexApplication upserts the document keyed by applicationId.
func (i *Index) IndexApplication(ctx context.Context, app *models.Application) error {
	body, err := json.Marshal(documentFor(app))
	if err != nil {
		return fmt.Errorf("failed to marshal search document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: app.ApplicationID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return apperrors.NewStoreUnavailableError("index application", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return apperrors.NewStoreUnavailableError("index application",
			fmt.Errorf("%s: %s", res.Status(), string(msg)))
	}
	return nil
}

// Search returns the applicationIds of matching documents in relevance order, or
// newest first when q.Text is empty, together with the total hit count.
func (i *Index) Search(ctx context.Context, q models.SearchQuery) ([]string, int, error) {
	size := q.Limit
	if size <= 0 {
		size = DefaultLimit
	}
	if size > MaxLimit {
		size = MaxLimit
	}

	body, err := json.Marshal(buildQuery(q, size))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, 0, apperrors.NewStoreUnavailableError("search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, 0, apperrors.NewStoreUnavailableError("search",
			fmt.Errorf("%s: %s", res.Status(), string(msg)))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.Source.ApplicationID)
	}
	return ids, parsed.Hits.Total.Value, nil
}

func buildQuery(q models.SearchQuery, size int) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Text != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"startupName^3", "programApplied^2", "description", "applicationId"},
				"type":   "best_fields",
			},
		})
	}

	if q.Status != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"status": string(q.Status)},
		})
	}

	query := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
	}
	if q.Text == "" {
		query["sort"] = []interface{}{
			map[string]interface{}{"submissionDate": map[string]interface{}{"order": "desc"}},
		}
	}
	return query
}
