package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

func newTestIndex(t *testing.T, status int, response string) (*Index, *[]recordedRequest) {
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		reqs = append(reqs, rec)

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  []string{srv.URL},
		MaxRetries: 0,
	})
	require.NoError(t, err)
	return NewIndex(client, "applications"), &reqs
}

func TestIndex_IndexApplication(t *testing.T) {
	idx, reqs := newTestIndex(t, http.StatusCreated, `{"result":"created"}`)

	app := &models.Application{
		ID:               "3f2b8c1e-7d4a-4e1b-9c2f-5a6b7c8d9e0f",
		ApplicationID:    "app-123456-0a1b2c3d",
		ApplicationEmail: "a@b.com",
		ApplicationPhone: "123",
		ProgramApplied:   "Accel",
		StartupName:      "Acme",
		Status:           models.StatusPending,
		SubmissionDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedDateTime:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, idx.IndexApplication(context.Background(), app))
	require.Len(t, *reqs, 1)

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/applications/_doc/app-123456-0a1b2c3d", req.Path)
	assert.Equal(t, "Acme", req.Body["startupName"])
	assert.NotContains(t, req.Body, "applicationEmail")
	assert.NotContains(t, req.Body, "applicationPhone")
}

func TestIndex_IndexApplicationFailure(t *testing.T) {
	idx, _ := newTestIndex(t, http.StatusServiceUnavailable, `{"error":"unavailable"}`)

	err := idx.IndexApplication(context.Background(), &models.Application{ApplicationID: "app-123456-0a1b2c3d"})
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestIndex_Search(t *testing.T) {
	idx, reqs := newTestIndex(t, http.StatusOK, `{
		"hits": {
			"total": {"value": 2},
			"hits": [
				{"_source": {"applicationId": "app-000002-0000000b"}},
				{"_source": {"applicationId": "app-000001-0000000a"}}
			]
		}
	}`)

	ids, total, err := idx.Search(context.Background(), models.SearchQuery{
		Text:   "acme",
		Status: models.StatusUnderReview,
		Limit:  500,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app-000002-0000000b", "app-000001-0000000a"}, ids)
	assert.Equal(t, 2, total)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, "/applications/_search", req.Path)
	assert.Equal(t, float64(MaxLimit), req.Body["size"])
	assert.NotContains(t, req.Body, "sort")
}

func TestBuildQuery(t *testing.T) {
	t.Run("no text sorts newest first", func(t *testing.T) {
		q := buildQuery(models.SearchQuery{}, DefaultLimit)
		assert.Contains(t, q, "sort")
		boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
		assert.Empty(t, boolQuery["must"])
		assert.Empty(t, boolQuery["filter"])
	})

	t.Run("status filter", func(t *testing.T) {
		q := buildQuery(models.SearchQuery{Status: models.StatusAccepted}, 5)
		boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
		filters := boolQuery["filter"].([]interface{})
		require.Len(t, filters, 1)
		assert.Equal(t, map[string]interface{}{
			"term": map[string]interface{}{"status": "Accepted"},
		}, filters[0])
	})
}
