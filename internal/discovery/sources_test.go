package discovery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newESClient(t *testing.T, h http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	tr := &http.Transport{}
	t.Cleanup(func() {
		srv.Close()
		tr.CloseIdleConnections()
	})

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}, Transport: tr})
	require.NoError(t, err)
	return client
}

func TestElasticsearchSource_Recommendations(t *testing.T) {
	var body map[string]interface{}
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/universities/_search", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("size"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"hits":{"hits":[
			{"_id":"es-1","_source":{"name":"University of Oxford","country":"UK","tuition_fee":35000,"acceptance_rate":17.5,"ranking":5}},
			{"_id":"es-2","_source":{"id":12,"name":"University of Manchester","country":"UK","tuition_fee":24000,"acceptance_rate":59}}
		]}}`)
	})

	src := NewElasticsearchSource(client, "universities", 25).
		WithPrefilter(Query{BudgetCeiling: 40000, Regions: []string{"UK"}})
	unis, err := src.Recommendations(context.Background())
	require.NoError(t, err)

	require.Len(t, unis, 2)
	assert.Equal(t, models.ID("es-1"), unis[0].ID)
	assert.Equal(t, 5, *unis[0].Ranking)
	assert.Equal(t, models.ID("12"), unis[1].ID)

	filters := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	assert.Len(t, filters, 2)
}

func TestElasticsearchSource_ErrorStatus(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception"}}`)
	})

	_, err := NewElasticsearchSource(client, "missing", 0).Recommendations(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogUnavailable))
}

const catalogYAML = `universities:
  - id: "mit"
    name: MIT
    country: USA
    location: Massachusetts
    tuition_fee: 53790
    acceptance_rate: 6.7
    ranking: 1
  - name: University of Heidelberg
    country: Germany
    location: Heidelberg
    tuition_fee: 3500
    acceptance_rate: 20
`

func TestFileSource_LoadAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "universities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	src, err := NewFileSource(path, logger.NewTestLogger(t))
	require.NoError(t, err)

	unis, err := src.Recommendations(context.Background())
	require.NoError(t, err)
	require.Len(t, unis, 2)
	assert.Equal(t, models.ID("mit"), unis[0].ID)
	assert.Equal(t, models.ID("2"), unis[1].ID)
	assert.Nil(t, unis[1].Ranking)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	updated := catalogYAML + `  - name: University of Toronto
    country: Canada
    tuition_fee: 58160
    acceptance_rate: 43
`
	assert.Eventually(t, func() bool {
		// Rewrite until the watcher, which starts asynchronously, sees it.
		_ = os.WriteFile(path, []byte(updated), 0o644)
		unis, _ := src.Recommendations(context.Background())
		return len(unis) == 3
	}, 5*time.Second, 50*time.Millisecond)
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogUnavailable))
}

func TestFileSource_SeedCatalog(t *testing.T) {
	src, err := NewFileSource(filepath.Join("..", "..", "configs", "universities.yaml"), nil)
	require.NoError(t, err)

	unis, err := src.Recommendations(context.Background())
	require.NoError(t, err)
	assert.Len(t, unis, 20)

	NormalizeTiers(unis)
	visible := Filter(unis, DefaultQuery())
	assert.NotEmpty(t, visible)
	for _, u := range visible {
		assert.LessOrEqual(t, u.TuitionFeeUSD, 60000.0)
	}
}
