package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchSource reads the university catalog from a search index.
// Budget and region prefilters narrow the hit set server side; the exact
// predicates are still applied by Filter.
type ElasticsearchSource struct {
	client     *elasticsearch.Client
	index      string
	maxResults int
	prefilter  *Query
}

func NewElasticsearchSource(client *elasticsearch.Client, index string, maxResults int) *ElasticsearchSource {
	if maxResults <= 0 {
		maxResults = 50
	}
	return &ElasticsearchSource{client: client, index: index, maxResults: maxResults}
}

// WithPrefilter returns a copy that restricts hits to q's budget and regions.
func (s *ElasticsearchSource) WithPrefilter(q Query) *ElasticsearchSource {
	cp := *s
	cp.prefilter = &q
	return &cp
}

func (s *ElasticsearchSource) Recommendations(ctx context.Context) ([]models.University, error) {
	body, err := json.Marshal(s.buildQuery())
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	size := s.maxResults
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewCatalogUnavailableError("elasticsearch", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.NewCatalogUnavailableError("elasticsearch", fmt.Errorf("search failed: %s", res.Status()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewCatalogUnavailableError("elasticsearch", fmt.Errorf("decode response: %w", err))
	}

	unis := make([]models.University, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		u := hit.Source
		if u.ID == "" {
			u.ID = models.ID(hit.ID)
		}
		unis = append(unis, u)
	}
	return unis, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string            `json:"_id"`
			Source models.University `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) buildQuery() map[string]interface{} {
	var filters []interface{}
	if q := s.prefilter; q != nil {
		if q.BudgetCeiling > 0 {
			filters = append(filters, map[string]interface{}{
				"range": map[string]interface{}{
					"tuition_fee": map[string]interface{}{"lte": q.BudgetCeiling},
				},
			})
		}
		if len(q.Regions) > 0 {
			filters = append(filters, map[string]interface{}{
				"terms": map[string]interface{}{"country": q.Regions},
			})
		}
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}},
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"ranking": map[string]interface{}{"order": "asc", "missing": "_last"}},
		},
	}
}
