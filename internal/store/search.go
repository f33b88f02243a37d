// internal/store/search.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"diner-matching/internal/common/logger"
	"diner-matching/internal/models"
)

// SearchPool finds candidate pools in the diners search index. Documents are
// diner profiles with an extra keyword field "city" holding the normalized
// city.
type SearchPool struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchPool(es *elasticsearch.Client, index string, log logger.Logger) *SearchPool {
	return &SearchPool{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"store": "elasticsearch", "index": index}),
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.DinerProfile `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (p *SearchPool) ListByCity(ctx context.Context, city string, limit int) ([]models.DinerProfile, error) {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" || limit <= 0 {
		return []models.DinerProfile{}, nil
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"city": city},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
		"size": limit,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{p.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, p.es)
	if err != nil {
		return nil, fmt.Errorf("search diners in %s: %w", city, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search diners in %s: %s", city, res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.DinerProfile, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		if h.Source.ID == "" {
			continue
		}
		out = append(out, h.Source)
	}
	p.logger.Debug("candidate search completed", map[string]interface{}{"city": city, "hits": len(out)})
	return out, nil
}
