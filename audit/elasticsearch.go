// audit/elasticsearch.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/aegis-admin/aegis/model"
)

const (
	loginLogIndex = "aegis-login-logs"
	operaLogIndex = "aegis-opera-logs"
)

// ElasticsearchRepository ships audit entries to an Elasticsearch cluster
// instead of the relational log tables.
type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
}

func NewElasticsearchRepository(esURL string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient}, nil
}

func (r *ElasticsearchRepository) RecordLogin(ctx context.Context, entry *model.LoginLog) error {
	return r.index(ctx, loginLogIndex, entry)
}

func (r *ElasticsearchRepository) RecordOpera(ctx context.Context, entry *model.OperaLog) error {
	return r.index(ctx, operaLogIndex, entry)
}

func (r *ElasticsearchRepository) index(ctx context.Context, indexName string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.NewString()),
		Body:       strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}
	return nil
}
