package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchConfig holds configuration options for the Elasticsearch
// repository decorator.
type ElasticsearchConfig struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
}

// DefaultElasticsearchConfig returns a default configuration
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:         "http://localhost:9200",
		IndexPrefix: "blackjack",
	}
}

// ElasticsearchRepository decorates a base Repository, mirroring every
// recorded round into a monthly Elasticsearch index for analysis. The
// base repository stays authoritative; indexing failures are logged and
// never fail the write.
type ElasticsearchRepository struct {
	baseRepo    Repository
	client      *elasticsearch.Client
	indexPrefix string
}

// NewElasticsearchRepository creates a new Elasticsearch repository
func NewElasticsearchRepository(baseRepo Repository, config *ElasticsearchConfig) (*ElasticsearchRepository, error) {
	if config == nil {
		config = DefaultElasticsearchConfig()
	}
	if config.IndexPrefix == "" {
		config.IndexPrefix = "blackjack"
	}

	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	return &ElasticsearchRepository{
		baseRepo:    baseRepo,
		client:      client,
		indexPrefix: config.IndexPrefix,
	}, nil
}

// RecordRound writes to the base repository, then indexes the round
func (r *ElasticsearchRepository) RecordRound(ctx context.Context, record *RoundRecord) error {
	if err := r.baseRepo.RecordRound(ctx, record); err != nil {
		return err
	}

	if err := r.indexRound(ctx, record); err != nil {
		log.Printf("[ELASTICSEARCH] Error indexing round %s: %v", record.ID, err)
	}
	return nil
}

func (r *ElasticsearchRepository) indexRound(ctx context.Context, record *RoundRecord) error {
	doc, err := json.Marshal(toESRound(record))
	if err != nil {
		return fmt.Errorf("error marshaling round document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.roundIndex(record.CompletedAt),
		DocumentID: record.ID,
		Body:       bytes.NewReader(doc),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error executing index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index request failed: %s", res.String())
	}
	return nil
}

// roundIndex returns the monthly index name for a round
func (r *ElasticsearchRepository) roundIndex(t time.Time) string {
	return fmt.Sprintf("%s-rounds-%s", r.indexPrefix, t.UTC().Format("2006.01"))
}

// ReindexRecent re-indexes the player's latest rounds from the base
// repository. Document IDs are round IDs, so re-indexing is idempotent
// and repairs any rounds that failed to index when recorded.
func (r *ElasticsearchRepository) ReindexRecent(ctx context.Context, playerID string, limit int) error {
	rounds, err := r.baseRepo.PlayerRounds(ctx, playerID, limit)
	if err != nil {
		return fmt.Errorf("error reading rounds to reindex: %w", err)
	}
	for _, round := range rounds {
		if err := r.indexRound(ctx, round); err != nil {
			return err
		}
	}
	return nil
}

// PlayerRounds delegates to the base repository
func (r *ElasticsearchRepository) PlayerRounds(ctx context.Context, playerID string, limit int) ([]*RoundRecord, error) {
	return r.baseRepo.PlayerRounds(ctx, playerID, limit)
}

// Close closes the base repository
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}
