package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// questionsMapping is the mapping of the public questions index.
func questionsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"title":       map[string]interface{}{"type": "text"},
				"content":     map[string]interface{}{"type": "text"},
				"answers":     map[string]interface{}{"type": "text"},
				"category":    map[string]interface{}{"type": "keyword"},
				"is_urgent":   map[string]interface{}{"type": "boolean"},
				"answered_at": map[string]interface{}{"type": "date"},
				"created_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
	b, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("marshal questions mapping: %w", err)
	}
	return string(b), nil
}

// CreateQuestionsIndexIfNotExists creates the questions index with its mapping
// unless it already exists.
func CreateQuestionsIndexIfNotExists(ctx context.Context, client *ESClientWrapper, index string, logger *zap.Logger) error {
	log := logger.Named("elasticsearch_index_setup")

	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		log.Info("Questions index already exists", zap.String("index_name", index))
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: status %s", index, res.Status())
	}

	mappingJSON, err := questionsMapping()
	if err != nil {
		return err
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(mappingJSON),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		_ = json.NewDecoder(createRes.Body).Decode(&errorBody)
		log.Error("Failed to create questions index",
			zap.String("status", createRes.Status()),
			zap.Any("error_details", errorBody),
			zap.String("index_name", index),
		)
		return fmt.Errorf("create index %s: status %s", index, createRes.Status())
	}

	log.Info("Questions index created", zap.String("index_name", index))
	return nil
}
