package question

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	es "religious_services_backend/internal/platform/elasticsearch"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSearchDisabled is returned by Search when no Elasticsearch client is configured.
var ErrSearchDisabled = errors.New("search index disabled")

// Indexer keeps the search index in step with the public feed.
type Indexer interface {
	Enabled() bool
	Sync(ctx context.Context, q *Question) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, term, category string, from, size int) ([]uuid.UUID, int64, error)
	BulkIndex(ctx context.Context, questions []Question, refresh string) (int, error)
}

// ESIndexer is the Elasticsearch implementation of Indexer. A nil client
// turns every write into a no-op.
type ESIndexer struct {
	client *es.ESClientWrapper
	index  string
	logger *zap.Logger
}

var _ Indexer = (*ESIndexer)(nil)

func NewESIndexer(client *es.ESClientWrapper, index string, logger *zap.Logger) *ESIndexer {
	return &ESIndexer{client: client, index: index, logger: logger.Named("QuestionIndexer")}
}

func (i *ESIndexer) Enabled() bool {
	return i != nil && i.client != nil
}

// QuestionToDocument converts a public question and its answers into the index document.
func QuestionToDocument(q *Question) (string, error) {
	if q == nil {
		return "", errors.New("question cannot be nil")
	}
	answers := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, a.Content)
	}
	doc := map[string]interface{}{
		"title":       q.Title,
		"content":     q.Content,
		"answers":     answers,
		"category":    q.Category,
		"is_urgent":   q.IsUrgent,
		"answered_at": q.AnsweredAt,
		"created_at":  q.CreatedAt,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("error marshalling question to JSON for ES: %w", err)
	}
	return string(b), nil
}

// Sync indexes q when it belongs in the public feed and removes it otherwise.
// q must have its answers loaded.
func (i *ESIndexer) Sync(ctx context.Context, q *Question) error {
	if !i.Enabled() {
		return nil
	}
	if !q.IsPublic() {
		return i.Remove(ctx, q.ID)
	}

	doc, err := QuestionToDocument(q)
	if err != nil {
		return err
	}
	res, err := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: q.ID.String(),
		Body:       strings.NewReader(doc),
	}.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("index question %s: %w", q.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index question %s: status %s", q.ID, res.Status())
	}
	return nil
}

func (i *ESIndexer) Remove(ctx context.Context, id uuid.UUID) error {
	if !i.Enabled() {
		return nil
	}
	res, err := esapi.DeleteRequest{Index: i.index, DocumentID: id.String()}.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("remove question %s from index: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove question %s from index: status %s", id, res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the ids of matching questions, best match first, and the total hit count.
func (i *ESIndexer) Search(ctx context.Context, term, category string, from, size int) ([]uuid.UUID, int64, error) {
	if !i.Enabled() {
		return nil, 0, ErrSearchDisabled
	}

	boolQuery := map[string]interface{}{
		"must": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  term,
				"fields": []string{"title^3", "content", "answers"},
			},
		},
	}
	if category != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"category": category}},
		}
	}
	body, err := json.Marshal(map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQuery},
		"from":    from,
		"size":    size,
		"_source": false,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal search query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, i.client.Client)
	if err != nil {
		return nil, 0, fmt.Errorf("search questions: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("search questions: status %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			i.logger.Warn("Skipping search hit with invalid id", zap.String("id", h.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, parsed.Hits.Total.Value, nil
}

// BuildBulkBody renders the NDJSON body of a bulk index request.
func BuildBulkBody(index string, questions []Question) (string, int, error) {
	var sb strings.Builder
	count := 0
	for idx := range questions {
		q := &questions[idx]
		doc, err := QuestionToDocument(q)
		if err != nil {
			return "", 0, err
		}
		action := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, index, q.ID.String())
		sb.WriteString(action)
		sb.WriteString("\n")
		sb.WriteString(doc)
		sb.WriteString("\n")
		count++
	}
	return sb.String(), count, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkIndex indexes a batch and returns how many documents were accepted.
func (i *ESIndexer) BulkIndex(ctx context.Context, questions []Question, refresh string) (int, error) {
	if !i.Enabled() {
		return 0, ErrSearchDisabled
	}
	body, count, err := BuildBulkBody(i.index, questions)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	res, err := esapi.BulkRequest{
		Body:    strings.NewReader(body),
		Refresh: refresh,
	}.Do(ctx, i.client.Client)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index: status %s", res.Status())
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}
	failed := 0
	if parsed.Errors {
		for _, item := range parsed.Items {
			for _, result := range item {
				if result.Error != nil {
					failed++
					i.logger.Error("Failed to index question in bulk",
						zap.String("id", result.ID),
						zap.Int("status", result.Status),
						zap.String("type", result.Error.Type),
						zap.String("reason", result.Error.Reason),
					)
				}
			}
		}
	}
	return count - failed, nil
}
