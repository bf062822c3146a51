package elasticsearch

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"religious_services_backend/internal/config"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// ESClientWrapper gives the client a distinct type for dependency injection.
type ESClientWrapper struct {
	*elasticsearch.Client
}

// transportLogger sends round trips to zap: failures at warn, the rest at debug.
type transportLogger struct {
	logger *zap.Logger
}

var _ elastictransport.Logger = transportLogger{}

func (l transportLogger) LogRoundTrip(req *http.Request, res *http.Response, err error, _ time.Time, took time.Duration) error {
	status := 0
	if res != nil {
		status = res.StatusCode
	}
	log := l.logger.With(
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status_code", status),
		zap.Duration("took", took),
	)
	if err != nil {
		log.Warn("Elasticsearch request failed", zap.Error(err))
	} else {
		log.Debug("Elasticsearch request")
	}
	return nil
}

func (transportLogger) RequestBodyEnabled() bool  { return false }
func (transportLogger) ResponseBodyEnabled() bool { return false }

// NewClient connects to ELASTICSEARCH_URL and checks the cluster answers.
// With no URL configured it returns (nil, nil) and search runs on SQL only.
func NewClient(cfg *config.Config, logger *zap.Logger) (*ESClientWrapper, error) {
	if cfg.ElasticsearchURL == "" {
		logger.Info("ELASTICSEARCH_URL not set, search indexing disabled")
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.ElasticsearchURL},
		Logger:        transportLogger{logger: logger.Named("elasticsearch")},
		MaxRetries:    5,
		RetryOnStatus: []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		RetryBackoff:  func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("reach elasticsearch at %s: %w", cfg.ElasticsearchURL, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, fmt.Errorf("elasticsearch info returned %s: %s", res.Status(), body)
	}

	logger.Info("Elasticsearch client connected", zap.String("url", cfg.ElasticsearchURL))
	return &ESClientWrapper{Client: client}, nil
}
