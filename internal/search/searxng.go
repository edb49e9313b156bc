package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fathomlabs/fathom/internal/circuitbreaker"
	"github.com/fathomlabs/fathom/internal/metrics"
	"github.com/fathomlabs/fathom/internal/tracing"
)

var (
	// ErrTimeout marks a provider call that exceeded its deadline.
	ErrTimeout = errors.New("search provider timed out")
	// ErrUnavailable marks a provider that could not be reached or answered
	// with a server error.
	ErrUnavailable = errors.New("search provider unavailable")
)

// SearxNGConfig configures the SearXNG HTTP client.
type SearxNGConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxResults     int
	RequestsPerSec float64
	Language       string
}

// SearxNG is a Provider backed by a SearXNG metasearch instance's JSON API.
type SearxNG struct {
	cfg     SearxNGConfig
	httpw   *circuitbreaker.HTTPWrapper
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewSearxNG builds the client. Configuration gaps fall back to a local
// instance with conservative limits.
func NewSearxNG(cfg SearxNGConfig, logger *zap.Logger) *SearxNG {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8888"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 4
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &SearxNG{
		cfg:     cfg,
		httpw:   circuitbreaker.NewHTTPWrapper(httpClient, "searxng", "search", logger),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		log:     logger,
	}
}

// searxngResponse mirrors the fields we consume from GET /search?format=json.
type searxngResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Engine  string  `json:"engine"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search issues one metasearch query. Timeouts and connectivity failures map
// to ErrTimeout / ErrUnavailable so the caller can fold them into an empty
// batch.
func (s *SearxNG) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	ctx, span := otel.Tracer("fathom/search").Start(ctx, "searxng.search")
	span.SetAttributes(attribute.String("search.query", query))
	defer span.End()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("pageno", "1")
	lang := opts.Language
	if lang == "" {
		lang = s.cfg.Language
	}
	params.Set("language", lang)
	params.Set("safesearch", strconv.Itoa(opts.SafeSearch))
	if len(opts.Engines) > 0 {
		params.Set("engines", strings.Join(opts.Engines, ","))
	}
	if len(opts.Categories) > 0 {
		params.Set("categories", strings.Join(opts.Categories, ","))
	}
	if opts.TimeRange != "" {
		params.Set("time_range", opts.TimeRange)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build searxng request: %w", err)
	}
	tracing.InjectTraceparent(ctx, req)

	start := time.Now()
	resp, err := s.httpw.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.ProviderLatency.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequests.WithLabelValues("error").Inc()
		s.log.Warn("searxng returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.String("query", query),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	var parsed searxngResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.ProviderRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	limit := opts.MaxResults
	if limit <= 0 || limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}
	results := make([]Result, 0, limit)
	for _, r := range parsed.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
			Engine:  r.Engine,
			Score:   r.Score,
		})
	}

	metrics.ProviderRequests.WithLabelValues("ok").Inc()
	s.log.Debug("searxng search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
