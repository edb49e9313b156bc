package circuitbreaker

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fathomlabs/fathom/internal/metrics"
)

// HTTPWrapper routes an http.Client through a breaker. 5xx responses count as
// breaker failures; 4xx do not trip it (they are the caller's problem).
type HTTPWrapper struct {
	client *http.Client
	cb     *Breaker
	name   string
}

// NewHTTPWrapper wraps client with a named breaker and state metrics.
func NewHTTPWrapper(client *http.Client, name, service string, logger *zap.Logger) *HTTPWrapper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	cb := New(name, DefaultSettings(), logger)
	cb.OnStateChange(func(name string, from, to State) {
		metrics.BreakerState.WithLabelValues(name, service).Set(float64(to))
	})
	return &HTTPWrapper{client: client, cb: cb, name: name}
}

// Do executes the request through the breaker. When the breaker classified a
// 5xx as a failure the response is still handed back to the caller.
func (hw *HTTPWrapper) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := hw.cb.Execute(req.Context(), func() error {
		var doErr error
		resp, doErr = hw.client.Do(req)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= 500 {
			return &httpStatusError{code: resp.StatusCode}
		}
		return nil
	})
	if _, ok := err.(*httpStatusError); ok {
		return resp, nil
	}
	return resp, err
}

type httpStatusError struct{ code int }

func (e *httpStatusError) Error() string { return http.StatusText(e.code) }
