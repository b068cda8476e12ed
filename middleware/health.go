/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/vizionik25/CodeRevAI-sub001/circuitbreaker"
	"github.com/vizionik25/CodeRevAI-sub001/log"
	"github.com/vizionik25/CodeRevAI-sub001/retryqueue"
)

// HealthStatus is the body of the health check response.
type HealthStatus struct {
	CircuitBreaker circuitbreaker.Status `json:"circuitBreaker"`
	RetryQueueSize int                   `json:"retryQueueSize"`
}

type healthCheckHandler struct {
	breaker *circuitbreaker.Breaker
	queue   *retryqueue.Queue
	logger  log.FieldLogger
}

// NewHealthCheckHandler creates an HTTP handler that reports the breaker status
// and the pending retry queue depth. This is a read-only observability surface,
// it does not affect any control decisions.
func NewHealthCheckHandler(
	breaker *circuitbreaker.Breaker, queue *retryqueue.Queue, logger log.FieldLogger,
) http.Handler {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &healthCheckHandler{breaker: breaker, queue: queue, logger: logger}
}

func (h *healthCheckHandler) ServeHTTP(rw http.ResponseWriter, _ *http.Request) {
	status := HealthStatus{
		CircuitBreaker: h.breaker.Status(),
		RetryQueueSize: h.queue.Size(),
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	statusCode := http.StatusOK
	if status.CircuitBreaker.Open {
		statusCode = http.StatusServiceUnavailable
	}
	rw.WriteHeader(statusCode)
	if err := json.NewEncoder(rw).Encode(status); err != nil {
		h.logger.Error("encoding health check response", log.Error(err))
	}
}
