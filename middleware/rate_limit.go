/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package middleware provides HTTP middleware and handlers that expose the
// resilience core (rate limiter, circuit breaker, retry queue) to the
// application's request path.
package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/vizionik25/CodeRevAI-sub001/log"
	"github.com/vizionik25/CodeRevAI-sub001/ratelimit"
)

// Standard rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitErrCode is an error code that is used in a response body
// if the request is rejected by the middleware that limits the rate of HTTP requests.
const RateLimitErrCode = "tooManyRequests"

// ServiceDegradedErrCode is an error code that is used in a response body when the
// request was denied under fail-closed policy because the counter store is unavailable.
const ServiceDegradedErrCode = "serviceDegraded"

// RateLimitLogFieldKey it is the name of the logged field that contains a key for the requests rate limiter.
const RateLimitLogFieldKey = "rate_limit_key"

// Rate describes the frequency of requests.
type Rate = ratelimit.Rate

// RateLimitParams contains data that relates to the rate limiting procedure
// and could be used for rejecting or handling an occurred error.
type RateLimitParams struct {
	ErrDomain          string
	ResponseStatusCode int
	Key                string
	Rate               Rate
	Decision           ratelimit.Decision
}

// RateLimitGetKeyFunc is a function that is called for getting key for rate limiting.
type RateLimitGetKeyFunc func(r *http.Request) (key string, bypass bool, err error)

// RateLimitOnRejectFunc is a function that is called for rejecting HTTP request when the rate limit is exceeded.
type RateLimitOnRejectFunc func(
	rw http.ResponseWriter, r *http.Request, params RateLimitParams, next http.Handler, logger log.FieldLogger)

// RateLimitOnErrorFunc is a function that is called when the key for rate limiting cannot be extracted.
type RateLimitOnErrorFunc func(
	rw http.ResponseWriter, r *http.Request, params RateLimitParams, err error, next http.Handler, logger log.FieldLogger)

// RateLimitOpts represents an options for the RateLimit middleware.
type RateLimitOpts struct {
	GetKey RateLimitGetKeyFunc

	// FailClosed selects the failure policy for this call site: deny requests
	// when the counter store is unreachable instead of admitting them.
	FailClosed bool

	// DryRun makes the middleware log rejections without actually denying requests.
	DryRun bool

	ResponseStatusCode         int
	DegradedResponseStatusCode int

	Logger log.FieldLogger

	OnReject         RateLimitOnRejectFunc
	OnRejectInDryRun RateLimitOnRejectFunc
	OnError          RateLimitOnErrorFunc
}

type rateLimitHandler struct {
	next    http.Handler
	limiter *ratelimit.Limiter
	maxRate Rate
	opts    RateLimitOpts

	errDomain      string
	respStatusCode int
	degradedCode   int
	logger         log.FieldLogger
	onReject       RateLimitOnRejectFunc
	onError        RateLimitOnErrorFunc
}

// RateLimit is a middleware that limits the rate of HTTP requests using the passed limiter.
// The caller's identity is the full request key; by default all requests share one key.
func RateLimit(limiter *ratelimit.Limiter, maxRate Rate, errDomain string) func(next http.Handler) http.Handler {
	return RateLimitWithOpts(limiter, maxRate, errDomain, RateLimitOpts{})
}

// RateLimitWithOpts is a configurable version of a middleware to limit the rate of HTTP requests.
func RateLimitWithOpts(
	limiter *ratelimit.Limiter, maxRate Rate, errDomain string, opts RateLimitOpts,
) func(next http.Handler) http.Handler {
	respStatusCode := opts.ResponseStatusCode
	if respStatusCode == 0 {
		respStatusCode = http.StatusTooManyRequests
	}
	degradedCode := opts.DegradedResponseStatusCode
	if degradedCode == 0 {
		degradedCode = http.StatusServiceUnavailable
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	return func(next http.Handler) http.Handler {
		return &rateLimitHandler{
			next:           next,
			limiter:        limiter,
			maxRate:        maxRate,
			opts:           opts,
			errDomain:      errDomain,
			respStatusCode: respStatusCode,
			degradedCode:   degradedCode,
			logger:         logger,
			onReject:       makeRateLimitOnRejectFunc(opts),
			onError:        makeRateLimitOnErrorFunc(opts),
		}
	}
}

func (h *rateLimitHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	key := ""
	if h.opts.GetKey != nil {
		var bypass bool
		var err error
		key, bypass, err = h.opts.GetKey(r)
		if err != nil {
			params := h.makeParams(key, ratelimit.Decision{})
			h.onError(rw, r, params, err, h.next, h.logger)
			return
		}
		if bypass {
			h.next.ServeHTTP(rw, r)
			return
		}
	}

	decision := h.limiter.CheckWithOpts(r.Context(), key, h.maxRate.Count, h.maxRate.Duration,
		ratelimit.CheckOpts{FailClosed: h.opts.FailClosed})
	setRateLimitHeaders(rw, h.maxRate.Count, decision)

	if decision.Allowed {
		h.next.ServeHTTP(rw, r)
		return
	}
	h.onReject(rw, r, h.makeParams(key, decision), h.next, h.logger)
}

func (h *rateLimitHandler) makeParams(key string, decision ratelimit.Decision) RateLimitParams {
	respStatusCode := h.respStatusCode
	if decision.CircuitOpen {
		respStatusCode = h.degradedCode
	}
	return RateLimitParams{
		ErrDomain:          h.errDomain,
		ResponseStatusCode: respStatusCode,
		Key:                key,
		Rate:               h.maxRate,
		Decision:           decision,
	}
}

func setRateLimitHeaders(rw http.ResponseWriter, limit int, decision ratelimit.Decision) {
	rw.Header().Set(HeaderRateLimitLimit, strconv.Itoa(limit))
	rw.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
	rw.Header().Set(HeaderRateLimitReset, strconv.FormatInt(decision.ResetTime.Unix(), 10))
}

// DefaultRateLimitOnReject sends a JSON error response when the rate limit is exceeded.
// A denial caused by an open circuit breaker under fail-closed policy is reported as
// service degradation rather than an ordinary rate limit rejection.
func DefaultRateLimitOnReject(
	rw http.ResponseWriter, r *http.Request, params RateLimitParams, _ http.Handler, logger log.FieldLogger,
) {
	logger = logger.With(
		log.String(RateLimitLogFieldKey, params.Key),
		log.String("user_agent", r.UserAgent()),
	)
	if params.Decision.CircuitOpen {
		respondError(rw, params.ResponseStatusCode, params.ErrDomain, ServiceDegradedErrCode,
			"Service is temporarily degraded.", logger)
		return
	}
	retryAfterSecs := int(math.Ceil(params.Decision.ResetTime.Sub(nowFunc()).Seconds()))
	if retryAfterSecs < 1 {
		retryAfterSecs = 1
	}
	rw.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfterSecs))
	respondError(rw, params.ResponseStatusCode, params.ErrDomain, RateLimitErrCode, "Too many requests.", logger)
}

// DefaultRateLimitOnRejectInDryRun logs the rejection and serves the request anyway.
func DefaultRateLimitOnRejectInDryRun(
	rw http.ResponseWriter, r *http.Request, params RateLimitParams, next http.Handler, logger log.FieldLogger,
) {
	logger.Warn("too many requests, serving will be continued because of dry run mode",
		log.String(RateLimitLogFieldKey, params.Key),
		log.String("user_agent", r.UserAgent()),
	)
	next.ServeHTTP(rw, r)
}

// DefaultRateLimitOnError sends a JSON error response when the rate limiting key cannot be extracted.
func DefaultRateLimitOnError(
	rw http.ResponseWriter, _ *http.Request, params RateLimitParams, err error, _ http.Handler, logger log.FieldLogger,
) {
	logger.Error("getting key for rate limiting", log.Error(err))
	respondError(rw, http.StatusInternalServerError, params.ErrDomain, "internalError", "Internal error.", logger)
}

func makeRateLimitOnRejectFunc(opts RateLimitOpts) RateLimitOnRejectFunc {
	if opts.DryRun {
		if opts.OnRejectInDryRun != nil {
			return opts.OnRejectInDryRun
		}
		return DefaultRateLimitOnRejectInDryRun
	}
	if opts.OnReject != nil {
		return opts.OnReject
	}
	return DefaultRateLimitOnReject
}

func makeRateLimitOnErrorFunc(opts RateLimitOpts) RateLimitOnErrorFunc {
	if opts.OnError != nil {
		return opts.OnError
	}
	return DefaultRateLimitOnError
}
