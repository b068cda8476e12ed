/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vizionik25/CodeRevAI-sub001/circuitbreaker"
	"github.com/vizionik25/CodeRevAI-sub001/ratelimit"
)

func ExampleRateLimitWithOpts() {
	store := newMemWindowStore()
	breaker := circuitbreaker.New(circuitbreaker.NewDefaultConfig())
	limiter := ratelimit.New(store, breaker)

	router := chi.NewRouter()

	// Expensive AI review endpoint: 2 requests per minute per caller, deny on store outage.
	router.With(RateLimitWithOpts(limiter, Rate{Count: 2, Duration: time.Minute}, "CodeRevAI", RateLimitOpts{
		GetKey: func(r *http.Request) (key string, bypass bool, err error) {
			return "review:" + r.Header.Get("X-User-ID"), false, nil
		},
		FailClosed: true,
	})).Post("/api/review", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusAccepted)
	})

	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/review", nil)
		req.Header.Set("X-User-ID", "user-42")
		router.ServeHTTP(resp, req)
		fmt.Printf("%d remaining=%s\n", resp.Code, resp.Header().Get(HeaderRateLimitRemaining))
	}

	// Output:
	// 202 remaining=1
	// 202 remaining=0
	// 429 remaining=0
}
