/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit implements a distributed sliding-window rate limiter
// on top of a shared counter store guarded by a circuit breaker.
//
// The limiter counts events in the trailing window rather than fixed calendar
// buckets. Every check records an entry in the backing sorted structure before
// counting, so denied callers still consume a slot for that timestamp and a
// flood of denied retries is not "free".
//
// Store failures never reach the caller as raw errors. They are converted into
// a policy decision: fail-open (allow, the default) or fail-closed (deny),
// selected per call site. Rate limiting is a protective feature for most
// endpoints, so availability during a store outage outweighs strict
// enforcement; especially expensive or abuse-prone operations can opt into
// denying under uncertainty instead.
package ratelimit
