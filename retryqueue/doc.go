/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package retryqueue provides an in-process, bounded, per-owner queue of
// pending write operations that failed against the primary persistence sink.
//
// The queue decouples a write's acceptance from its durable persistence.
// Enqueue never blocks and never fails: space pressure is handled by evicting
// the owner's oldest item, not by rejecting the new one. A background drain
// loop redelivers items to the sink with exponential backoff, dropping an item
// after the maximum attempt count is exhausted (the loss is logged, never
// propagated). Delivery is at-least-once best-effort; queued items do not
// survive a process restart.
//
// Within one owner's sub-queue retry order is insertion order. Draining for
// different owners proceeds independently, so an owner whose items the sink
// keeps rejecting does not block redelivery of other owners' items.
package retryqueue
