// Package service coordinates the compliance engine with its surroundings.
//
// ComplianceService owns the current reference index, swapping it atomically
// on reload, and keeps one smoothing window per session so concurrent
// evaluation streams do not mix their scores. Captured cycles are persisted
// through the repository.
//
// # Event System
//
// The service publishes events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE): evaluated reports, alerts, status
// changes, model reloads, captured samples and session resets.
package service
