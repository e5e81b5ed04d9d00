// Package handler implements the HTTP API for bimsight.
//
// ComplianceHandler exposes evaluation, session capture and review, and the
// reference model. Errors are returned as JSON with an {error, details}
// structure and an appropriate status code.
//
// Middleware provides panic recovery, CORS and request logging. The /events
// Server-Sent Events stream is served by the hub package.
package handler
