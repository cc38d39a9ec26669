// Package requestid tags every request with a correlation ID.
//
// The middleware reuses a well-formed X-Request-ID header set by a trusted
// proxy, or generates a UUIDv4, stores the ID in the request context and
// echoes it back in the response. The ID then shows up in structured logs
// through LogExtractor and in audit events through Lookup:
//
//	r := chi.NewRouter()
//	r.Use(requestid.New(requestid.WithTrustIncoming(cfg.TrustProxy)))
//
//	log := logger.New(logger.WithContextExtractors(requestid.LogExtractor()))
//	events := audit.NewLogger(storage, audit.WithRequestIDExtractor(requestid.Lookup))
//
// Malformed or oversized incoming IDs are replaced rather than rejected.
package requestid
