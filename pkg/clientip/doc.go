// Package clientip resolves the client address of a request and keeps it in
// the request context for logs and audit events.
//
// Forwarding headers are only honoured when the service runs behind a proxy
// that overwrites them; otherwise any client could claim any address.
//
//	r.Use(clientip.Middleware(cfg.TrustProxy))
//
//	events := audit.NewLogger(storage, audit.WithIPExtractor(clientip.Lookup))
package clientip
