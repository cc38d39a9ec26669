// Package httpserver runs the magic link service's HTTP server together with
// its background workers and shuts both down gracefully.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithWorker("loginlink_cleanup", func(ctx context.Context) {
//			links.RunCleanup(ctx, time.Hour)
//		}),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns when ctx is cancelled, on SIGINT or SIGTERM, or when Shutdown
// is called. Workers get a context that is cancelled at shutdown and Run
// waits for them before returning.
//
// Liveness and Readiness build probe handlers; Readiness runs the named
// dependency checks (pg.Healthcheck, redis.Healthcheck, mongo.Healthcheck).
package httpserver
