// Command server runs the magic link authentication service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/magicauth/handler"
	"github.com/dmitrymomot/magicauth/modules/account"
	"github.com/dmitrymomot/magicauth/pkg/audit"
	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/clientip"
	"github.com/dmitrymomot/magicauth/pkg/cookie"
	"github.com/dmitrymomot/magicauth/pkg/email"
	"github.com/dmitrymomot/magicauth/pkg/httpserver"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/rbac"
	"github.com/dmitrymomot/magicauth/pkg/requestid"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.App.Env, cfg.App.Service),
		logger.WithLevelName(cfg.App.LogLevel),
		logger.WithContextExtractors(requestid.LogExtractor(), clientip.LogExtractor()),
	)

	b := &backends{log: log}
	defer func() {
		if err := b.close(context.Background()); err != nil {
			log.Error("failed to close backends", logger.Error(err))
		}
	}()

	users, err := openDirectory(ctx, b, cfg.App.DirectoryStore)
	if err != nil {
		return fmt.Errorf("directory: %w", err)
	}
	if admin, err := bootstrapAdmin(ctx, users, cfg.App.BootstrapAdmin); err != nil {
		return err
	} else if admin != nil {
		log.Info("bootstrap admin ready", logger.UserID(admin.ID), logger.Email(admin.Email))
	}

	linkStore, err := openLinkStore(ctx, b, cfg.Links)
	if err != nil {
		return fmt.Errorf("login links: %w", err)
	}
	links, err := loginlink.NewFromConfig(cfg.Links, linkStore, loginlink.WithLogger(log))
	if err != nil {
		return err
	}

	sessionStore, err := openSessionStore(ctx, b, cfg.Session)
	if err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return err
	}
	sessions := session.NewFromConfig(cfg.Session,
		session.WithStore(sessionStore),
		session.WithCookieManager(cookies),
		session.WithLogger(log),
	)
	defer sessions.Close()

	limiter, err := openRateLimiter(ctx, b, cfg.App.RateLimitStore, cfg.Auth.RateLimit())
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	auditStorage, err := openAuditStorage(ctx, b, cfg.App.AuditStore)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	events := audit.NewLogger(auditStorage,
		audit.WithRequestIDExtractor(requestid.Lookup),
		audit.WithIPExtractor(clientip.Lookup),
		audit.WithSessionIDExtractor(sessionID),
		audit.WithMetadataFilter(audit.NewMetadataFilter()),
		audit.WithAsync(cfg.App.AuditBuffer, audit.AsyncOptions{}),
	)

	authz, err := rbac.NewAuthorizer(ctx, roleSource(cfg.App.RolesFile))
	if err != nil {
		return err
	}

	policy, err := auth.PolicyFromConfig(cfg.Auth, cfg.Links)
	if err != nil {
		return err
	}
	builder, err := auth.NewLinkBuilder(cfg.Auth.BaseURL)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg.App.EmailCatalog)
	if err != nil {
		return err
	}
	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return err
	}
	dispatcher := auth.NewDispatcher(auth.NewEmailMessenger(sender), builder, policy,
		auth.WithCatalog(catalog),
		auth.WithSiteName(cfg.Auth.SiteName),
		auth.WithSupportContact(cfg.Email.SupportEmail),
		auth.WithPasswordResetURL(cfg.Auth.ResetURL()),
		auth.WithDispatcherLogger(log),
	)

	guard := auth.NewGuard(authz, users)
	svc := auth.NewMagicLinkService(users, links, dispatcher, sessions, policy,
		auth.WithLogger(log),
		auth.WithEnroller(users),
		auth.WithRoleAssigner(users),
		auth.WithGuard(guard),
		auth.WithRateLimiter(limiter),
		auth.WithAuditLogger(events),
	)

	errorHandler := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{ErrorPage: account.ErrorPage})

	r := chi.NewRouter()
	r.Use(
		requestid.New(requestid.WithTrustIncoming(cfg.App.TrustProxy)),
		clientip.Middleware(cfg.App.TrustProxy),
		middleware.Recoverer,
		middleware.CleanPath,
		sessions.Middleware,
	)
	r.Get("/health/live", httpserver.Liveness())
	r.Get("/health/ready", httpserver.Readiness(log, 3*time.Second, b.checks...))
	r.Mount("/", account.Router(account.RouterOptions{
		MagicLink: account.NewMagicLinkHandler(svc, sessions,
			account.WithNoticePath(cfg.Auth.NoticePath),
			account.WithErrorHandler(errorHandler),
			account.WithLogger(log),
		),
		Admin: account.NewAdminHandler(svc, users, guard, sessions,
			account.WithAdminErrorHandler(errorHandler),
			account.WithAdminLogger(log),
		),
	}))

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithWorker("loginlink_cleanup", func(ctx context.Context) {
			links.RunCleanup(ctx, cfg.Links.CleanupInterval)
		}),
		httpserver.WithStopHook(func(ctx context.Context) {
			if err := events.Close(ctx); err != nil {
				log.Error("failed to flush audit events", logger.Error(err))
			}
		}),
	)

	log.Info("starting magic link service",
		slog.String("links", cfg.Links.Store),
		slog.String("sessions", cfg.Session.Store),
		slog.String("directory", cfg.App.DirectoryStore),
		slog.String("audit", cfg.App.AuditStore),
	)
	return srv.Run(ctx, r)
}

// sessionID feeds the request session resolved by the middleware into audit events.
func sessionID(ctx context.Context) (string, bool) {
	s, ok := session.FromContext(ctx)
	if !ok || s == nil {
		return "", false
	}
	return s.ID.String(), true
}
