package account

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

// SessionManager moves sessions between the store and the client.
// *session.Manager implements it.
type SessionManager interface {
	Get(ctx context.Context, r *http.Request) (*session.Session, error)
	Attach(w http.ResponseWriter, s *session.Session) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	RequireAuthWith(unauthorized http.Handler) func(http.Handler) http.Handler
}

// MagicLinks is the public side of the magic link flow.
// *auth.MagicLinkService implements it.
type MagicLinks interface {
	RequestLoginLink(ctx context.Context, email string) (auth.Ack, error)
	ConsumeToken(ctx context.Context, secret string, kind loginlink.Kind, current *session.Session) (auth.Outcome, error)
}

// AdminActions are the account and link operations behind the admin routes.
// *auth.MagicLinkService implements it.
type AdminActions interface {
	ProvisionAccount(ctx context.Context, actorID uuid.UUID, p auth.ProvisionParams) (auth.ProvisionResult, error)
	Resend(ctx context.Context, ownerID uuid.UUID, kind loginlink.Kind) error
	CopyLink(ctx context.Context, actorID, ownerID uuid.UUID, kind loginlink.Kind) (auth.LinkView, error)
	SuspendUser(ctx context.Context, actorID, userID uuid.UUID) error
	UnsuspendUser(ctx context.Context, actorID, userID uuid.UUID) error
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
	UserUpdated(ctx context.Context, actorID, userID uuid.UUID) error
	ListLinks(ctx context.Context, viewerID uuid.UUID, canViewAll bool) ([]auth.LinkInfo, error)
}

// Guard authorizes admin actions. *auth.Guard implements it.
type Guard interface {
	Check(ctx context.Context, actor *auth.User, action auth.Action, target uuid.UUID) error
	ViewScope(actor *auth.User) (allowed, all bool)
}

// ActorLookup loads the signed-in account.
type ActorLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
}
