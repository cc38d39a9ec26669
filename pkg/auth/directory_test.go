package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/cookie"
	"github.com/dmitrymomot/magicauth/pkg/directory"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

type outbox struct {
	mu   sync.Mutex
	sent []auth.Message
}

func (o *outbox) Send(_ context.Context, msg auth.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

func TestProvisionAccount_AfterDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := directory.NewMemory()
	hasher, err := loginlink.NewHasher([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	links := loginlink.NewService(loginlink.NewMemoryStore(), hasher)

	builder, err := auth.NewLinkBuilder("https://school.example.com")
	require.NoError(t, err)
	mail := &outbox{}
	dispatcher := auth.NewDispatcher(mail, builder, auth.DefaultPolicy())

	cookies, err := cookie.New([]string{strings.Repeat("s", 32)})
	require.NoError(t, err)
	sessions := session.New(session.WithStore(session.NewMemoryStore(0)), session.WithCookieManager(cookies))
	t.Cleanup(func() { _ = sessions.Close() })

	svc := auth.NewMagicLinkService(dir, links, dispatcher, sessions, auth.DefaultPolicy(),
		auth.WithRoleAssigner(dir),
		auth.WithEnroller(dir),
	)
	actorID := uuid.New()

	first, err := svc.ProvisionAccount(ctx, actorID, auth.ProvisionParams{Email: "ann@example.com"})
	require.NoError(t, err)
	require.True(t, first.Created)

	require.NoError(t, svc.DeleteUser(ctx, actorID, first.UserID))

	second, err := svc.ProvisionAccount(ctx, actorID, auth.ProvisionParams{Email: "Ann@Example.com"})
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.True(t, second.Dispatched)
	assert.NotEqual(t, first.UserID, second.UserID)
	assert.Equal(t, 2, mail.count())

	got, err := dir.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, second.UserID, got.ID)
}
