// Package account mounts the magic link HTTP surface: requesting a link,
// opening login and invitation links, signing out, and the admin actions
// on magic accounts and their links.
//
//	r.Mount("/", account.Router(account.RouterOptions{
//		MagicLink: account.NewMagicLinkHandler(svc, sessions, account.WithNoticePath(cfg.NoticePath)),
//		Admin:     account.NewAdminHandler(svc, users, guard, sessions),
//	}))
package account
