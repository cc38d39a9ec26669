// Package directory is the account store behind the magic link flows.
//
// It implements auth.UserDirectory, auth.Enroller and auth.RoleAssigner
// over Postgres (see the migrations package) or process memory. Deleted
// users are kept with the deleted flag set, so their email can be
// registered again while old audit records still resolve.
package directory
